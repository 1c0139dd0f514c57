package transform

import "math"

// Frame is the local false-origin frame: coordinates are shifted by the
// offsets and rotated about the new origin so values stay small near the
// project site.
type Frame struct {
	OffsetX     float64 `yaml:"offset_x"`
	OffsetY     float64 `yaml:"offset_y"`
	RotationDeg float64 `yaml:"rotation"`
}

// rotation returns the frame rotation in radians, 0 when absent.
func (f Frame) rotation() float64 {
	if f.RotationDeg <= -360 || f.RotationDeg >= 360 {
		return 0
	}
	return f.RotationDeg * math.Pi / 180
}

// IsIdentity reports whether the frame leaves coordinates untouched.
func (f Frame) IsIdentity() bool {
	return f.OffsetX == 0 && f.OffsetY == 0 && f.rotation() == 0
}

// Forward maps host coordinates into the frame: subtract the offsets, then
// rotate by -rotation.
func (f Frame) Forward(x, y float64) (float64, float64) {
	x -= f.OffsetX
	y -= f.OffsetY
	return rotate(x, y, -f.rotation())
}

// Inverse undoes Forward: rotate by +rotation, then add the offsets.
func (f Frame) Inverse(x, y float64) (float64, float64) {
	x, y = rotate(x, y, f.rotation())
	return x + f.OffsetX, y + f.OffsetY
}

func rotate(x, y, a float64) (float64, float64) {
	if a == 0 {
		return x, y
	}
	s, c := math.Sincos(a)
	return x*c - y*s, x*s + y*c
}
