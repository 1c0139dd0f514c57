// Package mesh triangulates polygon boundaries and holes into display
// meshes.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/untillpro/goutils/logger"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/interchange"
)

// Digits are the coordinate roundings tried by the constrained strategy, in
// order. Every entry is one attempt.
var Digits = []int{3, 2, 1, 0}

// Options tune BuildDisplayMesh.
type Options struct {
	// FanThreshold and ConstrainedThreshold are the vertex counts above
	// which the rings are decimated before meshing.
	FanThreshold         int
	ConstrainedThreshold int
	// Height, when not zero, adds a second cap at z+Height.
	Height float64
	// Color paints every vertex when HasColor is set.
	Color    int32
	HasColor bool
	Units    string
}

// DefaultOptions ...
func DefaultOptions() Options {
	return Options{FanThreshold: 5000, ConstrainedThreshold: 100}
}

// MeshFailure is returned when every constrained attempt failed. It matches
// convert.ErrMeshFailure with errors.Is.
type MeshFailure struct {
	Attempts int
	Err      error
}

func (f *MeshFailure) Error() string {
	return fmt.Sprintf("%v after %d attempts: %v", convert.ErrMeshFailure, f.Attempts, f.Err)
}

func (f *MeshFailure) Unwrap() error { return f.Err }

func (f *MeshFailure) Is(target error) bool { return target == convert.ErrMeshFailure }

// BuildDisplayMesh meshes a polygon. The boundary is made counter-clockwise
// and the holes clockwise first; a repeated closing vertex is dropped.
// Without holes the polygon becomes one fan face, with holes it is
// triangulated and every triangle keeps positive orientation.
func BuildDisplayMesh(boundary []r3.Vector, holes [][]r3.Vector, opts Options) (*interchange.Mesh, error) {
	outer := open(boundary)
	if len(outer) < 3 || math.Abs(signedArea(outer)) == 0 {
		return nil, fmt.Errorf("%w: polygon boundary with %d vertices and no area", convert.ErrDegenerateGeometry, len(outer))
	}
	if signedArea(outer) < 0 {
		outer = reversed(outer)
	}
	var inner [][]r3.Vector
	for _, h := range holes {
		h = open(h)
		if len(h) < 3 || signedArea(h) == 0 {
			continue
		}
		if signedArea(h) > 0 {
			h = reversed(h)
		}
		inner = append(inner, h)
	}

	var (
		m   *interchange.Mesh
		err error
	)
	if len(inner) == 0 {
		m = fan(decimate([][]r3.Vector{outer}, opts.FanThreshold)[0], opts.Height)
	} else {
		rings := decimate(append([][]r3.Vector{outer}, inner...), opts.ConstrainedThreshold)
		if m, err = constrained(rings, opts.Height); err != nil {
			return nil, err
		}
	}
	m.Units = opts.Units
	if opts.HasColor {
		m.Paint(opts.Color)
		interchange.SetColor(m, opts.Color)
	}
	return m, nil
}

// fan emits the ring as a single face, plus the top cap when extruded.
func fan(ring []r3.Vector, height float64) *interchange.Mesh {
	m := &interchange.Mesh{}
	face := make([]int32, len(ring))
	for i, v := range ring {
		face[i] = m.AddVertex(v)
	}
	m.AddFace(face...)
	if height != 0 {
		offset := int32(len(ring))
		top := make([]int32, len(ring))
		for i, v := range ring {
			m.AddVertex(r3.Vector{X: v.X, Y: v.Y, Z: v.Z + height})
			top[i] = face[i] + offset
		}
		m.AddFace(top...)
	}
	return m
}

// constrained runs the rounding attempts and wraps the last error.
func constrained(rings [][]r3.Vector, height float64) (*interchange.Mesh, error) {
	var last error
	for i, digits := range Digits {
		m, err := attempt(rings, digits, height)
		if err == nil {
			return m, nil
		}
		last = err
		logger.Verbose(fmt.Sprintf("mesh attempt %d with %d digits failed: %v", i+1, digits, err))
	}
	return nil, &MeshFailure{Attempts: len(Digits), Err: last}
}

// attempt triangulates the rings rounded to digits. A panic of the
// triangulation counts as a failed attempt.
func attempt(rings [][]r3.Vector, digits int, height float64) (m *interchange.Mesh, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("triangulation panicked: %v", r)
		}
	}()

	rounded := roundRings(rings, digits)
	if len(rounded) == 0 {
		return nil, errors.New("boundary collapsed under rounding")
	}
	tris, vertices, err := triangulatePolygon(rounded)
	if err != nil {
		return nil, err
	}
	if len(tris) == 0 {
		return nil, errors.New("no triangle inside the polygon")
	}

	m = &interchange.Mesh{}
	for _, v := range vertices {
		m.AddVertex(v)
	}
	for _, t := range tris {
		m.AddFace(t[0], t[1], t[2])
	}
	if height != 0 {
		offset := int32(len(vertices))
		for _, v := range vertices {
			m.AddVertex(r3.Vector{X: v.X, Y: v.Y, Z: v.Z + height})
		}
		for _, t := range tris {
			m.AddFace(t[0]+offset, t[1]+offset, t[2]+offset)
		}
	}
	return m, nil
}

// open drops the closing vertex of a ring that repeats its first one.
func open(ring []r3.Vector) []r3.Vector {
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		return ring[:len(ring)-1]
	}
	return ring
}

func reversed(ring []r3.Vector) []r3.Vector {
	out := make([]r3.Vector, len(ring))
	for i, v := range ring {
		out[len(ring)-1-i] = v
	}
	return out
}

// signedArea is the 2D shoelace area, positive for counter-clockwise rings.
func signedArea(ring []r3.Vector) float64 {
	a := 0.0
	for i := range ring {
		j := (i + 1) % len(ring)
		a += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return a / 2
}

// decimate keeps every coef-th vertex of each ring when the total vertex
// count exceeds threshold; the first vertex of a ring is always kept and
// rings that would drop under three vertices are kept whole.
func decimate(rings [][]r3.Vector, threshold int) [][]r3.Vector {
	n := 0
	for _, r := range rings {
		n += len(r)
	}
	if threshold <= 0 || n <= threshold {
		return rings
	}
	coef := n / threshold
	out := make([][]r3.Vector, len(rings))
	for i, r := range rings {
		kept := make([]r3.Vector, 0, len(r)/coef+1)
		for j := 0; j < len(r); j += coef {
			kept = append(kept, r[j])
		}
		if len(kept) < 3 {
			kept = r
		}
		out[i] = kept
	}
	return out
}
