package geometry

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/godeepar/geoxchange/interchange"
)

// Segments returns the number of chords used to linearize a curve of the
// given sweep: twelve per whole radian, never fewer than four.
func Segments(sweep float64) int {
	n := int(math.Floor(math.Abs(sweep))) * 12
	if n < 4 {
		n = 4
	}
	return n
}

// SampleArc linearizes an arc from its start to its end point, both kept
// exactly. Z is interpolated along the sweep.
func SampleArc(a *interchange.Arc) []r3.Vector {
	if a.Radius == 0 || a.Angle == 0 || a.Plane.Origin == nil {
		if derived, err := ArcFromPoints(a.Start, a.Mid, a.End); err == nil {
			a = derived
		} else {
			return []r3.Vector{a.Start.Vector(), a.Mid.Vector(), a.End.Vector()}
		}
	}
	center := Center(a)
	n := Segments(a.Angle)
	dir := 1.0
	if clockwise(a) {
		dir = -1
	}
	start := math.Atan2(a.Start.Y-center.Y, a.Start.X-center.X)
	out := make([]r3.Vector, 0, n+1)
	out = append(out, a.Start.Vector())
	for i := 1; i < n; i++ {
		t := float64(i) / float64(n)
		angle := start + dir*a.Angle*t
		s, c := math.Sincos(angle)
		out = append(out, r3.Vector{
			X: center.X + a.Radius*c,
			Y: center.Y + a.Radius*s,
			Z: a.Start.Z + (a.End.Z-a.Start.Z)*t,
		})
	}
	return append(out, a.End.Vector())
}

// SampleCircle returns an open ring on the circle, running from the
// plane's X axis towards its Y axis.
func SampleCircle(c *interchange.Circle) []r3.Vector {
	return sampleEllipse(c.Plane, c.Radius, c.Radius)
}

// SampleEllipse returns an open ring on the ellipse, starting at the end
// of the first axis and running towards the second.
func SampleEllipse(e *interchange.Ellipse) []r3.Vector {
	return sampleEllipse(e.Plane, e.FirstRadius, e.SecondRadius)
}

func sampleEllipse(p interchange.Plane, r1, r2 float64) []r3.Vector {
	origin := r3.Vector{}
	if p.Origin != nil {
		origin = p.Origin.Vector()
	}
	xdir := p.XDir
	if xdir.Norm() == 0 {
		xdir = r3.Vector{X: 1}
	}
	xdir = xdir.Normalize()
	ydir := p.YDir
	if ydir.Norm() == 0 {
		// in-plane perpendicular, counter-clockwise from xdir in XY
		ydir = r3.Vector{X: -xdir.Y, Y: xdir.X}
	}
	ydir = ydir.Normalize()

	n := Segments(2 * math.Pi)
	out := make([]r3.Vector, n)
	for i := range out {
		s, c := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		out[i] = origin.Add(xdir.Mul(r1 * c)).Add(ydir.Mul(r2 * s))
	}
	return out
}

// Linearize returns the vertices of a curve primitive. Closed curves are
// returned open, without a repeated last vertex. ok is false for
// primitives that are not curves.
func Linearize(g interchange.Geometry) (pts []r3.Vector, closed bool, ok bool) {
	switch t := g.(type) {
	case *interchange.Line:
		return []r3.Vector{t.Start.Vector(), t.End.Vector()}, false, true
	case *interchange.Polyline:
		pts = make([]r3.Vector, len(t.Points))
		for i, p := range t.Points {
			pts[i] = p.Vector()
		}
		return pts, t.Closed, true
	case *interchange.Arc:
		return SampleArc(t), false, true
	case *interchange.Circle:
		return SampleCircle(t), true, true
	case *interchange.Ellipse:
		return SampleEllipse(t), true, true
	case *interchange.Polycurve:
		for _, s := range t.Segments {
			seg, _, ok := Linearize(s)
			if !ok {
				return nil, false, false
			}
			if len(pts) > 0 && len(seg) > 0 && pts[len(pts)-1] == seg[0] {
				seg = seg[1:]
			}
			pts = append(pts, seg...)
		}
		closed = t.Closed
		if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
			pts, closed = pts[:len(pts)-1], true
		}
		return pts, closed, true
	}
	return nil, false, false
}
