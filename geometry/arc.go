package geometry

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/interchange"
)

// sweepEpsilon is the smallest sweep in radians an arc may have.
const sweepEpsilon = 1e-12

// ArcFromPoints builds the arc passing through start, mid and end. The
// center is the circumcenter of the three points, the plane normal points
// up for counter-clockwise arcs and down for clockwise ones, and Angle is
// the positive sweep from start to end in the direction of travel.
// StartAngle and EndAngle are the world bearings of the end points seen
// from the center.
func ArcFromPoints(start, mid, end *interchange.Point) (*interchange.Arc, error) {
	a, b, c := start.Vector(), mid.Vector(), end.Vector()

	// side lengths opposite to each point
	la := dist2D(b, c)
	lb := dist2D(a, c)
	lc := dist2D(a, b)
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	scale := math.Max(la, math.Max(lb, lc))
	if scale == 0 || math.Abs(cross) <= 1e-12*scale*scale {
		return nil, fmt.Errorf("%w: arc points are collinear", convert.ErrDegenerateGeometry)
	}

	wa := la * la * (lb*lb + lc*lc - la*la)
	wb := lb * lb * (lc*lc + la*la - lb*lb)
	wc := lc * lc * (la*la + lb*lb - lc*lc)
	sum := wa + wb + wc
	center := r3.Vector{
		X: (wa*a.X + wb*b.X + wc*c.X) / sum,
		Y: (wa*a.Y + wb*b.Y + wc*c.Y) / sum,
		Z: a.Z,
	}
	radius := la * lb * lc / (2 * math.Abs(cross))

	// signed turn between the chords start->mid and mid->end
	turn := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
	normalZ := 1.0
	if turn < 0 {
		normalZ = -1
	}

	startAngle := math.Atan2(a.Y-center.Y, a.X-center.X)
	endAngle := math.Atan2(c.Y-center.Y, c.X-center.X)
	var sweep float64
	if normalZ > 0 {
		sweep = normalizeAngle(endAngle - startAngle)
	} else {
		sweep = normalizeAngle(startAngle - endAngle)
	}
	if sweep < sweepEpsilon {
		return nil, fmt.Errorf("%w: start and end bearings coincide", convert.ErrZeroSweepArc)
	}

	return &interchange.Arc{
		Start:      start,
		Mid:        mid,
		End:        end,
		Plane:      interchange.XYPlane(interchange.PointFromVector(center, start.Units), normalZ),
		Radius:     radius,
		StartAngle: startAngle,
		EndAngle:   endAngle,
		Angle:      sweep,
		Units:      start.Units,
	}, nil
}

// Center returns the arc center stored in its plane.
func Center(a *interchange.Arc) r3.Vector {
	if a.Plane.Origin == nil {
		return r3.Vector{}
	}
	return a.Plane.Origin.Vector()
}

// clockwise reports whether the arc runs clockwise seen from above.
func clockwise(a *interchange.Arc) bool {
	return a.Plane.Normal.Z < 0
}

func dist2D(a, b r3.Vector) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// normalizeAngle maps an angle into [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
