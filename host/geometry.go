package host

import (
	"github.com/godeepar/geoxchange/interchange"
)

// GeometryType names a host geometry family.
type GeometryType string

const (
	TypePoint             GeometryType = "Point"
	TypeMultiPoint        GeometryType = "MultiPoint"
	TypeLineString        GeometryType = "LineString"
	TypeMultiLineString   GeometryType = "MultiLineString"
	TypePolygon           GeometryType = "Polygon"
	TypeMultiPolygon      GeometryType = "MultiPolygon"
	TypeCircularString    GeometryType = "CircularString"
	TypeCompoundCurve     GeometryType = "CompoundCurve"
	TypeCurvePolygon      GeometryType = "CurvePolygon"
	TypeCircle            GeometryType = "Circle"
	TypeEllipse           GeometryType = "Ellipse"
	TypePolyhedralSurface GeometryType = "PolyhedralSurface"
)

// Coord is one host vertex.
type Coord struct {
	X, Y, Z float64
}

// Geometry is a host-native geometry.
type Geometry interface {
	GeometryType() GeometryType
}

// Curve is a geometry usable as a polygon ring or a compound curve part.
type Curve interface {
	Geometry
	// Coords returns the defining vertices, arc control points included.
	Coords() []Coord
}

// Point ...
type Point struct {
	Coord
}

func (*Point) GeometryType() GeometryType { return TypePoint }

type MultiPoint struct {
	Points []Coord
}

func (*MultiPoint) GeometryType() GeometryType { return TypeMultiPoint }

// LineString is a straight vertex run. Closed rings repeat their first
// vertex as the last one.
type LineString struct {
	Vertices []Coord
}

func (*LineString) GeometryType() GeometryType { return TypeLineString }
func (l *LineString) Coords() []Coord         { return l.Vertices }

type MultiLineString struct {
	Lines []*LineString
}

func (*MultiLineString) GeometryType() GeometryType { return TypeMultiLineString }

// Polygon holds the exterior ring first and the interior rings after it.
// Every ring repeats its first vertex as the last one.
type Polygon struct {
	Rings [][]Coord
}

func (*Polygon) GeometryType() GeometryType { return TypePolygon }

type MultiPolygon struct {
	Polygons []*Polygon
}

func (*MultiPolygon) GeometryType() GeometryType { return TypeMultiPolygon }

// CircularString is a run of circular arcs: vertices 2i, 2i+1 and 2i+2
// are the start, a point on the arc and the end of arc i.
type CircularString struct {
	Vertices []Coord
}

func (*CircularString) GeometryType() GeometryType { return TypeCircularString }
func (c *CircularString) Coords() []Coord         { return c.Vertices }

// CompoundCurve joins LineString and CircularString parts end to end.
type CompoundCurve struct {
	Segments []Curve
}

func (*CompoundCurve) GeometryType() GeometryType { return TypeCompoundCurve }

func (c *CompoundCurve) Coords() []Coord {
	var out []Coord
	for i, s := range c.Segments {
		cs := s.Coords()
		if i > 0 && len(cs) > 0 {
			cs = cs[1:]
		}
		out = append(out, cs...)
	}
	return out
}

// CurvePolygon is a polygon whose rings may be curves.
type CurvePolygon struct {
	Exterior  Curve
	Interiors []Curve
}

func (*CurvePolygon) GeometryType() GeometryType { return TypeCurvePolygon }

type Circle struct {
	Center Coord
	Radius float64
}

func (*Circle) GeometryType() GeometryType { return TypeCircle }

// Ellipse has its semi-major axis rotated by Rotation radians from +X.
type Ellipse struct {
	Center    Coord
	SemiMajor float64
	SemiMinor float64
	Rotation  float64
}

func (*Ellipse) GeometryType() GeometryType { return TypeEllipse }

// PolyhedralSurface is a set of planar patches, each an open vertex loop.
type PolyhedralSurface struct {
	Patches [][]Coord
}

func (*PolyhedralSurface) GeometryType() GeometryType { return TypePolyhedralSurface }

// IsClosed reports whether a ring repeats its first vertex.
func IsClosed(cs []Coord) bool {
	return len(cs) > 1 && cs[0] == cs[len(cs)-1]
}

// KindOf maps a geometry onto the layer geometry kind it belongs to.
func KindOf(g Geometry) string {
	if g == nil {
		return interchange.KindNoGeom
	}
	switch g.GeometryType() {
	case TypePoint, TypeMultiPoint:
		return interchange.KindPoint
	case TypeLineString, TypeMultiLineString, TypeCircularString, TypeCompoundCurve:
		return interchange.KindLine
	case TypePolygon, TypeMultiPolygon, TypeCurvePolygon, TypeCircle, TypeEllipse:
		return interchange.KindPolygon
	case TypePolyhedralSurface:
		return interchange.KindMesh
	}
	return interchange.KindNoGeom
}

// HasCurves reports whether g carries arcs or analytic curves.
func HasCurves(g Geometry) bool {
	switch g.GeometryType() {
	case TypeCircularString, TypeCompoundCurve, TypeCurvePolygon, TypeCircle, TypeEllipse:
		return true
	}
	return false
}
