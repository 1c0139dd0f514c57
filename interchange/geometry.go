package interchange

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"
)

// ErrMalformed is returned when a node lacks what its type tag promises.
var ErrMalformed = errors.New("malformed interchange node")

// Geometry is one of the interchange primitives of this package.
type Geometry interface {
	// Node encodes the primitive.
	Node() *Node
	// GeometryType returns the type tag of the primitive.
	GeometryType() string
	display() *Display
}

// Display is the side channel every primitive carries: the color derived
// from the feature's renderer classification. It is stored as node
// metadata and is not part of the geometric identity.
type Display struct {
	Color    int32
	HasColor bool
}

func (d *Display) display() *Display { return d }

func (d *Display) encode(n *Node) *Node {
	if d.HasColor {
		n.SetMeta("displayColor", Int(int64(d.Color)))
	}
	return n
}

func (d *Display) decode(n *Node) {
	if v, ok := n.GetMeta("displayColor"); ok {
		if c, ok := v.AsInt(); ok {
			d.Color, d.HasColor = int32(c), true
		}
	}
}

// SetColor attaches a display color to g.
func SetColor(g Geometry, argb int32) {
	d := g.display()
	d.Color, d.HasColor = argb, true
}

// ColorOf returns the display color of g, if any.
func ColorOf(g Geometry) (int32, bool) {
	d := g.display()
	return d.Color, d.HasColor
}

// Point ...
type Point struct {
	Display
	X, Y, Z float64
	Units   string
}

func (p *Point) GeometryType() string { return TypePoint }

// Vector returns the coordinates as an r3 vector.
func (p *Point) Vector() r3.Vector { return r3.Vector{X: p.X, Y: p.Y, Z: p.Z} }

// PointFromVector ...
func PointFromVector(v r3.Vector, units string) *Point {
	return &Point{X: v.X, Y: v.Y, Z: v.Z, Units: units}
}

func (p *Point) Node() *Node {
	n := New(TypePoint).
		Set("x", Float(p.X)).
		Set("y", Float(p.Y)).
		Set("z", Float(p.Z)).
		Set("units", String(p.Units))
	return p.encode(n)
}

// Line is a straight two point segment.
type Line struct {
	Display
	Start, End *Point
	Units      string
}

func (l *Line) GeometryType() string { return TypeLine }

func (l *Line) Node() *Node {
	n := New(TypeLine).
		Set("start", NodeValue(l.Start.Node())).
		Set("end", NodeValue(l.End.Node())).
		Set("units", String(l.Units))
	return l.encode(n)
}

// Polyline is an open or closed vertex run. A closed polyline does not
// repeat its first vertex; Closed carries the closure.
type Polyline struct {
	Display
	Points []*Point
	Closed bool
	Units  string
}

func (p *Polyline) GeometryType() string { return TypePolyline }

// Flat returns the vertices as x,y,z triples.
func (p *Polyline) Flat() []float64 {
	out := make([]float64, 0, 3*len(p.Points))
	for _, pt := range p.Points {
		out = append(out, pt.X, pt.Y, pt.Z)
	}
	return out
}

func (p *Polyline) Node() *Node {
	n := New(TypePolyline).
		Set("value", Floats(p.Flat())).
		Set("closed", Bool(p.Closed)).
		Set("units", String(p.Units))
	return p.encode(n)
}

// Plane is an origin with a normal and two in-plane axes.
type Plane struct {
	Origin *Point
	Normal r3.Vector
	XDir   r3.Vector
	YDir   r3.Vector
}

// XYPlane returns the world XY plane at origin, flipped when normalZ < 0.
func XYPlane(origin *Point, normalZ float64) Plane {
	if normalZ < 0 {
		return Plane{Origin: origin, Normal: r3.Vector{Z: -1}, XDir: r3.Vector{X: 1}, YDir: r3.Vector{Y: -1}}
	}
	return Plane{Origin: origin, Normal: r3.Vector{Z: 1}, XDir: r3.Vector{X: 1}, YDir: r3.Vector{Y: 1}}
}

func vectorNode(v r3.Vector) *Node {
	return New(TypeVector).Set("x", Float(v.X)).Set("y", Float(v.Y)).Set("z", Float(v.Z))
}

func (p Plane) node() *Node {
	origin := p.Origin
	if origin == nil {
		origin = &Point{}
	}
	return New(TypePlane).
		Set("origin", NodeValue(origin.Node())).
		Set("normal", NodeValue(vectorNode(p.Normal))).
		Set("xdir", NodeValue(vectorNode(p.XDir))).
		Set("ydir", NodeValue(vectorNode(p.YDir)))
}

// Arc is a circular arc through three points. Plane, Radius and the angles
// are derived from the points.
type Arc struct {
	Display
	Start, Mid, End *Point
	Plane           Plane
	Radius          float64
	StartAngle      float64
	EndAngle        float64
	Angle           float64
	Units           string
}

func (a *Arc) GeometryType() string { return TypeArc }

func (a *Arc) Node() *Node {
	n := New(TypeArc).
		Set("startPoint", NodeValue(a.Start.Node())).
		Set("midPoint", NodeValue(a.Mid.Node())).
		Set("endPoint", NodeValue(a.End.Node())).
		Set("plane", NodeValue(a.Plane.node())).
		Set("radius", Float(a.Radius)).
		Set("startAngle", Float(a.StartAngle)).
		Set("endAngle", Float(a.EndAngle)).
		Set("angle", Float(a.Angle)).
		Set("units", String(a.Units))
	return a.encode(n)
}

// Circle ...
type Circle struct {
	Display
	Plane  Plane
	Radius float64
	Units  string
}

func (c *Circle) GeometryType() string { return TypeCircle }

func (c *Circle) Node() *Node {
	n := New(TypeCircle).
		Set("plane", NodeValue(c.Plane.node())).
		Set("radius", Float(c.Radius)).
		Set("units", String(c.Units))
	return c.encode(n)
}

// Ellipse has its first radius along the plane XDir.
type Ellipse struct {
	Display
	Plane        Plane
	FirstRadius  float64
	SecondRadius float64
	Units        string
}

func (e *Ellipse) GeometryType() string { return TypeEllipse }

func (e *Ellipse) Node() *Node {
	n := New(TypeEllipse).
		Set("plane", NodeValue(e.Plane.node())).
		Set("firstRadius", Float(e.FirstRadius)).
		Set("secondRadius", Float(e.SecondRadius)).
		Set("units", String(e.Units))
	return e.encode(n)
}

// Polycurve is an ordered run of Line, Polyline, Arc, Circle and Ellipse
// segments.
type Polycurve struct {
	Display
	Segments []Geometry
	Closed   bool
	Units    string
}

func (p *Polycurve) GeometryType() string { return TypePolycurve }

func (p *Polycurve) Node() *Node {
	segs := make([]*Node, len(p.Segments))
	for i, s := range p.Segments {
		segs[i] = s.Node()
	}
	n := New(TypePolycurve).
		Set("segments", Nodes(segs)).
		Set("closed", Bool(p.Closed)).
		Set("units", String(p.Units))
	return p.encode(n)
}

// Polygon is a GIS polygon: a boundary curve, void curves and the display
// mesh built from them. DisplayValue is empty when meshing failed.
type Polygon struct {
	Display
	Boundary     Geometry
	Voids        []Geometry
	DisplayValue []*Mesh
	Units        string
}

func (p *Polygon) GeometryType() string { return TypePolygon }

func (p *Polygon) Node() *Node {
	voids := make([]*Node, len(p.Voids))
	for i, v := range p.Voids {
		voids[i] = v.Node()
	}
	meshes := make([]*Node, len(p.DisplayValue))
	for i, m := range p.DisplayValue {
		meshes[i] = m.Node()
	}
	n := New(TypePolygon)
	if p.Boundary != nil {
		n.Set("boundary", NodeValue(p.Boundary.Node()))
	}
	n.Set("voids", Nodes(voids)).
		Set("displayValue", Nodes(meshes)).
		Set("units", String(p.Units))
	return p.encode(n)
}

// DecodeGeometry decodes any primitive node.
func DecodeGeometry(n *Node) (Geometry, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: nil node", ErrMalformed)
	}
	var (
		g   Geometry
		err error
	)
	switch n.Type() {
	case TypePoint:
		g, err = DecodePoint(n)
	case TypeLine:
		g, err = decodeLine(n)
	case TypePolyline:
		g, err = decodePolyline(n)
	case TypeArc:
		g, err = decodeArc(n)
	case TypeCircle:
		g, err = decodeCircle(n)
	case TypeEllipse:
		g, err = decodeEllipse(n)
	case TypePolycurve:
		g, err = decodePolycurve(n)
	case TypeMesh:
		g, err = DecodeMesh(n)
	case TypePolygon:
		g, err = decodePolygon(n)
	default:
		return nil, fmt.Errorf("%w: %q is not a geometry", ErrMalformed, n.Type())
	}
	if err != nil {
		return nil, err
	}
	g.display().decode(n)
	return g, nil
}

// IsGeometry reports whether n carries a geometry primitive type tag.
func IsGeometry(n *Node) bool {
	switch n.Type() {
	case TypePoint, TypeLine, TypePolyline, TypeArc, TypeCircle, TypeEllipse,
		TypePolycurve, TypeMesh, TypePolygon:
		return true
	}
	return false
}

func units(n *Node) string {
	u, _ := n.GetString("units")
	return u
}

func floatField(n *Node, name string) (float64, error) {
	f, ok := n.GetFloat(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s without %q", ErrMalformed, n.Type(), name)
	}
	return f, nil
}

// DecodePoint ...
func DecodePoint(n *Node) (*Point, error) {
	if n.Type() != TypePoint {
		return nil, fmt.Errorf("%w: expected point, got %q", ErrMalformed, n.Type())
	}
	x, err := floatField(n, "x")
	if err != nil {
		return nil, err
	}
	y, err := floatField(n, "y")
	if err != nil {
		return nil, err
	}
	z, _ := n.GetFloat("z")
	p := &Point{X: x, Y: y, Z: z, Units: units(n)}
	p.Display.decode(n)
	return p, nil
}

func childPoint(n *Node, name string) (*Point, error) {
	c, ok := n.GetNode(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s without %q", ErrMalformed, n.Type(), name)
	}
	return DecodePoint(c)
}

func decodeLine(n *Node) (*Line, error) {
	s, err := childPoint(n, "start")
	if err != nil {
		return nil, err
	}
	e, err := childPoint(n, "end")
	if err != nil {
		return nil, err
	}
	return &Line{Start: s, End: e, Units: units(n)}, nil
}

func decodePolyline(n *Node) (*Polyline, error) {
	v, ok := n.Get("value")
	if !ok {
		return nil, fmt.Errorf("%w: polyline without value", ErrMalformed)
	}
	flat, ok := v.AsFloats()
	if !ok || len(flat)%3 != 0 {
		return nil, fmt.Errorf("%w: polyline value is not a list of xyz triples", ErrMalformed)
	}
	u := units(n)
	p := &Polyline{Units: u}
	p.Closed, _ = n.GetBool("closed")
	for i := 0; i+2 < len(flat); i += 3 {
		p.Points = append(p.Points, &Point{X: flat[i], Y: flat[i+1], Z: flat[i+2], Units: u})
	}
	return p, nil
}

func decodeVector(n *Node, name string) r3.Vector {
	c, ok := n.GetNode(name)
	if !ok {
		return r3.Vector{}
	}
	x, _ := c.GetFloat("x")
	y, _ := c.GetFloat("y")
	z, _ := c.GetFloat("z")
	return r3.Vector{X: x, Y: y, Z: z}
}

func decodePlane(n *Node) (Plane, error) {
	c, ok := n.GetNode("plane")
	if !ok {
		return Plane{}, fmt.Errorf("%w: %s without plane", ErrMalformed, n.Type())
	}
	origin, err := childPoint(c, "origin")
	if err != nil {
		return Plane{}, err
	}
	p := Plane{
		Origin: origin,
		Normal: decodeVector(c, "normal"),
		XDir:   decodeVector(c, "xdir"),
		YDir:   decodeVector(c, "ydir"),
	}
	if p.Normal.Norm() == 0 {
		p = XYPlane(origin, 1)
	}
	return p, nil
}

func decodeArc(n *Node) (*Arc, error) {
	s, err := childPoint(n, "startPoint")
	if err != nil {
		return nil, err
	}
	m, err := childPoint(n, "midPoint")
	if err != nil {
		return nil, err
	}
	e, err := childPoint(n, "endPoint")
	if err != nil {
		return nil, err
	}
	a := &Arc{Start: s, Mid: m, End: e, Units: units(n)}
	a.Plane, _ = decodePlane(n)
	a.Radius, _ = n.GetFloat("radius")
	a.StartAngle, _ = n.GetFloat("startAngle")
	a.EndAngle, _ = n.GetFloat("endAngle")
	a.Angle, _ = n.GetFloat("angle")
	return a, nil
}

func decodeCircle(n *Node) (*Circle, error) {
	p, err := decodePlane(n)
	if err != nil {
		return nil, err
	}
	r, err := floatField(n, "radius")
	if err != nil {
		return nil, err
	}
	return &Circle{Plane: p, Radius: r, Units: units(n)}, nil
}

func decodeEllipse(n *Node) (*Ellipse, error) {
	p, err := decodePlane(n)
	if err != nil {
		return nil, err
	}
	r1, err := floatField(n, "firstRadius")
	if err != nil {
		return nil, err
	}
	r2, err := floatField(n, "secondRadius")
	if err != nil {
		return nil, err
	}
	return &Ellipse{Plane: p, FirstRadius: r1, SecondRadius: r2, Units: units(n)}, nil
}

func decodeList(n *Node, name string) ([]Geometry, error) {
	l, _ := n.GetList(name)
	out := make([]Geometry, 0, len(l))
	for _, v := range l {
		c, ok := v.AsNode()
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s holds a non node value", ErrMalformed, n.Type(), name)
		}
		g, err := DecodeGeometry(c)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func decodePolycurve(n *Node) (*Polycurve, error) {
	segs, err := decodeList(n, "segments")
	if err != nil {
		return nil, err
	}
	p := &Polycurve{Segments: segs, Units: units(n)}
	p.Closed, _ = n.GetBool("closed")
	return p, nil
}

func decodePolygon(n *Node) (*Polygon, error) {
	p := &Polygon{Units: units(n)}
	if b, ok := n.GetNode("boundary"); ok {
		g, err := DecodeGeometry(b)
		if err != nil {
			return nil, err
		}
		p.Boundary = g
	}
	voids, err := decodeList(n, "voids")
	if err != nil {
		return nil, err
	}
	p.Voids = voids
	meshes, err := decodeList(n, "displayValue")
	if err != nil {
		return nil, err
	}
	for _, m := range meshes {
		if mesh, ok := m.(*Mesh); ok {
			p.DisplayValue = append(p.DisplayValue, mesh)
		}
	}
	return p, nil
}
