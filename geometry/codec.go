// Package geometry converts host geometries to interchange primitives and
// back.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/mesh"
	"github.com/godeepar/geoxchange/transform"
)

// Display is the per-feature side channel attached to converted
// primitives.
type Display struct {
	FeatureID string
	Color     int32
	HasColor  bool
}

// Codec converts single geometries in both directions under one
// conversion context.
type Codec struct {
	Ctx *convert.ConversionContext
	// Mesh configures polygon display meshes.
	Mesh mesh.Options
	// Report receives the notes of degraded geometries; may be nil.
	Report *convert.Report
	// Curves keeps arcs and analytic curves on receive. Hosts without
	// curve support get them linearized.
	Curves bool

	units string
}

// New ...
func New(ctx *convert.ConversionContext, report *convert.Report) *Codec {
	c := &Codec{Ctx: ctx, Mesh: mesh.DefaultOptions(), Report: report, Curves: true}
	return c.init()
}

func (c *Codec) init() *Codec {
	if c.Ctx == nil {
		c.Ctx = convert.NewContext(transform.Pipeline{}, transform.Meters)
	}
	c.units = c.Ctx.UnitsSource
	if c.Ctx.Pipeline.NeedsReprojection() {
		c.units = c.Ctx.UnitsTarget
		if t := c.Ctx.Pipeline.Target; t.Units != "" && !t.IsGeographic() {
			c.units = transform.NormalizeUnits(t.Units)
		}
	}
	return c
}

// Units returns the units interchange coordinates are tagged with.
func (c *Codec) Units() string {
	return c.units
}

func (c *Codec) paint(g interchange.Geometry, d Display) interchange.Geometry {
	if d.HasColor {
		interchange.SetColor(g, d.Color)
		if m, ok := g.(*interchange.Mesh); ok && len(m.Colors) == 0 {
			m.Paint(d.Color)
		}
	}
	return g
}

// ToInterchange converts one host geometry. Multi-part geometries give one
// primitive per part.
func (c *Codec) ToInterchange(g host.Geometry, d Display) ([]interchange.Geometry, error) {
	if c.units == "" {
		c.init()
	}
	out, err := c.toInterchange(g, d)
	if err != nil {
		return nil, fmt.Errorf("[ToInterchange] in pkg [geometry] encountered: %w", err)
	}
	for _, p := range out {
		c.paint(p, d)
	}
	return out, nil
}

func (c *Codec) toInterchange(g host.Geometry, d Display) ([]interchange.Geometry, error) {
	switch t := g.(type) {
	case *host.Point:
		p, err := c.sendPoint(t.Coord)
		if err != nil {
			return nil, err
		}
		return []interchange.Geometry{p}, nil
	case *host.MultiPoint:
		pts, err := c.sendPoints(t.Points)
		if err != nil {
			return nil, err
		}
		out := make([]interchange.Geometry, len(pts))
		for i, p := range pts {
			out[i] = p
		}
		return out, nil
	case *host.LineString:
		pl, err := c.polyline(t.Vertices)
		if err != nil {
			return nil, err
		}
		return []interchange.Geometry{pl}, nil
	case *host.MultiLineString:
		out := make([]interchange.Geometry, 0, len(t.Lines))
		for _, l := range t.Lines {
			pl, err := c.polyline(l.Vertices)
			if err != nil {
				return nil, err
			}
			out = append(out, pl)
		}
		return out, nil
	case *host.CircularString, *host.CompoundCurve:
		curve, err := c.curve(t.(host.Curve), d)
		if err != nil {
			return nil, err
		}
		return []interchange.Geometry{curve}, nil
	case *host.Polygon:
		p, err := c.polygon(t.Rings, d)
		if err != nil {
			return nil, err
		}
		return []interchange.Geometry{p}, nil
	case *host.MultiPolygon:
		out := make([]interchange.Geometry, 0, len(t.Polygons))
		for _, part := range t.Polygons {
			p, err := c.polygon(part.Rings, d)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	case *host.CurvePolygon:
		p, err := c.curvePolygon(t, d)
		if err != nil {
			return nil, err
		}
		return []interchange.Geometry{p}, nil
	case *host.Circle:
		plane, r, _, err := c.sendAxes(t.Center, t.Radius, 0, t.Radius)
		if err != nil {
			return nil, err
		}
		return []interchange.Geometry{&interchange.Circle{Plane: plane, Radius: r, Units: c.units}}, nil
	case *host.Ellipse:
		plane, r1, r2, err := c.sendAxes(t.Center, t.SemiMajor, t.Rotation, t.SemiMinor)
		if err != nil {
			return nil, err
		}
		return []interchange.Geometry{&interchange.Ellipse{Plane: plane, FirstRadius: r1, SecondRadius: r2, Units: c.units}}, nil
	case *host.PolyhedralSurface:
		m, err := c.surface(t)
		if err != nil {
			return nil, err
		}
		return []interchange.Geometry{m}, nil
	case nil:
		return nil, fmt.Errorf("%w: no geometry", convert.ErrUnsupportedGeometry)
	}
	return nil, fmt.Errorf("%w: %s", convert.ErrUnsupportedGeometry, g.GeometryType())
}

// polyline converts a vertex run; a run repeating its first vertex becomes
// a closed polyline without the repeat.
func (c *Codec) polyline(cs []host.Coord) (*interchange.Polyline, error) {
	closed := host.IsClosed(cs) && len(cs) > 2
	if closed {
		cs = cs[:len(cs)-1]
	}
	pts, err := c.sendPoints(cs)
	if err != nil {
		return nil, err
	}
	return &interchange.Polyline{Points: pts, Closed: closed, Units: c.units}, nil
}

// sendAxes maps a center with a rotated pair of axes. The axis end points go
// through the pipeline as well, so the frame rotation and any reprojection
// scale are carried by the plane and the radii.
func (c *Codec) sendAxes(center host.Coord, r1, rotation, r2 float64) (interchange.Plane, float64, float64, error) {
	o, err := c.sendCoord(center)
	if err != nil {
		return interchange.Plane{}, 0, 0, err
	}
	s, co := math.Sincos(rotation)
	a1, err := c.sendCoord(host.Coord{X: center.X + r1*co, Y: center.Y + r1*s, Z: center.Z})
	if err != nil {
		return interchange.Plane{}, 0, 0, err
	}
	a2, err := c.sendCoord(host.Coord{X: center.X - r2*s, Y: center.Y + r2*co, Z: center.Z})
	if err != nil {
		return interchange.Plane{}, 0, 0, err
	}
	xdir := a1.Sub(o)
	ydir := a2.Sub(o)
	if xdir.Norm() == 0 || ydir.Norm() == 0 {
		return interchange.Plane{}, 0, 0, fmt.Errorf("%w: zero radius", convert.ErrDegenerateGeometry)
	}
	plane := interchange.Plane{
		Origin: interchange.PointFromVector(o, c.units),
		Normal: r3.Vector{Z: 1},
		XDir:   xdir.Normalize(),
		YDir:   ydir.Normalize(),
	}
	return plane, xdir.Norm(), ydir.Norm(), nil
}

// curve converts a host curve into a Polycurve. Straight runs, including
// consecutive line strings, merge into one Polyline (two vertices become a
// Line); every circular triple becomes an Arc. A single arc or a single
// straight run is returned bare.
func (c *Codec) curve(hc host.Curve, d Display) (interchange.Geometry, error) {
	var parts []host.Curve
	switch t := hc.(type) {
	case *host.CompoundCurve:
		parts = t.Segments
	default:
		parts = []host.Curve{hc}
	}

	pc := &interchange.Polycurve{Units: c.units}
	var run []*interchange.Point
	flush := func() {
		switch {
		case len(run) == 2:
			pc.Segments = append(pc.Segments, &interchange.Line{Start: run[0], End: run[1], Units: c.units})
		case len(run) > 2:
			pc.Segments = append(pc.Segments, &interchange.Polyline{Points: run, Units: c.units})
		}
		run = nil
	}
	extend := func(pts []*interchange.Point) {
		if len(run) > 0 && len(pts) > 0 {
			pts = pts[1:]
		}
		run = append(run, pts...)
	}

	for _, part := range parts {
		pts, err := c.sendPoints(part.Coords())
		if err != nil {
			return nil, err
		}
		switch part.(type) {
		case *host.LineString:
			if len(run) == 0 && len(pc.Segments) > 0 {
				// continue from the end of the previous arc
				run = []*interchange.Point{lastPoint(pc.Segments[len(pc.Segments)-1])}
			}
			extend(pts)
		case *host.CircularString:
			if len(pts) < 3 || len(pts)%2 == 0 {
				return nil, fmt.Errorf("%w: circular string with %d vertices", convert.ErrDegenerateGeometry, len(pts))
			}
			for i := 0; i+2 < len(pts); i += 2 {
				arc, err := ArcFromPoints(pts[i], pts[i+1], pts[i+2])
				if err != nil {
					// keep the triple as a straight run
					c.Report.Add(d.FeatureID, err)
					if len(run) == 0 {
						run = []*interchange.Point{pts[i]}
					}
					run = append(run, pts[i+1], pts[i+2])
					continue
				}
				flush()
				pc.Segments = append(pc.Segments, arc)
			}
		default:
			return nil, fmt.Errorf("%w: %s inside a compound curve", convert.ErrUnsupportedGeometry, part.GeometryType())
		}
	}
	flush()

	if len(pc.Segments) == 0 {
		return nil, fmt.Errorf("%w: empty curve", convert.ErrDegenerateGeometry)
	}
	first, last := firstPoint(pc.Segments[0]), lastPoint(pc.Segments[len(pc.Segments)-1])
	pc.Closed = first != nil && last != nil && first.Vector() == last.Vector()
	if _, compound := hc.(*host.CompoundCurve); !compound && len(pc.Segments) == 1 {
		return pc.Segments[0], nil
	}
	return pc, nil
}

func firstPoint(g interchange.Geometry) *interchange.Point {
	switch t := g.(type) {
	case *interchange.Line:
		return t.Start
	case *interchange.Arc:
		return t.Start
	case *interchange.Polyline:
		if len(t.Points) > 0 {
			return t.Points[0]
		}
	}
	return nil
}

func lastPoint(g interchange.Geometry) *interchange.Point {
	switch t := g.(type) {
	case *interchange.Line:
		return t.End
	case *interchange.Arc:
		return t.End
	case *interchange.Polyline:
		if len(t.Points) > 0 {
			if t.Closed {
				return t.Points[0]
			}
			return t.Points[len(t.Points)-1]
		}
	}
	return nil
}

// ring converts a polygon ring: a closed Polyline, or a closed Polycurve
// for curved rings.
func (c *Codec) ring(hc host.Curve, d Display) (interchange.Geometry, error) {
	if ls, ok := hc.(*host.LineString); ok {
		pl, err := c.polyline(closeRing(append([]host.Coord(nil), ls.Vertices...)))
		if err != nil {
			return nil, err
		}
		return pl, nil
	}
	g, err := c.curve(hc, d)
	if err != nil {
		return nil, err
	}
	if pc, ok := g.(*interchange.Polycurve); ok {
		pc.Closed = true
		return pc, nil
	}
	return &interchange.Polycurve{Segments: []interchange.Geometry{g}, Closed: true, Units: c.units}, nil
}

func (c *Codec) polygon(rings [][]host.Coord, d Display) (*interchange.Polygon, error) {
	if len(rings) == 0 {
		return nil, fmt.Errorf("%w: polygon without rings", convert.ErrDegenerateGeometry)
	}
	curves := make([]host.Curve, len(rings))
	for i, r := range rings {
		curves[i] = &host.LineString{Vertices: r}
	}
	return c.buildPolygon(curves[0], curves[1:], d)
}

func (c *Codec) curvePolygon(p *host.CurvePolygon, d Display) (*interchange.Polygon, error) {
	if p.Exterior == nil {
		return nil, fmt.Errorf("%w: curve polygon without exterior", convert.ErrDegenerateGeometry)
	}
	return c.buildPolygon(p.Exterior, p.Interiors, d)
}

// buildPolygon converts the rings and attaches the display mesh. A failed
// mesh leaves the polygon with its boundary and voids only.
func (c *Codec) buildPolygon(exterior host.Curve, interiors []host.Curve, d Display) (*interchange.Polygon, error) {
	boundary, err := c.ring(exterior, d)
	if err != nil {
		return nil, err
	}
	p := &interchange.Polygon{Boundary: boundary, Units: c.units}
	for _, in := range interiors {
		v, err := c.ring(in, d)
		if err != nil {
			return nil, err
		}
		p.Voids = append(p.Voids, v)
	}

	m, err := c.displayMesh(p, d)
	switch {
	case err == nil:
		p.DisplayValue = []*interchange.Mesh{m}
	case errors.Is(err, convert.ErrMeshFailure), errors.Is(err, convert.ErrDegenerateGeometry):
		c.Report.Add(d.FeatureID, err)
	default:
		return nil, err
	}
	return p, nil
}

// displayMesh meshes the linearized rings of p.
func (c *Codec) displayMesh(p *interchange.Polygon, d Display) (*interchange.Mesh, error) {
	boundary, _, ok := Linearize(p.Boundary)
	if !ok {
		return nil, fmt.Errorf("%w: polygon boundary is a %s", convert.ErrUnsupportedGeometry, p.Boundary.GeometryType())
	}
	var holes [][]r3.Vector
	for _, v := range p.Voids {
		h, _, ok := Linearize(v)
		if !ok {
			return nil, fmt.Errorf("%w: polygon void is a %s", convert.ErrUnsupportedGeometry, v.GeometryType())
		}
		holes = append(holes, h)
	}
	opts := c.Mesh
	opts.Units = c.units
	opts.Color, opts.HasColor = d.Color, d.HasColor
	return mesh.BuildDisplayMesh(boundary, holes, opts)
}

// surface converts every patch into one mesh face.
func (c *Codec) surface(s *host.PolyhedralSurface) (*interchange.Mesh, error) {
	m := &interchange.Mesh{Units: c.units}
	for i, patch := range s.Patches {
		patch = openRing(patch)
		if len(patch) < 3 {
			c.Report.Addf("", convert.ErrDegenerateGeometry, "patch %d has %d vertices", i, len(patch))
			continue
		}
		face := make([]int32, len(patch))
		for j, hc := range patch {
			v, err := c.sendCoord(hc)
			if err != nil {
				return nil, err
			}
			face[j] = m.AddVertex(v)
		}
		m.AddFace(face...)
	}
	if m.VertexCount() == 0 {
		return nil, fmt.Errorf("%w: surface without patches", convert.ErrDegenerateGeometry)
	}
	return m, nil
}
