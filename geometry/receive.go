package geometry

import (
	"fmt"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
)

// ToHost converts one interchange primitive back into a host geometry.
func (c *Codec) ToHost(g interchange.Geometry) (host.Geometry, error) {
	if c.Ctx == nil {
		c.init()
	}
	out, err := c.toHost(g)
	if err != nil {
		return nil, fmt.Errorf("[ToHost] in pkg [geometry] encountered: %w", err)
	}
	return out, nil
}

func (c *Codec) toHost(g interchange.Geometry) (host.Geometry, error) {
	switch t := g.(type) {
	case *interchange.Point:
		hc, err := c.receivePoint(t, t.Units)
		if err != nil {
			return nil, err
		}
		return &host.Point{Coord: hc}, nil
	case *interchange.Line, *interchange.Polyline:
		cs, err := c.receiveStraight(t)
		if err != nil {
			return nil, err
		}
		return &host.LineString{Vertices: cs}, nil
	case *interchange.Arc, *interchange.Polycurve:
		if !c.Curves {
			return c.linearLine(t)
		}
		return c.receiveCurve(t)
	case *interchange.Circle, *interchange.Ellipse:
		if !c.Curves {
			ring, err := c.linearRing(t)
			if err != nil {
				return nil, err
			}
			return &host.Polygon{Rings: [][]host.Coord{ring}}, nil
		}
		return c.receiveConic(t)
	case *interchange.Mesh:
		return c.receiveMesh(t)
	case *interchange.Polygon:
		return c.receivePolygon(t)
	case nil:
		return nil, fmt.Errorf("%w: no geometry", convert.ErrUnsupportedGeometry)
	}
	return nil, fmt.Errorf("%w: %s", convert.ErrUnsupportedGeometry, g.GeometryType())
}

// receiveStraight converts a Line or Polyline; a closed polyline gets its
// first vertex repeated at the end.
func (c *Codec) receiveStraight(g interchange.Geometry) ([]host.Coord, error) {
	switch t := g.(type) {
	case *interchange.Line:
		s, err := c.receivePoint(t.Start, t.Units)
		if err != nil {
			return nil, err
		}
		e, err := c.receivePoint(t.End, t.Units)
		if err != nil {
			return nil, err
		}
		return []host.Coord{s, e}, nil
	case *interchange.Polyline:
		cs := make([]host.Coord, 0, len(t.Points)+1)
		for _, p := range t.Points {
			hc, err := c.receivePoint(p, t.Units)
			if err != nil {
				return nil, err
			}
			cs = append(cs, hc)
		}
		if t.Closed {
			cs = closeRing(cs)
		}
		return cs, nil
	}
	return nil, fmt.Errorf("%w: %s is not straight", convert.ErrUnsupportedGeometry, g.GeometryType())
}

func unitsOf(g interchange.Geometry) string {
	switch t := g.(type) {
	case *interchange.Point:
		return t.Units
	case *interchange.Line:
		return t.Units
	case *interchange.Polyline:
		return t.Units
	case *interchange.Arc:
		return t.Units
	case *interchange.Circle:
		return t.Units
	case *interchange.Ellipse:
		return t.Units
	case *interchange.Polycurve:
		return t.Units
	case *interchange.Mesh:
		return t.Units
	case *interchange.Polygon:
		return t.Units
	}
	return ""
}

// linearLine samples a curve into a line string.
func (c *Codec) linearLine(g interchange.Geometry) (*host.LineString, error) {
	pts, closed, ok := Linearize(g)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a curve", convert.ErrUnsupportedGeometry, g.GeometryType())
	}
	cs, err := c.receiveVectors(pts, unitsOf(g))
	if err != nil {
		return nil, err
	}
	if closed {
		cs = closeRing(cs)
	}
	return &host.LineString{Vertices: cs}, nil
}

// linearRing samples a closed curve into a closed host ring.
func (c *Codec) linearRing(g interchange.Geometry) ([]host.Coord, error) {
	pts, _, ok := Linearize(g)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a curve", convert.ErrUnsupportedGeometry, g.GeometryType())
	}
	cs, err := c.receiveVectors(pts, unitsOf(g))
	if err != nil {
		return nil, err
	}
	return closeRing(cs), nil
}

func (c *Codec) receiveArc(a *interchange.Arc, units string) (*host.CircularString, error) {
	if a.Units != "" {
		units = a.Units
	}
	cs := make([]host.Coord, 3)
	for i, p := range []*interchange.Point{a.Start, a.Mid, a.End} {
		hc, err := c.receivePoint(p, units)
		if err != nil {
			return nil, err
		}
		cs[i] = hc
	}
	return &host.CircularString{Vertices: cs}, nil
}

// receiveCurve rebuilds a CircularString from an Arc or an arcs-only
// Polycurve, and a CompoundCurve from any other Polycurve. Consecutive
// arcs share one circular string part.
func (c *Codec) receiveCurve(g interchange.Geometry) (host.Curve, error) {
	if a, ok := g.(*interchange.Arc); ok {
		return c.receiveArc(a, a.Units)
	}
	pc := g.(*interchange.Polycurve)
	cc := &host.CompoundCurve{}
	var arcs *host.CircularString
	for _, s := range pc.Segments {
		switch t := s.(type) {
		case *interchange.Arc:
			cs, err := c.receiveArc(t, pc.Units)
			if err != nil {
				return nil, err
			}
			if arcs != nil {
				arcs.Vertices = append(arcs.Vertices, cs.Vertices[1:]...)
				continue
			}
			arcs = cs
			cc.Segments = append(cc.Segments, arcs)
		case *interchange.Line, *interchange.Polyline:
			arcs = nil
			cs, err := c.receiveStraight(t)
			if err != nil {
				return nil, err
			}
			cc.Segments = append(cc.Segments, &host.LineString{Vertices: cs})
		case *interchange.Circle, *interchange.Ellipse:
			arcs = nil
			ring, err := c.linearRing(t)
			if err != nil {
				return nil, err
			}
			cc.Segments = append(cc.Segments, &host.LineString{Vertices: ring})
		default:
			return nil, fmt.Errorf("%w: %s inside a polycurve", convert.ErrUnsupportedGeometry, s.GeometryType())
		}
	}
	if len(cc.Segments) == 1 {
		if cs, ok := cc.Segments[0].(*host.CircularString); ok {
			return cs, nil
		}
	}
	return cc, nil
}

func (c *Codec) receiveConic(g interchange.Geometry) (host.Geometry, error) {
	var (
		plane  interchange.Plane
		r1, r2 float64
		units  string
	)
	switch t := g.(type) {
	case *interchange.Circle:
		plane, r1, r2, units = t.Plane, t.Radius, t.Radius, t.Units
	case *interchange.Ellipse:
		plane, r1, r2, units = t.Plane, t.FirstRadius, t.SecondRadius, t.Units
	}
	if plane.Origin == nil {
		return nil, fmt.Errorf("%w: %s without origin", interchange.ErrMalformed, g.GeometryType())
	}
	o := plane.Origin.Vector()
	xdir := plane.XDir
	if xdir.Norm() == 0 {
		xdir.X = 1
	}
	xdir = xdir.Normalize()
	ydir := plane.YDir
	if ydir.Norm() == 0 {
		ydir.X, ydir.Y = -xdir.Y, xdir.X
	}
	ydir = ydir.Normalize()

	center, err := c.receiveVector(o, units)
	if err != nil {
		return nil, err
	}
	a1, err := c.receiveVector(o.Add(xdir.Mul(r1)), units)
	if err != nil {
		return nil, err
	}
	a2, err := c.receiveVector(o.Add(ydir.Mul(r2)), units)
	if err != nil {
		return nil, err
	}
	major := hypot(a1, center)
	minor := hypot(a2, center)
	if _, ok := g.(*interchange.Circle); ok {
		return &host.Circle{Center: center, Radius: major}, nil
	}
	return &host.Ellipse{Center: center, SemiMajor: major, SemiMinor: minor, Rotation: atan2(a1, center)}, nil
}

func (c *Codec) receiveMesh(m *interchange.Mesh) (*host.PolyhedralSurface, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	s := &host.PolyhedralSurface{}
	err := m.EachFace(func(face []int32) error {
		patch := make([]host.Coord, len(face))
		for i, idx := range face {
			hc, err := c.receiveVector(m.Vertex(int(idx)), m.Units)
			if err != nil {
				return err
			}
			patch[i] = hc
		}
		s.Patches = append(s.Patches, patch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// receivePolygon rebuilds a Polygon, or a CurvePolygon when a ring is
// curved and the host supports curves. A polygon without boundary falls
// back to its display meshes.
func (c *Codec) receivePolygon(p *interchange.Polygon) (host.Geometry, error) {
	if p.Boundary == nil {
		if len(p.DisplayValue) == 0 {
			return nil, fmt.Errorf("%w: polygon without boundary", interchange.ErrMalformed)
		}
		s := &host.PolyhedralSurface{}
		for _, m := range p.DisplayValue {
			part, err := c.receiveMesh(m)
			if err != nil {
				return nil, err
			}
			s.Patches = append(s.Patches, part.Patches...)
		}
		return s, nil
	}

	rings := append([]interchange.Geometry{p.Boundary}, p.Voids...)
	curved := false
	for _, r := range rings {
		switch r.(type) {
		case *interchange.Line, *interchange.Polyline:
		default:
			curved = true
		}
	}

	if curved && c.Curves {
		cp := &host.CurvePolygon{}
		for i, r := range rings {
			var (
				hc  host.Curve
				err error
			)
			switch t := r.(type) {
			case *interchange.Line, *interchange.Polyline:
				var cs []host.Coord
				cs, err = c.receiveStraight(t)
				hc = &host.LineString{Vertices: closeRing(cs)}
			case *interchange.Arc, *interchange.Polycurve:
				hc, err = c.receiveCurve(t)
			default:
				var cs []host.Coord
				cs, err = c.linearRing(t)
				hc = &host.LineString{Vertices: cs}
			}
			if err != nil {
				return nil, err
			}
			if i == 0 {
				cp.Exterior = hc
			} else {
				cp.Interiors = append(cp.Interiors, hc)
			}
		}
		return cp, nil
	}

	out := &host.Polygon{}
	for _, r := range rings {
		var (
			cs  []host.Coord
			err error
		)
		switch t := r.(type) {
		case *interchange.Line, *interchange.Polyline:
			cs, err = c.receiveStraight(t)
			cs = closeRing(cs)
		default:
			cs, err = c.linearRing(t)
		}
		if err != nil {
			return nil, err
		}
		out.Rings = append(out.Rings, cs)
	}
	return out, nil
}

// MergeHost joins the host geometries of one feature into a single
// geometry: one part stays bare, several parts of one family become the
// matching Multi container.
func MergeHost(parts []host.Geometry) (host.Geometry, error) {
	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return parts[0], nil
	}
	var (
		points   []host.Coord
		lines    []*host.LineString
		polygons []*host.Polygon
		patches  [][]host.Coord
		families = map[string]bool{}
	)
	for _, p := range parts {
		switch t := p.(type) {
		case *host.Point:
			points = append(points, t.Coord)
		case *host.MultiPoint:
			points = append(points, t.Points...)
		case *host.LineString:
			lines = append(lines, t)
		case *host.MultiLineString:
			lines = append(lines, t.Lines...)
		case *host.Polygon:
			polygons = append(polygons, t)
		case *host.MultiPolygon:
			polygons = append(polygons, t.Polygons...)
		case *host.PolyhedralSurface:
			patches = append(patches, t.Patches...)
		default:
			return nil, fmt.Errorf("%w: cannot merge %s parts", convert.ErrUnsupportedGeometry, p.GeometryType())
		}
		families[host.KindOf(p)] = true
	}
	if len(families) > 1 {
		return nil, fmt.Errorf("%w: mixed geometry families", convert.ErrUnsupportedGeometry)
	}
	switch {
	case len(points) > 0:
		return &host.MultiPoint{Points: points}, nil
	case len(lines) > 0:
		return &host.MultiLineString{Lines: lines}, nil
	case len(polygons) > 0:
		return &host.MultiPolygon{Polygons: polygons}, nil
	}
	return &host.PolyhedralSurface{Patches: patches}, nil
}
