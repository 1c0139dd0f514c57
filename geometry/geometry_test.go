package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/transform"
)

func framed() *Codec {
	p := transform.Pipeline{Frame: transform.Frame{OffsetX: 100, OffsetY: -50, RotationDeg: 30}}
	return New(convert.NewContext(p, transform.Meters), convert.NewReport())
}

func pt(x, y float64) *interchange.Point {
	return &interchange.Point{X: x, Y: y, Units: transform.Meters}
}

func TestArcFromPoints(t *testing.T) {
	require := require.New(t)

	arc, err := ArcFromPoints(pt(-5, 0), pt(0, 5), pt(5, 0))
	require.NoError(err)
	c := Center(arc)
	require.InDelta(0, c.X, 1e-12)
	require.InDelta(0, c.Y, 1e-12)
	require.InDelta(5, arc.Radius, 1e-12)
	require.InDelta(math.Pi, arc.Angle, 1e-12)
	require.True(clockwise(arc))

	ccw, err := ArcFromPoints(pt(5, 0), pt(0, 5), pt(-5, 0))
	require.NoError(err)
	require.False(clockwise(ccw))
	require.InDelta(math.Pi, ccw.Angle, 1e-12)

	major, err := ArcFromPoints(pt(5, 0), pt(0, -5), pt(0, 5))
	require.NoError(err)
	require.InDelta(3*math.Pi/2, major.Angle, 1e-12)

	_, err = ArcFromPoints(pt(0, 0), pt(1, 1), pt(2, 2))
	require.ErrorIs(err, convert.ErrDegenerateGeometry)
	_, err = ArcFromPoints(pt(1, 1), pt(1, 1), pt(1, 1))
	require.ErrorIs(err, convert.ErrDegenerateGeometry)
}

func TestSampling(t *testing.T) {
	require := require.New(t)

	require.Equal(4, Segments(0.5))
	require.Equal(36, Segments(math.Pi))
	require.Equal(72, Segments(2*math.Pi))

	arc, err := ArcFromPoints(pt(-5, 0), pt(0, 5), pt(5, 0))
	require.NoError(err)
	pts := SampleArc(arc)
	require.Len(pts, 37)
	require.Equal(arc.Start.Vector(), pts[0])
	require.Equal(arc.End.Vector(), pts[36])
	for _, p := range pts {
		require.InDelta(5, math.Hypot(p.X, p.Y), 1e-9)
		require.GreaterOrEqual(p.Y, -1e-9, "clockwise over the top")
	}

	ring := SampleCircle(&interchange.Circle{Plane: interchange.XYPlane(pt(1, 1), 1), Radius: 2})
	require.Len(ring, 72)
	require.InDelta(3, ring[0].X, 1e-12)
}

// coords flattens every vertex of a host geometry.
func coords(g host.Geometry) []host.Coord {
	switch t := g.(type) {
	case *host.Point:
		return []host.Coord{t.Coord}
	case *host.MultiPoint:
		return t.Points
	case *host.LineString:
		return t.Vertices
	case *host.CircularString:
		return t.Vertices
	case *host.CompoundCurve:
		var out []host.Coord
		for _, s := range t.Segments {
			out = append(out, coords(s)...)
		}
		return out
	case *host.MultiLineString:
		var out []host.Coord
		for _, l := range t.Lines {
			out = append(out, l.Vertices...)
		}
		return out
	case *host.Polygon:
		var out []host.Coord
		for _, r := range t.Rings {
			out = append(out, r...)
		}
		return out
	case *host.MultiPolygon:
		var out []host.Coord
		for _, p := range t.Polygons {
			out = append(out, coords(p)...)
		}
		return out
	case *host.CurvePolygon:
		out := coords(t.Exterior)
		for _, in := range t.Interiors {
			out = append(out, coords(in)...)
		}
		return out
	case *host.Circle:
		return []host.Coord{t.Center, {X: t.Radius}}
	case *host.Ellipse:
		return []host.Coord{t.Center, {X: t.SemiMajor, Y: t.SemiMinor, Z: t.Rotation}}
	case *host.PolyhedralSurface:
		var out []host.Coord
		for _, p := range t.Patches {
			out = append(out, p...)
		}
		return out
	}
	return nil
}

func requireSame(t *testing.T, want, got host.Geometry) {
	t.Helper()
	require.Equal(t, want.GeometryType(), got.GeometryType())
	wc, gc := coords(want), coords(got)
	require.Len(t, gc, len(wc))
	for i := range wc {
		require.InDelta(t, wc[i].X, gc[i].X, 1e-9, "x of vertex %d", i)
		require.InDelta(t, wc[i].Y, gc[i].Y, 1e-9, "y of vertex %d", i)
		require.InDelta(t, wc[i].Z, gc[i].Z, 1e-9, "z of vertex %d", i)
	}
}

func TestRoundTrip(t *testing.T) {
	square := []host.Coord{{X: 4, Y: 4, Z: 1}, {X: -4, Y: 4, Z: 1}, {X: -4, Y: -4, Z: 1}, {X: 4, Y: -4, Z: 1}, {X: 4, Y: 4, Z: 1}}
	hole := []host.Coord{{X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: -1}, {X: -1, Y: 1}, {X: 1, Y: 1}}
	cases := []struct {
		name string
		geom host.Geometry
	}{
		{"point", &host.Point{Coord: host.Coord{X: 12, Y: 34, Z: 5}}},
		{"multipoint", &host.MultiPoint{Points: []host.Coord{{X: 1, Y: 2}, {X: 3, Y: 4}}}},
		{"linestring", &host.LineString{Vertices: []host.Coord{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}}},
		{"ring", &host.LineString{Vertices: square}},
		{"multilinestring", &host.MultiLineString{Lines: []*host.LineString{
			{Vertices: []host.Coord{{X: 0, Y: 0}, {X: 1, Y: 1}}},
			{Vertices: []host.Coord{{X: 2, Y: 2}, {X: 3, Y: 3}}},
		}}},
		{"polygon", &host.Polygon{Rings: [][]host.Coord{square, hole}}},
		{"multipolygon", &host.MultiPolygon{Polygons: []*host.Polygon{
			{Rings: [][]host.Coord{square}},
			{Rings: [][]host.Coord{hole}},
		}}},
		{"circularstring", &host.CircularString{Vertices: []host.Coord{{X: -5}, {Y: 5}, {X: 5}, {X: 10, Y: -5}, {X: 15}}}},
		{"compoundcurve", &host.CompoundCurve{Segments: []host.Curve{
			&host.LineString{Vertices: []host.Coord{{X: -10}, {X: -5}}},
			&host.CircularString{Vertices: []host.Coord{{X: -5}, {Y: 5}, {X: 5}}},
			&host.LineString{Vertices: []host.Coord{{X: 5}, {X: 10}, {X: 10, Y: -3}}},
		}}},
		{"curvepolygon", &host.CurvePolygon{
			Exterior: &host.CompoundCurve{Segments: []host.Curve{
				&host.CircularString{Vertices: []host.Coord{{X: -5}, {Y: 5}, {X: 5}}},
				&host.LineString{Vertices: []host.Coord{{X: 5}, {X: -5}}},
			}},
			Interiors: []host.Curve{&host.LineString{Vertices: []host.Coord{{X: 1, Y: 1}, {X: 1, Y: 3}, {X: -1, Y: 3}, {X: -1, Y: 1}, {X: 1, Y: 1}}}},
		}},
		{"circle", &host.Circle{Center: host.Coord{X: 3, Y: 4, Z: 2}, Radius: 2.5}},
		{"ellipse", &host.Ellipse{Center: host.Coord{X: 3, Y: 4}, SemiMajor: 5, SemiMinor: 2, Rotation: 0.3}},
		{"surface", &host.PolyhedralSurface{Patches: [][]host.Coord{
			{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
			{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 0.5}},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := framed()
			prims, err := c.ToInterchange(tc.geom, Display{FeatureID: tc.name})
			require.NoError(t, err)
			require.NotEmpty(t, prims)

			parts := make([]host.Geometry, len(prims))
			for i, p := range prims {
				// primitives survive their node encoding
				decoded, err := interchange.DecodeGeometry(p.Node())
				require.NoError(t, err)
				parts[i], err = c.ToHost(decoded)
				require.NoError(t, err)
			}
			back, err := MergeHost(parts)
			require.NoError(t, err)
			requireSame(t, tc.geom, back)
		})
	}
}

func TestClosedPolyline(t *testing.T) {
	require := require.New(t)

	c := framed()
	ring := &host.LineString{Vertices: []host.Coord{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}}
	prims, err := c.ToInterchange(ring, Display{})
	require.NoError(err)
	pl := prims[0].(*interchange.Polyline)
	require.True(pl.Closed)
	require.Len(pl.Points, 3)

	back, err := c.ToHost(pl)
	require.NoError(err)
	require.Len(back.(*host.LineString).Vertices, 4)

	// converting again does not add a second closing vertex
	again, err := c.ToInterchange(back, Display{})
	require.NoError(err)
	require.Len(again[0].(*interchange.Polyline).Points, 3)
}

func TestCompoundDecomposition(t *testing.T) {
	require := require.New(t)

	c := New(nil, nil)
	cc := &host.CompoundCurve{Segments: []host.Curve{
		&host.LineString{Vertices: []host.Coord{{X: 0}, {X: 1}}},
		&host.LineString{Vertices: []host.Coord{{X: 1}, {X: 2}, {X: 3}}},
		&host.CircularString{Vertices: []host.Coord{{X: 3}, {X: 4, Y: 1}, {X: 5}, {X: 6, Y: -1}, {X: 7}}},
		&host.LineString{Vertices: []host.Coord{{X: 7}, {X: 8}}},
	}}
	prims, err := c.ToInterchange(cc, Display{})
	require.NoError(err)
	pc, ok := prims[0].(*interchange.Polycurve)
	require.True(ok)
	require.Len(pc.Segments, 4)
	require.Len(pc.Segments[0].(*interchange.Polyline).Points, 4)
	require.IsType(&interchange.Arc{}, pc.Segments[1])
	require.IsType(&interchange.Arc{}, pc.Segments[2])
	line, ok := pc.Segments[3].(*interchange.Line)
	require.True(ok)
	require.Equal(7.0, line.Start.X)
	require.False(pc.Closed)
}

func TestDegenerateArcBecomesStraight(t *testing.T) {
	require := require.New(t)

	report := convert.NewReport()
	c := New(nil, report)
	prims, err := c.ToInterchange(&host.CircularString{Vertices: []host.Coord{{X: 0}, {X: 1}, {X: 2}}}, Display{FeatureID: "f1"})
	require.NoError(err)
	require.IsType(&interchange.Polyline{}, prims[0])
	require.Equal(1, report.Count(convert.ErrDegenerateGeometry))
	require.Equal("f1", report.Notes[0].FeatureID)
}

func TestPolygonDisplay(t *testing.T) {
	require := require.New(t)

	report := convert.NewReport()
	c := New(nil, report)
	color := interchange.ARGB(255, 200, 10, 10)
	square := []host.Coord{{X: 4, Y: 4}, {X: -4, Y: 4}, {X: -4, Y: -4}, {X: 4, Y: -4}, {X: 4, Y: 4}}
	prims, err := c.ToInterchange(&host.Polygon{Rings: [][]host.Coord{square}}, Display{Color: color, HasColor: true})
	require.NoError(err)
	p := prims[0].(*interchange.Polygon)
	require.Len(p.DisplayValue, 1)
	require.Equal(1, p.DisplayValue[0].FaceCount())
	require.Len(p.DisplayValue[0].Colors, 4)
	got, ok := interchange.ColorOf(p)
	require.True(ok)
	require.Equal(color, got)

	flat := []host.Coord{{X: 0}, {X: 1}, {X: 2}, {X: 0}}
	prims, err = c.ToInterchange(&host.Polygon{Rings: [][]host.Coord{flat}}, Display{FeatureID: "flat"})
	require.NoError(err)
	p = prims[0].(*interchange.Polygon)
	require.Empty(p.DisplayValue)
	require.NotNil(p.Boundary)
	require.Equal(1, report.Count(convert.ErrDegenerateGeometry))
}

func TestLinearizeOnReceive(t *testing.T) {
	require := require.New(t)

	c := New(nil, nil)
	c.Curves = false
	arc, err := ArcFromPoints(pt(-5, 0), pt(0, 5), pt(5, 0))
	require.NoError(err)
	g, err := c.ToHost(arc)
	require.NoError(err)
	require.Len(g.(*host.LineString).Vertices, 37)

	g, err = c.ToHost(&interchange.Circle{Plane: interchange.XYPlane(pt(0, 0), 1), Radius: 1, Units: transform.Meters})
	require.NoError(err)
	ring := g.(*host.Polygon).Rings[0]
	require.Len(ring, 73)
	require.True(host.IsClosed(ring))
}

func TestReceiveScalesUnits(t *testing.T) {
	require := require.New(t)

	c := New(nil, nil)
	g, err := c.ToHost(&interchange.Point{X: 10, Y: 20, Z: 1, Units: transform.Feet})
	require.NoError(err)
	p := g.(*host.Point)
	require.InDelta(3.048, p.X, 1e-12)
	require.InDelta(6.096, p.Y, 1e-12)
	require.InDelta(0.3048, p.Z, 1e-12)
}

func TestReprojectedPoint(t *testing.T) {
	require := require.New(t)

	ctx := convert.NewContext(transform.Pipeline{Source: transform.WGS84, Target: transform.WebMercator}, transform.Meters)
	c := New(ctx, nil)
	prims, err := c.ToInterchange(&host.Point{Coord: host.Coord{X: -111, Y: 40}}, Display{})
	require.NoError(err)
	p := prims[0].(*interchange.Point)
	require.InDelta(-12356463.48, p.X, 1)

	back, err := c.ToHost(p)
	require.NoError(err)
	require.InDelta(-111, back.(*host.Point).X, 1e-6)
	require.InDelta(40, back.(*host.Point).Y, 1e-6)
}

var stateFeet = transform.CRS{Name: "NAD83 / New York Long Island (ftUS)", AuthID: "EPSG:2263", Units: transform.Feet}

// scaledReprojector multiplies coordinates leaving stateFeet by k and
// divides those coming back.
func scaledReprojector(k float64) transform.Reprojector {
	return transform.ReprojectorFunc(func(x, y float64, from, to transform.CRS) (float64, float64, error) {
		if from.Same(stateFeet) {
			return x * k, y * k, nil
		}
		return x / k, y / k, nil
	})
}

func TestReprojectedRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		source   transform.CRS
		target   transform.CRS
		rep      transform.Reprojector
		frame    transform.Frame
		in       host.Coord
		units    string
		sentX    float64
		sentTol  float64
		backTol  float64
		hostUnit string
	}{
		{"feet to mercator", stateFeet, transform.WebMercator, scaledReprojector(0.3048), transform.Frame{},
			host.Coord{X: 1000, Y: 2000, Z: 5}, transform.Meters, 304.8, 1e-9, 1e-9, transform.Feet},
		{"feet to mercator framed", stateFeet, transform.WebMercator, scaledReprojector(0.3048),
			transform.Frame{OffsetX: 300, OffsetY: -100, RotationDeg: 15},
			host.Coord{X: 1000, Y: 2000, Z: 5}, transform.Meters, math.NaN(), 0, 1e-9, transform.Feet},
		{"feet to geographic", stateFeet, transform.WGS84, scaledReprojector(1e-5), transform.Frame{},
			host.Coord{X: 1000, Y: 2000}, transform.Meters, 0.01, 1e-12, 1e-9, transform.Feet},
		{"geographic to mercator", transform.WGS84, transform.WebMercator, nil, transform.Frame{},
			host.Coord{X: -111, Y: 40}, transform.Meters, -12356463.48, 1, 1e-6, transform.Meters},
		{"feet without reprojection", stateFeet, stateFeet, nil, transform.Frame{},
			host.Coord{X: 1000, Y: 2000, Z: 5}, transform.Feet, 1000, 1e-12, 1e-12, transform.Feet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			p := transform.Pipeline{Source: tt.source, Target: tt.target, Frame: tt.frame, Reprojector: tt.rep}
			ctx := convert.NewContext(p, transform.Meters)
			ctx.UnitsSource = tt.hostUnit
			c := New(ctx, nil)
			require.Equal(tt.units, c.Units())

			line := &host.LineString{Vertices: []host.Coord{tt.in, {X: tt.in.X + 10, Y: tt.in.Y + 20, Z: tt.in.Z}}}
			prims, err := c.ToInterchange(line, Display{})
			require.NoError(err)
			if !math.IsNaN(tt.sentX) {
				pl := prims[0].(*interchange.Polyline)
				require.Equal(tt.units, pl.Units)
				require.InDelta(tt.sentX, pl.Points[0].X, tt.sentTol)
			}

			back, err := c.ToHost(prims[0])
			require.NoError(err)
			got := coords(back)
			require.Len(got, 2)
			for i, want := range line.Vertices {
				require.InDelta(want.X, got[i].X, tt.backTol)
				require.InDelta(want.Y, got[i].Y, tt.backTol)
				require.InDelta(want.Z, got[i].Z, 1e-9)
			}
		})
	}
}

func TestReprojectedPointUnits(t *testing.T) {
	require := require.New(t)

	p := transform.Pipeline{Source: stateFeet, Target: transform.WebMercator, Reprojector: scaledReprojector(0.3048)}
	ctx := convert.NewContext(p, transform.Meters)
	ctx.UnitsSource = transform.Feet
	c := New(ctx, nil)

	// 304.8 m written in millimeters
	g, err := c.ToHost(&interchange.Point{X: 304800, Y: 609600, Units: transform.Millimeters})
	require.NoError(err)
	require.InDelta(1000, g.(*host.Point).X, 1e-9)
	require.InDelta(2000, g.(*host.Point).Y, 1e-9)
}

func TestSampleFollowsPlaneAxes(t *testing.T) {
	require := require.New(t)

	ccw := SampleCircle(&interchange.Circle{Plane: interchange.XYPlane(pt(0, 0), 1), Radius: 1})
	cw := SampleCircle(&interchange.Circle{Plane: interchange.XYPlane(pt(0, 0), -1), Radius: 1})
	require.Len(cw, len(ccw))
	require.Greater(ccw[1].Y, 0.0)
	require.Less(cw[1].Y, 0.0)

	e := SampleEllipse(&interchange.Ellipse{Plane: interchange.XYPlane(pt(0, 0), -1), FirstRadius: 4, SecondRadius: 2})
	quarter := e[len(e)/4]
	require.InDelta(0, quarter.X, 1e-9)
	require.InDelta(-2, quarter.Y, 1e-9)

	c := New(nil, nil)
	c.Curves = false
	g, err := c.ToHost(&interchange.Ellipse{Plane: interchange.XYPlane(pt(0, 0), -1), FirstRadius: 4, SecondRadius: 2, Units: transform.Meters})
	require.NoError(err)
	ring := g.(*host.Polygon).Rings[0]
	require.InDelta(-2, ring[len(e)/4].Y, 1e-9)
}

func TestUnsupported(t *testing.T) {
	require := require.New(t)

	c := New(nil, nil)
	_, err := c.ToInterchange(nil, Display{})
	require.ErrorIs(err, convert.ErrUnsupportedGeometry)
	_, err = c.ToInterchange(&host.Point{Coord: host.Coord{X: math.NaN()}}, Display{})
	require.Error(err)

	_, err = MergeHost([]host.Geometry{&host.Point{}, &host.LineString{}})
	require.ErrorIs(err, convert.ErrUnsupportedGeometry)
	g, err := MergeHost(nil)
	require.NoError(err)
	require.Nil(g)
}
