package interchange

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godeepar/geoxchange/transform"
)

func TestIdentity(t *testing.T) {
	require := require.New(t)

	a := New(TypePoint).Set("x", Float(1)).Set("y", Float(2))
	b := New(TypePoint).Set("y", Float(2)).Set("x", Float(1))
	require.Equal(a.ID(), b.ID(), "member order does not change identity")
	require.Len(a.ID(), 16)

	b.SetMeta("displayColor", Int(255))
	require.Equal(a.ID(), b.ID(), "metadata is not part of identity")

	c := New(TypePoint).Set("x", Int(1)).Set("y", Float(2))
	require.NotEqual(a.ID(), c.ID(), "value kinds are part of identity")

	d := New(TypeLine).Set("x", Float(1)).Set("y", Float(2))
	require.NotEqual(a.ID(), d.ID(), "type tag is part of identity")

	a.Set("x", Float(3))
	require.NotEqual(b.ID(), a.ID(), "Set resets a memoized identity")
}

func TestIdentityCycle(t *testing.T) {
	require := require.New(t)

	parent := New(TypeBase).Set("name", String("p"))
	child := New(TypeBase).Set("parent", NodeValue(parent))
	parent.Set("child", NodeValue(child))
	require.NotEmpty(parent.ID())
}

func TestValue(t *testing.T) {
	require := require.New(t)

	require.Equal(KindInt, Scalar(5).Kind())
	require.Equal(KindFloat, Scalar(float32(1.5)).Kind())
	require.Equal(KindString, Scalar("n/a").Kind())
	require.Equal(KindNull, Scalar(nil).Kind())
	require.Equal(KindList, Scalar([]interface{}{1, "a"}).Kind())
	require.Equal(KindNode, Scalar(map[string]interface{}{"b": 1, "a": 2}).Kind())

	n, _ := Scalar(map[string]interface{}{"b": 1, "a": 2}).AsNode()
	require.Equal([]string{"a", "b"}, n.Names())

	i, ok := Float(7).AsInt()
	require.True(ok)
	require.Equal(int64(7), i)
	_, ok = Float(7.5).AsInt()
	require.False(ok)

	f, ok := Int(3).AsFloat()
	require.True(ok)
	require.Equal(3.0, f)
	require.Equal("3", Int(3).String())
	require.True(Float(1).IsNumeric())
	require.False(String("1").IsNumeric())
}

func TestNodeAttributes(t *testing.T) {
	require := require.New(t)

	n := New(TypeBase).Set("a", Int(1)).Set("b", Int(2)).Set("c", Int(3))
	n.Set("a", Int(10))
	require.Equal([]string{"a", "b", "c"}, n.Names())
	n.Delete("b")
	require.Equal([]string{"a", "c"}, n.Names())
	require.False(n.Has("b"))
	v, _ := n.GetInt("a")
	require.Equal(int64(10), v)
}

func TestJSONRoundTrip(t *testing.T) {
	require := require.New(t)

	mesh := &Mesh{Vertices: []float64{0, 0, 0, 1, 0, 0, 1, 1, 0}, Faces: []int32{3, 0, 1, 2}, Colors: []int32{-1, -1, -1}, Units: "m"}
	SetColor(mesh, ARGB(255, 10, 20, 30))
	root := New(TypeCollection).
		Set("name", String("root")).
		Set("count", Int(3)).
		Set("ratio", Float(2)).
		Set("missing", Float(math.NaN())).
		Set("flag", Bool(true)).
		Set("mesh", NodeValue(mesh.Node())).
		Set("tags", List(String("a"), String("b")))

	data, err := root.MarshalJSON()
	require.NoError(err)

	back, err := Decode(bytes.NewReader(data))
	require.NoError(err)
	require.Equal(TypeCollection, back.Type())
	require.Equal(root.Names(), back.Names())

	ratio, _ := back.Get("ratio")
	require.Equal(KindFloat, ratio.Kind(), "integral floats stay floats")
	missing, _ := back.Get("missing")
	require.True(missing.IsNull())

	mn, ok := back.GetNode("mesh")
	require.True(ok)
	require.Equal(mesh.Node().ID(), mn.ID())
	m, err := DecodeMesh(mn)
	require.NoError(err)
	c, ok := ColorOf(m)
	require.True(ok)
	require.Equal(ARGB(255, 10, 20, 30), c)

	require.Error(New(TypeBase).Set("type", Int(1)).encode(&bytes.Buffer{}))
}

func TestGraphResolve(t *testing.T) {
	require := require.New(t)

	shared := (&Point{X: 1, Y: 2, Units: "m"}).Node()
	root := New(TypeCollection).
		Set("a", NodeValue(shared)).
		Set("b", NodeValue(Reference(shared)))

	g := NewGraph(root)
	require.Equal(3, g.Len(), "root, shared point and reference")

	ref, _ := root.GetNode("b")
	require.True(IsReference(ref))
	target, ok := g.Resolve(ref)
	require.True(ok)
	require.Same(shared, target)

	self, ok := g.Resolve(shared)
	require.True(ok)
	require.Same(shared, self)

	dangling := New(TypeReference).Set("referencedId", String("nope"))
	_, ok = g.Resolve(dangling)
	require.False(ok)
}

func TestGeometryRoundTrip(t *testing.T) {
	require := require.New(t)

	p := func(x, y float64) *Point { return &Point{X: x, Y: y, Units: "m"} }
	prims := []Geometry{
		p(1, 2),
		&Line{Start: p(0, 0), End: p(1, 1), Units: "m"},
		&Polyline{Points: []*Point{p(0, 0), p(1, 0), p(1, 1)}, Closed: true, Units: "m"},
		&Arc{Start: p(-5, 0), Mid: p(0, 5), End: p(5, 0), Plane: XYPlane(p(0, 0), -1), Radius: 5, Angle: math.Pi, Units: "m"},
		&Circle{Plane: XYPlane(p(3, 3), 1), Radius: 2, Units: "m"},
		&Ellipse{Plane: XYPlane(p(3, 3), 1), FirstRadius: 2, SecondRadius: 1, Units: "m"},
		&Polycurve{Segments: []Geometry{&Line{Start: p(0, 0), End: p(1, 0)}, &Arc{Start: p(1, 0), Mid: p(2, 1), End: p(3, 0), Plane: XYPlane(p(2, 0), -1)}}, Units: "m"},
		&Polygon{Boundary: &Polyline{Points: []*Point{p(0, 0), p(1, 0), p(1, 1)}, Closed: true}, Units: "m"},
	}
	for _, g := range prims {
		t.Run(g.GeometryType(), func(t *testing.T) {
			n := g.Node()
			back, err := DecodeGeometry(n)
			require.NoError(err)
			require.Equal(g.GeometryType(), back.GeometryType())
			require.Equal(n.ID(), back.Node().ID())
		})
	}

	_, err := DecodeGeometry(New(TypeFeature))
	require.ErrorIs(err, ErrMalformed)
	_, err = DecodeGeometry(New(TypePoint).Set("x", Float(1)))
	require.ErrorIs(err, ErrMalformed)
}

func TestMeshValidate(t *testing.T) {
	require := require.New(t)

	m := &Mesh{}
	a := m.AddVertex(Vec(0, 0, 0))
	b := m.AddVertex(Vec(1, 0, 0))
	c := m.AddVertex(Vec(1, 1, 0))
	d := m.AddVertex(Vec(0, 1, 0))
	m.AddFace(a, b, c, d)
	m.AddFace(a, b, c)
	require.NoError(m.Validate())
	require.Equal(2, m.FaceCount())

	m.Paint(ARGB(255, 1, 2, 3))
	require.Len(m.Colors, 4)

	m.Faces = append(m.Faces, 3, 0, 1, 9)
	require.ErrorIs(m.Validate(), ErrMalformed)
	m.Faces = []int32{4, 0, 1}
	require.Equal(-1, m.FaceCount())
}

func TestLayerRecords(t *testing.T) {
	require := require.New(t)

	attrs := New(TypeBase).Set("name", String("a"))
	l := &VectorLayer{
		Name:         "roads",
		CRS:          transform.WebMercator,
		Frame:        transform.Frame{OffsetX: 10, RotationDeg: 5},
		GeometryKind: KindLine,
		Fields:       []Field{{Name: "name", Type: "String"}},
		Elements: []*Feature{
			{Geometry: []Geometry{&Polyline{Points: []*Point{{X: 0}, {X: 1}}}}, Attributes: attrs, ApplicationID: "f1"},
			{ApplicationID: "f2"},
		},
		Extent: &Extent{MaxX: 1, Cells: []string{"89c25"}},
	}
	back, bad, err := DecodeVectorLayer(l.Node())
	require.NoError(err)
	require.Empty(bad)
	require.Equal("roads", back.Name)
	require.Equal(transform.WebMercator.AuthID, back.CRS.AuthID)
	require.Equal(10.0, back.Frame.OffsetX)
	require.Equal(l.Fields, back.Fields)
	require.Len(back.Elements, 2)
	require.Empty(back.Elements[1].Geometry)
	require.Equal([]string{"89c25"}, back.Extent.Cells)

	r := &RasterLayer{
		Name: "dem", BandNames: []string{"b1"}, BandValues: [][]float64{{1, 2, math.NaN(), 4}},
		Width: 2, Height: 2, ResX: 1, ResY: -1, NoData: []float64{math.NaN()},
	}
	data, err := r.Node().MarshalJSON()
	require.NoError(err)
	rn, err := Decode(bytes.NewReader(data))
	require.NoError(err)
	rb, err := DecodeRasterLayer(rn)
	require.NoError(err)
	require.True(math.IsNaN(rb.BandValues[0][2]))
	require.True(math.IsNaN(rb.NoData[0]))
	require.Equal(2, rb.Width)
}
