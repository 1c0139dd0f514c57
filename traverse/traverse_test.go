package traverse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/interchange"
)

func collection(name string, elems ...*interchange.Node) *interchange.Node {
	return interchange.New(interchange.TypeCollection).
		Set("name", interchange.String(name)).
		Set("elements", interchange.Nodes(elems))
}

func point(x, y float64) *interchange.Node {
	return (&interchange.Point{X: x, Y: y, Units: "m"}).Node()
}

func vectorLayer(name string) *interchange.Node {
	return (&interchange.VectorLayer{Name: name, GeometryKind: interchange.KindPoint}).Node()
}

func TestLocateLayersAndPaths(t *testing.T) {
	require := require.New(t)

	root := collection("Project",
		vectorLayer("Roads"),
		collection("Sub", vectorLayer("Rivers")),
	)
	units, report := Locate(root, Options{})
	require.Zero(report.Len())
	require.Len(units, 2)
	require.True(units[0].IsLayer())
	require.Equal("Project::Roads", units[0].PathString())
	require.Equal("Roads", units[0].Name())
	require.Equal("Project::Sub::Rivers", units[1].PathString())
}

func TestLooseGeometryGroupedAndDeduplicated(t *testing.T) {
	require := require.New(t)

	shared := point(1, 1)
	root := collection("Site",
		interchange.New(interchange.TypeBase).
			Set("name", interchange.String("Tower")).
			Set("parts", interchange.Nodes([]*interchange.Node{shared, point(2, 2)})),
		interchange.New(interchange.TypeBase).
			Set("name", interchange.String("Mast")).
			Set("parts", interchange.Nodes([]*interchange.Node{shared})),
		point(3, 3),
	)
	units, _ := Locate(root, Options{})
	require.Len(units, 2)
	require.False(units[0].IsLayer())
	require.Equal("Site::Tower", units[0].PathString())
	require.Len(units[0].Geometry, 2)
	require.Equal("Site", units[1].PathString())
	require.Len(units[1].Geometry, 1, "the shared point is emitted once")
}

func TestReferencesResolve(t *testing.T) {
	require := require.New(t)

	layer := vectorLayer("Parcels")
	root := collection("Model", interchange.Reference(layer), interchange.Reference(layer))
	g := interchange.NewGraph(root)
	g.Add(layer)

	units, report := Locate(root, Options{Graph: g})
	require.Len(units, 1)
	require.Equal(layer, units[0].Layer)
	require.Zero(report.Len())

	units, report = Locate(collection("Model", interchange.Reference(point(9, 9))), Options{})
	require.Empty(units)
	require.Equal(1, report.Count(ErrUnresolvedReference))
}

func TestDisplayValueSkipping(t *testing.T) {
	require := require.New(t)

	mesh := (&interchange.Mesh{Vertices: []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}, Faces: []int32{3, 0, 1, 2}, Units: "m"}).Node()

	// a generic element whose only content is its display mesh
	element := interchange.New(interchange.TypeBase).
		Set("name", interchange.String("Wall")).
		Set("displayValue", interchange.Nodes([]*interchange.Node{mesh}))
	units, _ := Locate(element, Options{})
	require.Len(units, 1)
	require.Equal("Wall", units[0].PathString())
	require.Equal(interchange.TypeMesh, units[0].Geometry[0].Type())

	// an element carrying geometry: its display mesh is a rendition of it
	withGeometry := interchange.New(interchange.TypeBase).
		Set("name", interchange.String("Plot")).
		Set("geometry", interchange.Nodes([]*interchange.Node{point(5, 5)})).
		Set("@displayValue", interchange.Nodes([]*interchange.Node{mesh}))
	units, _ = Locate(withGeometry, Options{})
	require.Len(units, 1)
	require.Len(units[0].Geometry, 1)
	require.Equal(interchange.TypePoint, units[0].Geometry[0].Type())
}

func TestStructuralKeysSkipped(t *testing.T) {
	require := require.New(t)

	root := interchange.New(interchange.TypeBase).
		Set("renderMaterial", interchange.NodeValue(point(0, 0))).
		Set("bbox", interchange.NodeValue(point(1, 0)))
	units, report := Locate(root, Options{})
	require.Empty(units)
	require.Zero(report.Len())

	units, _ = Locate(nil, Options{})
	require.Empty(units)
}

func TestCancelStopsWalk(t *testing.T) {
	require := require.New(t)

	cancel := convert.NewCancel()
	cancel.Cancel()
	units, report := Locate(collection("P", vectorLayer("A")), Options{Cancel: cancel})
	require.Empty(units)
	require.Equal(1, report.Count(convert.ErrCancelled))
}
