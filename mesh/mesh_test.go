package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/fogleman/delaunay"
	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/require"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/interchange"
)

func ring(xy ...float64) []r3.Vector {
	out := make([]r3.Vector, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, r3.Vector{X: xy[i], Y: xy[i+1]})
	}
	return out
}

var (
	square = ring(4, 4, -4, 4, -4, -4, 4, -4)
	hole   = ring(1, 1, 1, -1, -1, -1, -1, 1)
)

func faces(t *testing.T, m *interchange.Mesh) [][]int32 {
	var out [][]int32
	require.NoError(t, m.EachFace(func(f []int32) error {
		out = append(out, append([]int32(nil), f...))
		return nil
	}))
	return out
}

func faceArea(m *interchange.Mesh, f []int32) float64 {
	pts := make([]r3.Vector, len(f))
	for i, idx := range f {
		pts[i] = m.Vertex(int(idx))
	}
	return signedArea(pts)
}

func TestFanSquare(t *testing.T) {
	require := require.New(t)

	m, err := BuildDisplayMesh(square, nil, DefaultOptions())
	require.NoError(err)
	require.NoError(m.Validate())
	fs := faces(t, m)
	require.Len(fs, 1)
	require.Len(fs[0], 4)
	require.Greater(faceArea(m, fs[0]), 0.0)
}

func TestFanOrientation(t *testing.T) {
	require := require.New(t)

	cw := reversed(square)
	closed := append(append([]r3.Vector(nil), cw...), cw[0])
	m, err := BuildDisplayMesh(closed, nil, DefaultOptions())
	require.NoError(err)
	fs := faces(t, m)
	require.Len(fs[0], 4, "the closing vertex is not stored")
	require.Greater(faceArea(m, fs[0]), 0.0)
}

func TestFanHeight(t *testing.T) {
	require := require.New(t)

	opts := DefaultOptions()
	opts.Height = 3
	opts.HasColor, opts.Color = true, interchange.ARGB(255, 0, 128, 0)
	m, err := BuildDisplayMesh(square, nil, opts)
	require.NoError(err)
	require.Equal(8, m.VertexCount())
	fs := faces(t, m)
	require.Len(fs, 2)
	require.Equal([]int32{4, 5, 6, 7}, fs[1])
	require.Equal(3.0, m.Vertex(4).Z)
	require.Len(m.Colors, 8)
	c, ok := interchange.ColorOf(m)
	require.True(ok)
	require.Equal(opts.Color, c)
}

func TestConstrainedHole(t *testing.T) {
	require := require.New(t)

	m, err := BuildDisplayMesh(square, [][]r3.Vector{hole}, DefaultOptions())
	require.NoError(err)
	require.NoError(m.Validate())
	fs := faces(t, m)
	require.GreaterOrEqual(len(fs), 2)

	holeRing := orb.Ring{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}, {1, 1}}
	for _, f := range fs {
		require.Len(f, 3)
		require.Greater(faceArea(m, f), 0.0)
		a, b, c := m.Vertex(int(f[0])), m.Vertex(int(f[1])), m.Vertex(int(f[2]))
		centroid := orb.Point{(a.X + b.X + c.X) / 3, (a.Y + b.Y + c.Y) / 3}
		require.False(planar.RingContains(holeRing, centroid), "triangle %v lies in the hole", f)
	}
}

func TestConstrainedHeight(t *testing.T) {
	require := require.New(t)

	opts := DefaultOptions()
	opts.Height = 2
	m, err := BuildDisplayMesh(square, [][]r3.Vector{hole}, opts)
	require.NoError(err)
	require.Equal(16, m.VertexCount())
	fs := faces(t, m)
	require.Equal(0, len(fs)%2)
	half := len(fs) / 2
	for i := 0; i < half; i++ {
		for j := range fs[i] {
			require.Equal(fs[i][j]+8, fs[half+i][j])
		}
	}
}

func TestRetryExactlyFourAttempts(t *testing.T) {
	require := require.New(t)

	calls := 0
	triangulate = func([]delaunay.Point) (*delaunay.Triangulation, error) {
		calls++
		return nil, errors.New("boom")
	}
	defer func() { triangulate = delaunay.Triangulate }()

	_, err := BuildDisplayMesh(square, [][]r3.Vector{hole}, DefaultOptions())
	require.ErrorIs(err, convert.ErrMeshFailure)
	var failure *MeshFailure
	require.True(errors.As(err, &failure))
	require.Equal(4, failure.Attempts)
	require.Equal(4, calls)
}

func TestRetryRecoversPanic(t *testing.T) {
	require := require.New(t)

	calls := 0
	triangulate = func(pts []delaunay.Point) (*delaunay.Triangulation, error) {
		calls++
		if calls < 3 {
			panic("bad input")
		}
		return delaunay.Triangulate(pts)
	}
	defer func() { triangulate = delaunay.Triangulate }()

	m, err := BuildDisplayMesh(square, [][]r3.Vector{hole}, DefaultOptions())
	require.NoError(err)
	require.NotNil(m)
	require.Equal(3, calls)
}

func TestRetryCollapse(t *testing.T) {
	require := require.New(t)

	tiny := ring(0.0004, 0.0004, -0.0004, 0.0004, -0.0004, -0.0004, 0.0004, -0.0004)
	tinyHole := ring(0.0001, 0.0001, 0.0001, -0.0001, -0.0001, -0.0001, -0.0001, 0.0001)
	_, err := BuildDisplayMesh(tiny, [][]r3.Vector{tinyHole}, DefaultOptions())
	var failure *MeshFailure
	require.True(errors.As(err, &failure))
	require.Equal(4, failure.Attempts)
}

func TestDegenerate(t *testing.T) {
	require := require.New(t)

	_, err := BuildDisplayMesh(ring(0, 0, 1, 1, 2, 2), nil, DefaultOptions())
	require.ErrorIs(err, convert.ErrDegenerateGeometry)
	_, err = BuildDisplayMesh(ring(0, 0, 1, 1), nil, DefaultOptions())
	require.ErrorIs(err, convert.ErrDegenerateGeometry)
}

func TestDecimate(t *testing.T) {
	require := require.New(t)

	circle := func(n int, r float64) []r3.Vector {
		out := make([]r3.Vector, n)
		for i := range out {
			a := 2 * math.Pi * float64(i) / float64(n)
			out[i] = r3.Vector{X: r * math.Cos(a), Y: r * math.Sin(a)}
		}
		return out
	}
	outer, inner := circle(200, 10), circle(50, 2)

	rings := decimate([][]r3.Vector{outer, inner}, 100)
	require.Len(rings[0], 100)
	require.Len(rings[1], 25)
	require.Equal(outer[0], rings[0][0])
	require.Equal(inner[0], rings[1][0])

	same := decimate([][]r3.Vector{outer}, 5000)
	require.Len(same[0], 200)

	m, err := BuildDisplayMesh(circle(10000, 10), nil, DefaultOptions())
	require.NoError(err)
	require.Equal(5000, m.VertexCount())
}
