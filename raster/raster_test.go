package raster

import (
	"bytes"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/transform"
)

var _ Reader = host.NewMemory()

func uniform(w, h int, v float64) *host.Grid {
	band := make([]float64, w*h)
	for i := range band {
		band[i] = v
	}
	return &host.Grid{OriginX: 0, OriginY: float64(h), ResX: 1, ResY: -1, Width: w, Height: h, Bands: [][]float64{band}, NoData: []float64{math.NaN()}}
}

func faceArea(m *interchange.Mesh, face []int32) float64 {
	a := 0.0
	for i := range face {
		p, q := m.Vertex(int(face[i])), m.Vertex(int(face[(i+1)%len(face)]))
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

func TestUniformElevation(t *testing.T) {
	require := require.New(t)

	opts := DefaultOptions()
	opts.ElevationBand = 1
	m, err := BuildRasterMesh(nil, uniform(2, 2, 10), nil, opts)
	require.NoError(err)
	require.Equal(4, m.FaceCount())
	require.NoError(m.Validate())
	for i := 0; i < m.VertexCount(); i++ {
		require.InDelta(10, m.Vertex(i).Z, 1e-12)
	}
	for _, c := range m.Colors {
		require.Equal(uint8(255), interchange.Alpha(c))
	}
	require.NoError(m.EachFace(func(face []int32) error {
		require.Len(face, 4)
		require.Greater(faceArea(m, face), 0.0)
		return nil
	}))
}

func TestCornerLookback(t *testing.T) {
	require := require.New(t)

	opts := DefaultOptions()
	opts.ElevationBand = 1
	s, err := Build(nil, uniform(7, 5, 1), nil, opts)
	require.NoError(err)
	require.Equal(8*6, s.computed, "every corner computed once")
	require.Zero(s.Unresolved)
}

func TestExternalDrape(t *testing.T) {
	require := require.New(t)

	grid := uniform(3, 3, 0)
	for i := range grid.Bands[0] {
		grid.Bands[0][i] = float64(i + 1)
	}
	grid.OriginY = 2
	elev := uniform(4, 4, 0)
	elev.OriginY, elev.ResX, elev.ResY = 2, 0.5, -0.5
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			elev.Bands[0][row*4+col] = 100 + float64(row)
		}
	}

	report := convert.NewReport()
	opts := DefaultOptions()
	opts.Elevation = elev
	opts.SigmaTexture = 0
	opts.Report = report
	s, err := Build(nil, grid, nil, opts)
	require.NoError(err)

	require.Equal(7, s.Unresolved)
	require.Equal(1, report.Count(convert.ErrRasterDrapeUnresolvedIndex))
	require.Equal(interchange.Transparent, s.Colors[2])
	require.Equal(interchange.Transparent, s.Colors[6])
	require.Equal(uint8(255), interchange.Alpha(s.Colors[0]))

	// corner rows 0, 1 and 2 read elevation rows 0, 2 and 3
	require.Equal(100.0, s.Z[0])
	require.Equal(102.0, s.Z[4])
	require.Equal(103.0, s.Z[8])
	require.True(math.IsNaN(s.Z[3]))

	m, err := s.Mesh()
	require.NoError(err)
	require.Equal(4, m.FaceCount())
	require.Equal(100.0, m.Vertex(0).Z)
	require.Equal(102.0, m.Vertex(1).Z)
}

func TestSigma(t *testing.T) {
	require := require.New(t)

	ctx := convert.NewContext(transform.Pipeline{}, transform.Meters)
	grid := uniform(2, 2, 1)
	elev := uniform(2, 2, 1)
	elev.ResX, elev.ResY = 4, -4

	opts := DefaultOptions()
	opts.Elevation = elev
	d, err := newDraper(ctx, grid, opts)
	require.NoError(err)
	require.InDelta(2.0, d.sigma(opts), 1e-12)

	elev.ResX = 1.5
	require.InDelta(1.0, d.sigma(opts), 1e-12)

	opts.Elevation = nil
	opts.ElevationBand = 1
	d, err = newDraper(ctx, grid, opts)
	require.NoError(err)
	require.Equal(0.8, d.sigma(opts))

	opts.ElevationBand = 0
	d, err = newDraper(ctx, grid, opts)
	require.NoError(err)
	require.Zero(d.sigma(opts))

	opts.ElevationBand = 3
	_, err = newDraper(ctx, grid, opts)
	require.ErrorIs(err, host.ErrInvalidGrid)
}

func TestSmooth(t *testing.T) {
	require := require.New(t)

	nan := math.NaN()
	z := smooth([]float64{5, 5, 5, 5, nan, 5, 5, 5, 5}, 3, 3, 1)
	require.True(math.IsNaN(z[4]))
	for i, v := range z {
		if i != 4 {
			require.InDelta(5, v, 1e-12)
		}
	}

	z = smooth([]float64{0, 0, 0, 0, 9, 0, 0, 0, 0}, 3, 3, 0.8)
	require.Less(z[4], 9.0)
	require.Greater(z[4], z[0])
	require.Greater(z[1], 0.0)
}

func TestColors(t *testing.T) {
	nan := math.NaN()
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	grid := &host.Grid{
		OriginY: 1, ResX: 1, ResY: -1, Width: 4, Height: 1,
		Bands: [][]float64{
			{0, 50, 100, nan},
			{0, 0, 100, 100},
		},
		NoData: []float64{nan, nan},
	}

	cases := []struct {
		name     string
		renderer host.Renderer
		want     [4]int32
	}{
		{"gray with contrast", &host.SingleBandGray{Band: 1, Contrast: host.ContrastEnhancement{Min: 0, Max: 100}},
			[4]int32{interchange.ARGB(255, 0, 0, 0), interchange.ARGB(255, 128, 128, 128), interchange.ARGB(255, 255, 255, 255), interchange.Transparent}},
		{"gray from stats", nil,
			[4]int32{interchange.ARGB(255, 0, 0, 0), interchange.ARGB(255, 128, 128, 128), interchange.ARGB(255, 255, 255, 255), interchange.Transparent}},
		{"multiband", &host.MultiBandColor{Red: 1, Green: 2},
			[4]int32{interchange.ARGB(255, 0, 0, 0), interchange.ARGB(255, 128, 0, 0), interchange.ARGB(255, 255, 255, 0), interchange.Transparent}},
		{"paletted", &host.Paletted{Band: 1, Classes: []host.PaletteClass{{Value: 50, Color: red}}},
			[4]int32{interchange.Transparent, interchange.ARGB(255, 255, 0, 0), interchange.Transparent, interchange.Transparent}},
		{"pseudocolor", &host.PseudoColor{Band: 1, Items: []host.RampItem{{Value: 60, Color: green}, {Value: 10, Color: blue}}},
			[4]int32{interchange.ARGB(255, 0, 0, 255), interchange.ARGB(255, 0, 255, 0), interchange.ARGB(255, 0, 255, 0), interchange.Transparent}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newColorizer(grid, tc.renderer)
			for col, want := range tc.want {
				require.Equal(t, want, c(0, col), "column %d", col)
			}
		})
	}

	grid.NoData[0] = 100
	c := newColorizer(grid, nil)
	require.Equal(t, interchange.Transparent, c(0, 2))
}

func TestProgressAndCancel(t *testing.T) {
	require := require.New(t)

	var seen []int
	opts := DefaultOptions()
	opts.ProgressRows = 10
	opts.Progress = func(p int) { seen = append(seen, p) }
	_, err := Build(nil, uniform(1, 20, 1), nil, opts)
	require.NoError(err)
	require.Equal([]int{5, 10, 20, 40, 60, 80, 90}, seen)

	seen = nil
	opts.ProgressRows = 21
	_, err = Build(nil, uniform(1, 20, 1), nil, opts)
	require.NoError(err)
	require.Empty(seen)

	cancel := convert.NewCancel()
	cancel.Cancel()
	ctx := convert.NewContext(transform.Pipeline{}, transform.Meters).WithCancel(cancel)
	_, err = BuildRasterMesh(ctx, uniform(2, 2, 1), nil, opts)
	require.ErrorIs(err, convert.ErrCancelled)
}

func TestReprojectedFrame(t *testing.T) {
	require := require.New(t)

	grid := uniform(1, 1, 1)
	grid.CRS = transform.WGS84
	grid.OriginX, grid.OriginY = -111, 40
	p := transform.Pipeline{Target: transform.WebMercator, Frame: transform.Frame{OffsetX: -12356000}}
	m, err := BuildRasterMesh(convert.NewContext(p, transform.Meters), grid, nil, DefaultOptions())
	require.NoError(err)
	require.Equal(transform.Meters, m.Units)
	require.InDelta(-463.48, m.Vertex(0).X, 1)
	require.Equal(0.0, m.Vertex(0).Z)
}

func TestInvalidGrid(t *testing.T) {
	require := require.New(t)

	g := uniform(2, 2, 1)
	g.Width = 3
	_, err := BuildRasterMesh(nil, g, nil, DefaultOptions())
	require.ErrorIs(err, host.ErrInvalidGrid)

	all := uniform(1, 1, math.NaN())
	opts := DefaultOptions()
	opts.ElevationBand = 1
	_, err = BuildRasterMesh(nil, all, nil, opts)
	require.ErrorIs(err, convert.ErrLayerConversion)
}

const xyz = `0.5 1.5 1
1.5 1.5 2
0.5 0.5 3
1.5 0.5 4
`

func TestReadXYZ(t *testing.T) {
	require := require.New(t)

	g, err := ReadXYZ(strings.NewReader(xyz), transform.WebMercator)
	require.NoError(err)
	require.NoError(g.Validate())
	require.Equal(2, g.Width)
	require.Equal(2, g.Height)
	require.Equal(0.0, g.OriginX)
	require.Equal(2.0, g.OriginY)
	require.Equal(-1.0, g.ResY)
	require.Equal(1.0, g.Value(1, 0, 0))
	require.Equal(2.0, g.Value(1, 0, 1))
	require.Equal(3.0, g.Value(1, 1, 0))
	require.Equal(4.0, g.Value(1, 1, 1))

	g, err = ReadXYZ(strings.NewReader(strings.Join(strings.Split(xyz, "\n")[:3], "\n")), transform.CRS{})
	require.NoError(err)
	require.True(g.IsNoData(1, g.Value(1, 1, 1)))

	_, err = ReadXYZ(strings.NewReader("1 2\n"), transform.CRS{})
	require.ErrorIs(err, host.ErrInvalidGrid)
	_, err = ReadXYZ(strings.NewReader(""), transform.CRS{})
	require.ErrorIs(err, host.ErrInvalidGrid)

	dir := t.TempDir()
	require.NoError(os.WriteFile(filepath.Join(dir, "dem.xyz"), []byte(xyz), 0o644))
	g, err = Dir{Path: dir}.ReadGrid("dem")
	require.NoError(err)
	require.Equal([]string{"dem"}, g.BandNames)
	_, err = Dir{Path: dir}.ReadGrid("missing")
	require.Error(err)

	var buf bytes.Buffer
	g, err = ReadXYZ(strings.NewReader(xyz), transform.WebMercator)
	require.NoError(err)
	g.Bands[0][3] = math.NaN()
	require.NoError(WriteXYZ(&buf, g))
	back, err := ReadXYZ(&buf, transform.WebMercator)
	require.NoError(err)
	require.Equal(g.Width, back.Width)
	require.Equal(g.OriginY, back.OriginY)
	require.Equal(1.0, back.Value(1, 0, 0))
	require.True(back.IsNoData(1, back.Value(1, 1, 1)))
	require.Error(WriteXYZ(&buf, &host.Grid{}))
}
