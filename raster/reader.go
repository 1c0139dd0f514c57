package raster

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/transform"
)

// Reader is the capability raster grids are read through.
// host.Memory implements it for its raster layers.
type Reader interface {
	ReadGrid(name string) (*host.Grid, error)
}

// Dir reads grids from GDAL XYZ exports named <name>.xyz.
type Dir struct {
	Path string
	CRS  transform.CRS
}

func (d Dir) ReadGrid(name string) (*host.Grid, error) {
	f, err := os.Open(filepath.Join(d.Path, name+".xyz"))
	if err != nil {
		return nil, fmt.Errorf("[ReadGrid] in pkg [raster] encountered: %w", err)
	}
	defer f.Close()
	g, err := ReadXYZ(f, d.CRS)
	if err != nil {
		return nil, err
	}
	g.BandNames = []string{name}
	return g, nil
}

// ReadXYZ parses a single band XYZ listing, one "x y z" cell center per
// line. The resolution is the smallest spacing between distinct centers;
// cells missing from the listing are NaN.
func ReadXYZ(r io.Reader, crs transform.CRS) (*host.Grid, error) {
	type sample struct{ x, y, z float64 }
	var (
		samples []sample
		xs      = map[float64]bool{}
		ys      = map[float64]bool{}
		line    int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		values := strings.Fields(scanner.Text())
		if len(values) == 0 {
			continue
		}
		if len(values) < 3 {
			return nil, fmt.Errorf("[ReadXYZ] in pkg [raster] encountered: %w: line %d has %d values", host.ErrInvalidGrid, line, len(values))
		}
		var s sample
		for i, dst := range []*float64{&s.x, &s.y, &s.z} {
			v, err := strconv.ParseFloat(values[i], 64)
			if err != nil {
				return nil, fmt.Errorf("[ReadXYZ] in pkg [raster] encountered: line %d: %w", line, err)
			}
			*dst = v
		}
		samples = append(samples, s)
		xs[s.x] = true
		ys[s.y] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("[ReadXYZ] in pkg [raster] encountered: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("[ReadXYZ] in pkg [raster] encountered: %w: no samples", host.ErrInvalidGrid)
	}

	ux, uy := maps.Keys(xs), maps.Keys(ys)
	sort.Float64s(ux)
	sort.Float64s(uy)
	resX, resY := spacing(ux), spacing(uy)
	switch {
	case resX == 0 && resY == 0:
		resX, resY = 1, 1
	case resX == 0:
		resX = resY
	case resY == 0:
		resY = resX
	}

	g := &host.Grid{
		CRS:     crs,
		OriginX: ux[0] - resX/2,
		OriginY: uy[len(uy)-1] + resY/2,
		ResX:    resX,
		ResY:    -resY,
		Width:   int(math.Round((ux[len(ux)-1]-ux[0])/resX)) + 1,
		Height:  int(math.Round((uy[len(uy)-1]-uy[0])/resY)) + 1,
		NoData:  []float64{math.NaN()},
	}
	band := make([]float64, g.Width*g.Height)
	for i := range band {
		band[i] = math.NaN()
	}
	for _, s := range samples {
		if row, col, ok := g.Index(s.x, s.y); ok {
			band[row*g.Width+col] = s.z
		}
	}
	g.Bands = [][]float64{band}
	g.BandNames = []string{"Band 1"}
	return g, nil
}

// spacing returns the smallest positive gap of sorted values.
func spacing(sorted []float64) float64 {
	gap := 0.0
	for i := 1; i < len(sorted); i++ {
		d := sorted[i] - sorted[i-1]
		if d > 0 && (gap == 0 || d < gap) {
			gap = d
		}
	}
	return gap
}

// WriteXYZ writes band 1 of g as cell centers, one "x y z" per line, in the
// form ReadXYZ reads. No-data cells are left out.
func WriteXYZ(w io.Writer, g *host.Grid) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("[WriteXYZ] in pkg [raster] encountered: %w", err)
	}
	bw := bufio.NewWriter(w)
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			v := g.Value(1, row, col)
			if g.IsNoData(1, v) {
				continue
			}
			x, y := g.Center(row, col)
			if _, err := fmt.Fprintln(bw, format(x), format(y), format(v)); err != nil {
				return fmt.Errorf("[WriteXYZ] in pkg [raster] encountered: %w", err)
			}
		}
	}
	return bw.Flush()
}
