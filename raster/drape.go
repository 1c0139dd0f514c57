// Package raster builds display meshes from raster grids. Heights come from
// the raster's own band or are draped from a second elevation grid.
package raster

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/untillpro/goutils/logger"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/transform"
)

// Options tunes a raster mesh build.
type Options struct {
	// Elevation is the grid heights are draped from. When nil and
	// ElevationBand is set the raster drapes onto its own band; when both
	// are empty the mesh is flat.
	Elevation *host.Grid
	// ElevationBand is the 1-based band heights are read from. It defaults
	// to 1 when Elevation is set.
	ElevationBand int
	// LookbackFactor bounds the corner cache to LookbackFactor*width+4
	// entries.
	LookbackFactor int
	// SigmaElevation smooths heights read from the raster itself,
	// SigmaTexture heights draped from another grid. Zero disables
	// smoothing.
	SigmaElevation float64
	SigmaTexture   float64
	// ProgressRows is the row count from which progress is reported, zero
	// never reports.
	ProgressRows int
	Progress     func(percent int)
	Report       *convert.Report
}

// DefaultOptions ...
func DefaultOptions() Options {
	return Options{
		LookbackFactor: 4,
		SigmaElevation: 0.8,
		SigmaTexture:   1.0,
		ProgressRows:   1000,
	}
}

var checkpoints = []int{5, 10, 20, 40, 60, 80, 90}

// Surface is the built height field of a raster before it is emitted as a
// mesh. Corner arrays are (Height+1)*(Width+1) row major, Colors holds one
// packed ARGB value per cell.
type Surface struct {
	Width  int
	Height int
	X      []float64
	Y      []float64
	// Z is NaN where no height could be resolved.
	Z      []float64
	Colors []int32
	// Unresolved counts corners outside the elevation grid.
	Unresolved int
	Units      string

	ccw      bool
	computed int
}

type corner struct {
	x, y, z  float64
	resolved bool
}

type draper struct {
	grid     *host.Grid
	send     transform.Pipeline
	source   *host.Grid
	band     int
	toSource transform.Pipeline
	cache    *lru.Cache[[2]float64, corner]
	computed int
	failed   int
}

func newDraper(ctx *convert.ConversionContext, grid *host.Grid, opts Options) (*draper, error) {
	d := &draper{grid: grid, send: ctx.Pipeline, band: opts.ElevationBand}
	switch {
	case opts.Elevation != nil:
		if err := opts.Elevation.Validate(); err != nil {
			return nil, err
		}
		d.source = opts.Elevation
		if d.band == 0 {
			d.band = 1
		}
	case opts.ElevationBand > 0:
		d.source = grid
	}
	if d.source != nil && (d.band < 1 || d.band > d.source.BandCount()) {
		return nil, fmt.Errorf("%w: elevation band %d of %d", host.ErrInvalidGrid, d.band, d.source.BandCount())
	}
	if d.source != nil {
		d.toSource = ctx.Pipeline.Between(grid.CRS, d.source.CRS)
	}

	factor := opts.LookbackFactor
	if factor < 1 {
		factor = 4
	}
	cache, err := lru.New[[2]float64, corner](factor*grid.Width + 4)
	if err != nil {
		return nil, err
	}
	d.cache = cache
	return d, nil
}

// corner returns the interchange position and the height of the grid
// corner row, col. Recently computed corners come from the lookback cache.
func (d *draper) corner(row, col int) corner {
	x, y := d.grid.Corner(row, col)
	key := [2]float64{x, y}
	if c, ok := d.cache.Get(key); ok {
		return c
	}
	d.computed++
	c := corner{z: math.NaN()}
	tx, ty, err := d.send.Send(x, y)
	if err != nil {
		d.failed++
		c.x, c.y = math.NaN(), math.NaN()
		d.cache.Add(key, c)
		return c
	}
	c.x, c.y = tx, ty
	c.z, c.resolved = d.height(x, y)
	d.cache.Add(key, c)
	return c
}

func (d *draper) height(x, y float64) (float64, bool) {
	if d.source == nil {
		return 0, true
	}
	if d.toSource.NeedsReprojection() {
		var err error
		if x, y, err = d.toSource.Send(x, y); err != nil {
			return math.NaN(), false
		}
	}
	row, col, ok := d.source.Index(x, y)
	if !ok {
		if row, col, ok = d.search(row, col); !ok {
			return math.NaN(), false
		}
	}
	v := d.source.Value(d.band, row, col)
	if d.source.IsNoData(d.band, v) {
		return math.NaN(), false
	}
	return v, true
}

// search moves an index lying one cell outside the source grid back onto
// its edge.
func (d *draper) search(row, col int) (int, int, bool) {
	h, w := d.source.Height, d.source.Width
	if row < -1 || col < -1 || row > h || col > w {
		return row, col, false
	}
	return clamp(row, 0, h-1), clamp(col, 0, w-1), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sigma returns the smoothing strength for the drape: heights from the
// raster itself use the elevation sigma, draped heights the texture sigma,
// both scaled by the square root of the resolution ratio from 2x on.
func (d *draper) sigma(opts Options) float64 {
	switch {
	case d.source == nil:
		return 0
	case d.source == d.grid:
		return opts.SigmaElevation
	}
	s := opts.SigmaTexture
	if r := d.resolutionRatio(); r >= 2 {
		s *= math.Sqrt(r)
	}
	return s
}

func (d *draper) resolutionRatio() float64 {
	cell := math.Abs(d.grid.ResX)
	if d.toSource.NeedsReprojection() {
		x0, y0 := d.grid.Corner(0, 0)
		x1, y1 := d.grid.Corner(0, 1)
		ax, ay, err0 := d.toSource.Send(x0, y0)
		bx, by, err1 := d.toSource.Send(x1, y1)
		if err0 != nil || err1 != nil {
			return 1
		}
		cell = math.Hypot(bx-ax, by-ay)
	}
	src := math.Abs(d.source.ResX)
	if cell == 0 || src == 0 {
		return 1
	}
	r := src / cell
	if r < 1 {
		r = 1 / r
	}
	return r
}

type progress struct {
	rows int
	next int
	fn   func(int)
}

func newProgress(rows int, opts Options) *progress {
	if opts.ProgressRows <= 0 || rows < opts.ProgressRows {
		return nil
	}
	return &progress{rows: rows, fn: opts.Progress}
}

func (p *progress) done(rows int) {
	if p == nil {
		return
	}
	for p.next < len(checkpoints) && rows*100 >= checkpoints[p.next]*p.rows {
		pct := checkpoints[p.next]
		p.next++
		logger.Info(fmt.Sprintf("raster mesh %d%% (%d of %d rows)", pct, rows, p.rows))
		if p.fn != nil {
			p.fn(pct)
		}
	}
}

// Build computes the corner positions, heights and cell colors of grid.
func Build(ctx *convert.ConversionContext, grid *host.Grid, r host.Renderer, opts Options) (*Surface, error) {
	s, err := build(ctx, grid, r, opts)
	if err != nil {
		return nil, fmt.Errorf("[Build] in pkg [raster] encountered: %w", err)
	}
	return s, nil
}

func build(ctx *convert.ConversionContext, grid *host.Grid, r host.Renderer, opts Options) (*Surface, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = convert.NewContext(transform.Pipeline{}, transform.Meters)
	}
	ctx = ctx.WithSource(grid.CRS)

	d, err := newDraper(ctx, grid, opts)
	if err != nil {
		return nil, err
	}
	color := newColorizer(grid, r)

	cw := grid.Width + 1
	n := (grid.Height + 1) * cw
	s := &Surface{
		Width:  grid.Width,
		Height: grid.Height,
		X:      make([]float64, n),
		Y:      make([]float64, n),
		Z:      make([]float64, n),
		Colors: make([]int32, grid.Width*grid.Height),
		Units:  ctx.UnitsSource,
		ccw:    grid.ResX*grid.ResY < 0,
	}
	if ctx.Pipeline.NeedsReprojection() {
		s.Units = ctx.UnitsTarget
		if t := ctx.Pipeline.Target; t.Units != "" && !t.IsGeographic() {
			s.Units = transform.NormalizeUnits(t.Units)
		}
	}
	unresolved := make([]bool, n)
	p := newProgress(grid.Height, opts)

	for row := 0; row < grid.Height; row++ {
		if ctx.Cancelled() {
			return nil, fmt.Errorf("%w at row %d of %d", convert.ErrCancelled, row, grid.Height)
		}
		for col := 0; col < grid.Width; col++ {
			gap := false
			for _, rc := range [4][2]int{{row, col}, {row + 1, col}, {row + 1, col + 1}, {row, col + 1}} {
				i := rc[0]*cw + rc[1]
				c := d.corner(rc[0], rc[1])
				s.X[i], s.Y[i], s.Z[i] = c.x, c.y, c.z
				if !c.resolved {
					unresolved[i] = true
					gap = true
				}
			}
			cell := row*grid.Width + col
			if gap {
				s.Colors[cell] = interchange.Transparent
				continue
			}
			s.Colors[cell] = color(row, col)
		}
		p.done(row + 1)
	}

	for _, u := range unresolved {
		if u {
			s.Unresolved++
		}
	}
	s.computed = d.computed
	if d.failed > 0 {
		opts.Report.Addf("", convert.ErrCrsReprojection, "%d raster corners could not be reprojected from %s", d.failed, grid.CRS)
	}
	if s.Unresolved > 0 && d.source != nil {
		opts.Report.Addf("", convert.ErrRasterDrapeUnresolvedIndex, "%d raster corners fall outside the elevation grid", s.Unresolved)
	}

	if sigma := d.sigma(opts); sigma > 0 {
		s.Z = smooth(s.Z, cw, grid.Height+1, sigma)
	}
	return s, nil
}

// Mesh emits one quad face per cell. Cells with a corner without height
// are left out.
func (s *Surface) Mesh() (*interchange.Mesh, error) {
	m := &interchange.Mesh{Units: s.Units}
	cw := s.Width + 1
	for row := 0; row < s.Height; row++ {
		for col := 0; col < s.Width; col++ {
			idx := [4]int{row*cw + col, (row+1)*cw + col, (row+1)*cw + col + 1, row*cw + col + 1}
			if !s.ccw {
				idx[1], idx[3] = idx[3], idx[1]
			}
			if !s.placed(idx) {
				continue
			}
			color := s.Colors[row*s.Width+col]
			face := make([]int32, 4)
			for k, i := range idx {
				face[k] = m.AddVertex(r3.Vector{X: s.X[i], Y: s.Y[i], Z: s.Z[i]})
				m.Colors = append(m.Colors, color)
			}
			m.AddFace(face...)
		}
	}
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("%w: no raster cell could be placed", convert.ErrLayerConversion)
	}
	return m, nil
}

func (s *Surface) placed(idx [4]int) bool {
	for _, i := range idx {
		if math.IsNaN(s.X[i]) || math.IsNaN(s.Y[i]) || math.IsNaN(s.Z[i]) {
			return false
		}
	}
	return true
}

// BuildRasterMesh builds the display mesh of grid colored by r.
func BuildRasterMesh(ctx *convert.ConversionContext, grid *host.Grid, r host.Renderer, opts Options) (*interchange.Mesh, error) {
	s, err := build(ctx, grid, r, opts)
	if err != nil {
		return nil, fmt.Errorf("[BuildRasterMesh] in pkg [raster] encountered: %w", err)
	}
	m, err := s.Mesh()
	if err != nil {
		return nil, fmt.Errorf("[BuildRasterMesh] in pkg [raster] encountered: %w", err)
	}
	logger.Verbose(fmt.Sprintf("raster mesh: %d faces from %dx%d cells, %d corners computed", m.FaceCount(), grid.Width, grid.Height, s.computed))
	return m, nil
}
