package host

import (
	"errors"
	"fmt"
	"math"

	"github.com/godeepar/geoxchange/transform"
)

// ErrInvalidGrid is returned for a raster whose bands do not match its size.
var ErrInvalidGrid = errors.New("invalid raster grid")

// Grid is a north-up raster. Bands are row major, row 0 at the top.
// Corner (row, col) lies at OriginX+col*ResX, OriginY+row*ResY, so ResY is
// negative for the usual north-up layout.
type Grid struct {
	CRS       transform.CRS
	OriginX   float64
	OriginY   float64
	ResX      float64
	ResY      float64
	Width     int
	Height    int
	Bands     [][]float64
	BandNames []string
	// NoData holds one value per band; NaN means the band has none.
	NoData []float64
}

// Validate checks the band sizes and the resolution.
func (g *Grid) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: no grid", ErrInvalidGrid)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidGrid, g.Width, g.Height)
	}
	if g.ResX == 0 || g.ResY == 0 {
		return fmt.Errorf("%w: zero resolution", ErrInvalidGrid)
	}
	if len(g.Bands) == 0 {
		return fmt.Errorf("%w: no bands", ErrInvalidGrid)
	}
	for i, b := range g.Bands {
		if len(b) != g.Width*g.Height {
			return fmt.Errorf("%w: band %d has %d values for %dx%d", ErrInvalidGrid, i+1, len(b), g.Width, g.Height)
		}
	}
	return nil
}

// BandCount ...
func (g *Grid) BandCount() int { return len(g.Bands) }

// Value returns the value of band (1-based) at row, col.
func (g *Grid) Value(band, row, col int) float64 {
	return g.Bands[band-1][row*g.Width+col]
}

// IsNoData reports whether v is a no-data value of band (1-based).
func (g *Grid) IsNoData(band int, v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	if band-1 < len(g.NoData) {
		nd := g.NoData[band-1]
		return !math.IsNaN(nd) && v == nd
	}
	return false
}

// Corner returns the coordinates of the top-left corner of cell row, col.
func (g *Grid) Corner(row, col int) (float64, float64) {
	return g.OriginX + float64(col)*g.ResX, g.OriginY + float64(row)*g.ResY
}

// Center returns the coordinates of the center of cell row, col.
func (g *Grid) Center(row, col int) (float64, float64) {
	return g.OriginX + (float64(col)+0.5)*g.ResX, g.OriginY + (float64(row)+0.5)*g.ResY
}

// Index returns the cell containing x, y. ok is false outside the grid.
func (g *Grid) Index(x, y float64) (row, col int, ok bool) {
	col = int(math.Floor((x - g.OriginX) / g.ResX))
	row = int(math.Floor((y - g.OriginY) / g.ResY))
	return row, col, g.Contains(row, col)
}

// Contains reports whether row, col is a cell of the grid.
func (g *Grid) Contains(row, col int) bool {
	return row >= 0 && col >= 0 && row < g.Height && col < g.Width
}

// BandStats returns the observed minimum and maximum of band (1-based),
// no-data values excluded. ok is false if the band has no data at all.
func (g *Grid) BandStats(band int) (min, max float64, ok bool) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range g.Bands[band-1] {
		if g.IsNoData(band, v) {
			continue
		}
		ok = true
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if !ok {
		return 0, 0, false
	}
	return min, max, true
}
