package raster

import (
	"image/color"
	"math"
	"sort"

	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
)

// colorizer returns the packed ARGB color of one cell.
type colorizer func(row, col int) int32

// stretch maps a band's value range linearly onto 0..255.
type stretch struct {
	min, max float64
}

// bandStretch uses the contrast enhancement range when it is set and the
// observed band range otherwise.
func bandStretch(g *host.Grid, band int, ce host.ContrastEnhancement) stretch {
	if ce.Max > ce.Min {
		return stretch{min: ce.Min, max: ce.Max}
	}
	min, max, _ := g.BandStats(band)
	return stretch{min: min, max: max}
}

func (s stretch) level(v float64) uint8 {
	if s.max <= s.min {
		return 0
	}
	t := (v - s.min) / (s.max - s.min)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return uint8(math.Round(t * 255))
}

func validBand(g *host.Grid, band int) int {
	if band < 1 || band > g.BandCount() {
		return 1
	}
	return band
}

func argb(c color.NRGBA) int32 {
	return interchange.ARGB(c.A, c.R, c.G, c.B)
}

func newColorizer(g *host.Grid, r host.Renderer) colorizer {
	switch t := r.(type) {
	case *host.MultiBandColor:
		return multiband(g, t)
	case *host.Paletted:
		return paletted(g, t)
	case *host.PseudoColor:
		return pseudocolor(g, t)
	case *host.SingleBandGray:
		return gray(g, validBand(g, t.Band), t.Contrast)
	}
	return gray(g, 1, host.ContrastEnhancement{})
}

func gray(g *host.Grid, band int, ce host.ContrastEnhancement) colorizer {
	s := bandStretch(g, band, ce)
	return func(row, col int) int32 {
		v := g.Value(band, row, col)
		if g.IsNoData(band, v) {
			return interchange.Transparent
		}
		l := s.level(v)
		return interchange.ARGB(255, l, l, l)
	}
}

// multiband composes three bands; a channel without band stays 0.
func multiband(g *host.Grid, m *host.MultiBandColor) colorizer {
	type channel struct {
		band int
		s    stretch
	}
	bands := [3]int{m.Red, m.Green, m.Blue}
	contrasts := [3]host.ContrastEnhancement{m.RedContrast, m.GreenContrast, m.BlueContrast}
	var channels [3]*channel
	for i, b := range bands {
		if b >= 1 && b <= g.BandCount() {
			channels[i] = &channel{band: b, s: bandStretch(g, b, contrasts[i])}
		}
	}
	return func(row, col int) int32 {
		var rgb [3]uint8
		for i, ch := range channels {
			if ch == nil {
				continue
			}
			v := g.Value(ch.band, row, col)
			if g.IsNoData(ch.band, v) {
				return interchange.Transparent
			}
			rgb[i] = ch.s.level(v)
		}
		return interchange.ARGB(255, rgb[0], rgb[1], rgb[2])
	}
}

// paletted looks the exact cell value up in the classes; unclassified
// values are transparent.
func paletted(g *host.Grid, p *host.Paletted) colorizer {
	band := validBand(g, p.Band)
	classes := make(map[float64]int32, len(p.Classes))
	for _, c := range p.Classes {
		if _, ok := classes[c.Value]; !ok {
			classes[c.Value] = argb(c.Color)
		}
	}
	return func(row, col int) int32 {
		v := g.Value(band, row, col)
		if g.IsNoData(band, v) {
			return interchange.Transparent
		}
		if c, ok := classes[v]; ok {
			return c
		}
		return interchange.Transparent
	}
}

// pseudocolor picks the first legend item whose value is not below the
// cell value; values above the legend take the last item. Without items the
// band is drawn in gray over Min..Max.
func pseudocolor(g *host.Grid, p *host.PseudoColor) colorizer {
	band := validBand(g, p.Band)
	if len(p.Items) == 0 {
		return gray(g, band, host.ContrastEnhancement{Min: p.Min, Max: p.Max})
	}
	items := append([]host.RampItem(nil), p.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Value < items[j].Value })
	return func(row, col int) int32 {
		v := g.Value(band, row, col)
		if g.IsNoData(band, v) {
			return interchange.Transparent
		}
		i := sort.Search(len(items), func(i int) bool { return items[i].Value >= v })
		if i == len(items) {
			i--
		}
		return argb(items[i].Color)
	}
}
