package symbology

import (
	"fmt"
	"image/color"

	"github.com/untillpro/goutils/logger"

	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
)

// DefaultColor is used when a renderer carries no usable color.
var DefaultColor = interchange.ARGB(255, 160, 160, 160)

// OtherLabel labels the synthesized fallback category.
const OtherLabel = "Other"

func pack(c color.NRGBA) int32 {
	return interchange.ARGB(c.A, c.R, c.G, c.B)
}

func unpack(argb int32) color.NRGBA {
	a, r, g, b := interchange.UnpackARGB(argb)
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

func contrast(c host.ContrastEnhancement) ContrastProps {
	return ContrastProps{Algorithm: c.Algorithm, Min: c.Min, Max: c.Max}
}

func (c ContrastProps) host() host.ContrastEnhancement {
	return host.ContrastEnhancement{Algorithm: c.Algorithm, Min: c.Min, Max: c.Max}
}

// ToDescriptor describes a host renderer. A nil renderer becomes a default
// single symbol.
func ToDescriptor(r host.Renderer) Descriptor {
	switch t := r.(type) {
	case nil:
		return New(SingleSymbol, SymbolProps{Color: DefaultColor})
	case *host.SingleSymbol:
		return New(SingleSymbol, SymbolProps{Color: pack(t.Color)})
	case *host.Categorized:
		return New(Categorized, categorized(t))
	case *host.Graduated:
		if t.Method == host.BySize {
			logger.Warning("graduated renderer by size is sent as a single symbol")
			return New(SingleSymbol, SymbolProps{Color: pack(t.SourceColor)})
		}
		return New(Graduated, graduated(t))
	case *host.SingleBandGray:
		return New(SingleBandGray, GrayProps{Band: t.Band, Contrast: contrast(t.Contrast)})
	case *host.MultiBandColor:
		return New(MultiBandColor, MultiBandProps{
			Red: t.Red, Green: t.Green, Blue: t.Blue,
			RedContrast:   contrast(t.RedContrast),
			GreenContrast: contrast(t.GreenContrast),
			BlueContrast:  contrast(t.BlueContrast),
		})
	case *host.Paletted:
		p := PalettedProps{Band: t.Band}
		for _, c := range t.Classes {
			p.Classes = append(p.Classes, ClassProps{Value: c.Value, Color: pack(c.Color), Label: c.Label})
		}
		return New(Paletted, p)
	case *host.PseudoColor:
		p := PseudoColorProps{Band: t.Band, Min: t.Min, Max: t.Max}
		for _, c := range t.Items {
			p.Items = append(p.Items, ClassProps{Value: c.Value, Color: pack(c.Color), Label: c.Label})
		}
		return New(PseudoColor, p)
	case *host.Unknown:
		return New(Other, OtherProps{Type: t.Type, SourceColor: pack(t.Color)})
	}
	return New(Other, OtherProps{Type: r.RendererType(), SourceColor: DefaultColor})
}

// categorized copies the categories and appends an Other category unless
// one of them already stands for empty values.
func categorized(c *host.Categorized) CategorizedProps {
	p := CategorizedProps{Attribute: c.Attribute, SourceColor: pack(c.SourceColor)}
	hasEmpty := false
	for _, cat := range c.Categories {
		if isEmpty(cat.Value) {
			hasEmpty = true
		}
		p.Categories = append(p.Categories, CategoryProps{Value: cat.Value, Color: pack(cat.Color), Label: cat.Label})
	}
	if !hasEmpty {
		p.Categories = append(p.Categories, CategoryProps{Value: nil, Color: pack(c.SourceColor), Label: OtherLabel})
	}
	return p
}

func isEmpty(v interface{}) bool {
	return v == nil || v == ""
}

// graduated copies the ranges. Ranges without color take theirs from the
// ramp, spread evenly over it.
func graduated(g *host.Graduated) GraduatedProps {
	p := GraduatedProps{
		Attribute:   g.Attribute,
		Method:      string(host.ByColor),
		SourceColor: pack(g.SourceColor),
		Ramp:        RampProps{From: pack(g.Ramp.From), To: pack(g.Ramp.To)},
	}
	for _, s := range g.Ramp.Stops {
		p.Ramp.Stops = append(p.Ramp.Stops, StopProps{Offset: s.Offset, Color: pack(s.Color)})
	}
	for i, r := range g.Ranges {
		c := pack(r.Color)
		if r.Color.A == 0 {
			t := 0.0
			if len(g.Ranges) > 1 {
				t = float64(i) / float64(len(g.Ranges)-1)
			}
			c = p.Ramp.At(t)
		}
		p.Ranges = append(p.Ranges, RangeProps{Lower: r.Lower, Upper: r.Upper, Color: c, Label: r.Label})
	}
	return p
}

// ToHost rebuilds a host renderer for a layer of the given geometry kind
// and fields. Descriptors that do not fit the layer fall back to a single
// symbol of the source color, or to a gray band for rasters.
func ToHost(d Descriptor, geometryKind string, fields []host.Field) host.Renderer {
	r, err := toHost(d, geometryKind, fields)
	if err != nil {
		logger.Warning(fmt.Sprintf("renderer %s falls back to the default: %v", d.Kind, err))
		return fallback(d, geometryKind)
	}
	return r
}

func fallback(d Descriptor, geometryKind string) host.Renderer {
	if geometryKind == interchange.KindRaster {
		return &host.SingleBandGray{Band: 1}
	}
	c, ok := d.SourceColor()
	if !ok {
		c = DefaultColor
	}
	return &host.SingleSymbol{Color: unpack(c)}
}

func hasField(fields []host.Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func toHost(d Descriptor, geometryKind string, fields []host.Field) (host.Renderer, error) {
	raster := geometryKind == interchange.KindRaster
	if d.Kind.IsRaster() != raster {
		return nil, fmt.Errorf("%s renderer on a %s layer", d.Kind, geometryKind)
	}
	switch d.Kind {
	case SingleSymbol:
		var p SymbolProps
		if err := d.Decode(&p); err != nil {
			return nil, err
		}
		return &host.SingleSymbol{Color: unpack(p.Color)}, nil
	case Categorized:
		var p CategorizedProps
		if err := d.Decode(&p); err != nil {
			return nil, err
		}
		if !hasField(fields, p.Attribute) {
			return nil, fmt.Errorf("attribute %q is not in the layer", p.Attribute)
		}
		r := &host.Categorized{Attribute: p.Attribute, SourceColor: unpack(p.SourceColor)}
		for _, c := range p.Categories {
			r.Categories = append(r.Categories, host.Category{Value: c.Value, Color: unpack(c.Color), Label: c.Label})
		}
		return r, nil
	case Graduated:
		var p GraduatedProps
		if err := d.Decode(&p); err != nil {
			return nil, err
		}
		if !hasField(fields, p.Attribute) {
			return nil, fmt.Errorf("attribute %q is not in the layer", p.Attribute)
		}
		r := &host.Graduated{
			Attribute:   p.Attribute,
			Method:      host.ByColor,
			SourceColor: unpack(p.SourceColor),
			Ramp:        host.ColorRamp{From: unpack(p.Ramp.From), To: unpack(p.Ramp.To)},
		}
		for _, s := range p.Ramp.Stops {
			r.Ramp.Stops = append(r.Ramp.Stops, host.Stop{Offset: s.Offset, Color: unpack(s.Color)})
		}
		for _, rg := range p.Ranges {
			r.Ranges = append(r.Ranges, host.Range{Lower: rg.Lower, Upper: rg.Upper, Color: unpack(rg.Color), Label: rg.Label})
		}
		return r, nil
	case SingleBandGray:
		var p GrayProps
		if err := d.Decode(&p); err != nil {
			return nil, err
		}
		return &host.SingleBandGray{Band: p.Band, Contrast: p.Contrast.host()}, nil
	case MultiBandColor:
		var p MultiBandProps
		if err := d.Decode(&p); err != nil {
			return nil, err
		}
		return &host.MultiBandColor{
			Red: p.Red, Green: p.Green, Blue: p.Blue,
			RedContrast:   p.RedContrast.host(),
			GreenContrast: p.GreenContrast.host(),
			BlueContrast:  p.BlueContrast.host(),
		}, nil
	case Paletted:
		var p PalettedProps
		if err := d.Decode(&p); err != nil {
			return nil, err
		}
		r := &host.Paletted{Band: p.Band}
		for _, c := range p.Classes {
			r.Classes = append(r.Classes, host.PaletteClass{Value: c.Value, Color: unpack(c.Color), Label: c.Label})
		}
		return r, nil
	case PseudoColor:
		var p PseudoColorProps
		if err := d.Decode(&p); err != nil {
			return nil, err
		}
		r := &host.PseudoColor{Band: p.Band, Min: p.Min, Max: p.Max}
		for _, c := range p.Items {
			r.Items = append(r.Items, host.RampItem{Value: c.Value, Color: unpack(c.Color), Label: c.Label})
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown renderer kind %q", d.Kind)
}
