package host

import "image/color"

// Renderer type names as the host reports them.
const (
	RendererSingleSymbol   = "singleSymbol"
	RendererCategorized    = "categorizedSymbol"
	RendererGraduated      = "graduatedSymbol"
	RendererSingleBandGray = "singlebandgray"
	RendererMultiBandColor = "multibandcolor"
	RendererPaletted       = "paletted"
	RendererPseudoColor    = "singlebandpseudocolor"
)

// Renderer is a host renderer object.
type Renderer interface {
	RendererType() string
}

// SingleSymbol draws every feature with one color.
type SingleSymbol struct {
	Color color.NRGBA
}

func (*SingleSymbol) RendererType() string { return RendererSingleSymbol }

// Category maps one attribute value to a color. A nil Value matches
// features without the attribute.
type Category struct {
	Value interface{}
	Color color.NRGBA
	Label string
}

type Categorized struct {
	Attribute  string
	Categories []Category
	// SourceColor is the color of the renderer's base symbol.
	SourceColor color.NRGBA
}

func (*Categorized) RendererType() string { return RendererCategorized }

// GraduatedMethod selects what a graduated renderer varies.
type GraduatedMethod string

const (
	ByColor GraduatedMethod = "color"
	BySize  GraduatedMethod = "size"
)

// Range is one class of a graduated renderer; Lower is inclusive.
type Range struct {
	Lower float64
	Upper float64
	Color color.NRGBA
	Label string
}

// Stop is an intermediate color of a ramp at Offset in [0,1].
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// ColorRamp ...
type ColorRamp struct {
	From  color.NRGBA
	To    color.NRGBA
	Stops []Stop
}

type Graduated struct {
	Attribute   string
	Method      GraduatedMethod
	Ramp        ColorRamp
	Ranges      []Range
	SourceColor color.NRGBA
}

func (*Graduated) RendererType() string { return RendererGraduated }

// ContrastEnhancement linearly stretches Min..Max onto 0..255.
type ContrastEnhancement struct {
	Algorithm string
	Min       float64
	Max       float64
}

// Band numbers of the raster renderers are 1-based.
type SingleBandGray struct {
	Band     int
	Contrast ContrastEnhancement
}

func (*SingleBandGray) RendererType() string { return RendererSingleBandGray }

type MultiBandColor struct {
	Red           int
	Green         int
	Blue          int
	RedContrast   ContrastEnhancement
	GreenContrast ContrastEnhancement
	BlueContrast  ContrastEnhancement
}

func (*MultiBandColor) RendererType() string { return RendererMultiBandColor }

// PaletteClass maps one exact raster value to a color.
type PaletteClass struct {
	Value float64
	Color color.NRGBA
	Label string
}

type Paletted struct {
	Band    int
	Classes []PaletteClass
}

func (*Paletted) RendererType() string { return RendererPaletted }

// RampItem is one legend entry of a pseudocolor renderer: values up to
// Value take Color.
type RampItem struct {
	Value float64
	Color color.NRGBA
	Label string
}

type PseudoColor struct {
	Band  int
	Min   float64
	Max   float64
	Items []RampItem
}

func (*PseudoColor) RendererType() string { return RendererPseudoColor }

// Unknown stands for a renderer the translator has no mapping for.
type Unknown struct {
	Type  string
	Color color.NRGBA
}

func (u *Unknown) RendererType() string { return u.Type }
