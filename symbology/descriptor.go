// Package symbology translates host renderers into serializable renderer
// descriptors and back.
package symbology

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/godeepar/geoxchange/interchange"
)

// Kind names a renderer descriptor kind.
type Kind string

const (
	SingleSymbol   Kind = "singleSymbol"
	Categorized    Kind = "categorizedSymbol"
	Graduated      Kind = "graduatedSymbol"
	SingleBandGray Kind = "singlebandgray"
	MultiBandColor Kind = "multibandcolor"
	Paletted       Kind = "paletted"
	PseudoColor    Kind = "singlebandpseudocolor"
	Other          Kind = "other"
)

// IsRaster reports whether k describes a raster renderer.
func (k Kind) IsRaster() bool {
	switch k {
	case SingleBandGray, MultiBandColor, Paletted, PseudoColor:
		return true
	}
	return false
}

// Descriptor is the serializable form of a renderer. Properties hold one of
// the *Props structs of this package as a generic map.
type Descriptor struct {
	Kind       Kind
	Properties map[string]interface{}
}

// Colors are packed ARGB values throughout the properties.

type SymbolProps struct {
	Color int32 `mapstructure:"sourceColor"`
}

type CategoryProps struct {
	Value interface{} `mapstructure:"value"`
	Color int32       `mapstructure:"color"`
	Label string      `mapstructure:"label"`
}

type CategorizedProps struct {
	Attribute   string          `mapstructure:"attribute"`
	Categories  []CategoryProps `mapstructure:"categories"`
	SourceColor int32           `mapstructure:"sourceColor"`
}

type RangeProps struct {
	Lower float64 `mapstructure:"lower"`
	Upper float64 `mapstructure:"upper"`
	Color int32   `mapstructure:"color"`
	Label string  `mapstructure:"label"`
}

type StopProps struct {
	Offset float64 `mapstructure:"offset"`
	Color  int32   `mapstructure:"color"`
}

type RampProps struct {
	From  int32       `mapstructure:"color1"`
	To    int32       `mapstructure:"color2"`
	Stops []StopProps `mapstructure:"stops"`
}

type GraduatedProps struct {
	Attribute   string       `mapstructure:"attribute"`
	Method      string       `mapstructure:"method"`
	Ramp        RampProps    `mapstructure:"ramp"`
	Ranges      []RangeProps `mapstructure:"ranges"`
	SourceColor int32        `mapstructure:"sourceColor"`
}

type ContrastProps struct {
	Algorithm string  `mapstructure:"algorithm"`
	Min       float64 `mapstructure:"min"`
	Max       float64 `mapstructure:"max"`
}

type GrayProps struct {
	Band     int           `mapstructure:"band"`
	Contrast ContrastProps `mapstructure:"contrast"`
}

type MultiBandProps struct {
	Red           int           `mapstructure:"redBand"`
	Green         int           `mapstructure:"greenBand"`
	Blue          int           `mapstructure:"blueBand"`
	RedContrast   ContrastProps `mapstructure:"redContrast"`
	GreenContrast ContrastProps `mapstructure:"greenContrast"`
	BlueContrast  ContrastProps `mapstructure:"blueContrast"`
}

type ClassProps struct {
	Value float64 `mapstructure:"value"`
	Color int32   `mapstructure:"color"`
	Label string  `mapstructure:"label"`
}

type PalettedProps struct {
	Band    int          `mapstructure:"band"`
	Classes []ClassProps `mapstructure:"classes"`
}

type PseudoColorProps struct {
	Band  int          `mapstructure:"band"`
	Min   float64      `mapstructure:"min"`
	Max   float64      `mapstructure:"max"`
	Items []ClassProps `mapstructure:"items"`
}

type OtherProps struct {
	Type        string `mapstructure:"rendererType"`
	SourceColor int32  `mapstructure:"sourceColor"`
}

// New builds a descriptor from typed properties.
func New(kind Kind, props interface{}) Descriptor {
	m, _ := toMap(props).(map[string]interface{})
	return Descriptor{Kind: kind, Properties: m}
}

// toMap turns structs into maps and slices into []interface{}, recursively.
func toMap(v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Struct:
		var m map[string]interface{}
		if err := mapstructure.Decode(v, &m); err != nil {
			return nil
		}
		for k, e := range m {
			m[k] = toMap(e)
		}
		return m
	case reflect.Map:
		if m, ok := v.(map[string]interface{}); ok {
			for k, e := range m {
				m[k] = toMap(e)
			}
			return m
		}
	case reflect.Slice:
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = toMap(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

// Decode fills out, a pointer to one of the *Props structs, from the
// descriptor properties.
func (d Descriptor) Decode(out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(d.Properties); err != nil {
		return fmt.Errorf("[Decode] in pkg [symbology] encountered: %w", err)
	}
	return nil
}

// SourceColor returns the base color stored with the descriptor.
func (d Descriptor) SourceColor() (int32, bool) {
	var p SymbolProps
	if _, ok := d.Properties["sourceColor"]; !ok {
		return 0, false
	}
	if err := d.Decode(&p); err != nil {
		return 0, false
	}
	return p.Color, true
}

// Node encodes the descriptor.
func (d Descriptor) Node() *interchange.Node {
	return interchange.New(interchange.TypeRenderer).
		Set("kind", interchange.String(string(d.Kind))).
		Set("properties", interchange.Scalar(d.Properties))
}

// DecodeNode reads a descriptor node. A missing node gives an Other
// descriptor without properties.
func DecodeNode(n *interchange.Node) Descriptor {
	d := Descriptor{Kind: Other, Properties: map[string]interface{}{}}
	if n == nil {
		return d
	}
	if k, ok := n.GetString("kind"); ok && k != "" {
		d.Kind = Kind(k)
	}
	if p, ok := n.GetNode("properties"); ok {
		d.Properties = nodeMap(p)
	}
	return d
}

func nodeMap(n *interchange.Node) map[string]interface{} {
	m := make(map[string]interface{}, n.Len())
	for _, name := range n.Names() {
		v, _ := n.Get(name)
		m[name] = plain(v)
	}
	return m
}

func plain(v interchange.Value) interface{} {
	switch {
	case v.IsNode():
		n, _ := v.AsNode()
		return nodeMap(n)
	case v.IsList():
		l, _ := v.AsList()
		out := make([]interface{}, len(l))
		for i, e := range l {
			out[i] = plain(e)
		}
		return out
	}
	return v.Interface()
}
