package symbology

import (
	"fmt"
	"math"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/schema"
)

// lookup is one named way of finding an attribute on a feature.
type lookup struct {
	name string
	find func(attrs *interchange.Node, key string) (interchange.Value, bool)
}

// lookups are tried in order; the first hit wins.
var lookups = []lookup{
	{"exact", func(attrs *interchange.Node, key string) (interchange.Value, bool) {
		return attrs.Get(key)
	}},
	{"case-insensitive", func(attrs *interchange.Node, key string) (interchange.Value, bool) {
		for _, name := range attrs.Names() {
			if strings.EqualFold(name, key) {
				return attrs.Get(name)
			}
		}
		return interchange.Value{}, false
	}},
	{"flattened", func(attrs *interchange.Node, key string) (interchange.Value, bool) {
		for _, e := range schema.Flatten(attrs) {
			if e.Name == key {
				return e.Value, true
			}
		}
		return interchange.Value{}, false
	}},
}

// Attribute finds key on attrs and names the strategy that found it.
func Attribute(attrs *interchange.Node, key string) (interchange.Value, string, bool) {
	if attrs == nil || key == "" {
		return interchange.Value{}, "", false
	}
	for _, l := range lookups {
		if v, ok := l.find(attrs, key); ok {
			return v, l.name, true
		}
	}
	return interchange.Value{}, "", false
}

// ColorFor returns the display color of a feature with attrs under d.
func ColorFor(d Descriptor, attrs *interchange.Node) int32 {
	base, ok := d.SourceColor()
	if !ok {
		base = DefaultColor
	}
	switch d.Kind {
	case Categorized:
		var p CategorizedProps
		if err := d.Decode(&p); err != nil {
			return base
		}
		v, _, _ := Attribute(attrs, p.Attribute)
		if c, ok := p.match(v); ok {
			return c
		}
	case Graduated:
		var p GraduatedProps
		if err := d.Decode(&p); err != nil {
			return base
		}
		v, _, _ := Attribute(attrs, p.Attribute)
		f, ok := v.AsFloat()
		if !ok {
			if s, isStr := v.AsString(); isStr {
				_, err := fmt.Sscanf(s, "%g", &f)
				ok = err == nil
			}
		}
		if !ok {
			return base
		}
		for _, r := range p.Ranges {
			if f >= r.Lower && f <= r.Upper {
				return r.Color
			}
		}
	}
	return base
}

// match returns the color of the category v falls in. Null and empty
// values match the empty category.
func (p CategorizedProps) match(v interchange.Value) (int32, bool) {
	empty := v.IsNull()
	if s, ok := v.AsString(); ok && s == "" {
		empty = true
	}
	for _, c := range p.Categories {
		if empty {
			if isEmpty(c.Value) {
				return c.Color, true
			}
			continue
		}
		if isEmpty(c.Value) {
			continue
		}
		if sameValue(v, c.Value) {
			return c.Color, true
		}
	}
	return 0, false
}

// sameValue compares numbers as floats and anything else as text.
func sameValue(v interchange.Value, category interface{}) bool {
	cv := interchange.Scalar(category)
	if a, ok := v.AsFloat(); ok {
		if b, ok := cv.AsFloat(); ok {
			return a == b
		}
	}
	return text(v) == text(cv)
}

func text(v interchange.Value) string {
	if s, ok := v.AsString(); ok {
		return s
	}
	return v.String()
}

type stop struct {
	offset float64
	color  int32
}

// At interpolates the ramp at t in [0,1] in Lab space.
func (r RampProps) At(t float64) int32 {
	t = math.Max(0, math.Min(1, t))
	stops := []stop{{0, r.From}}
	for _, s := range r.Stops {
		stops = append(stops, stop{s.Offset, s.Color})
	}
	stops = append(stops, stop{1, r.To})
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].offset < stops[j].offset })

	i := sort.Search(len(stops), func(i int) bool { return stops[i].offset >= t })
	switch {
	case i == 0:
		return stops[0].color
	case i == len(stops):
		return stops[len(stops)-1].color
	case stops[i].offset == t:
		return stops[i].color
	}
	lo, hi := stops[i-1], stops[i]
	span := hi.offset - lo.offset
	if span <= 0 {
		return hi.color
	}
	return blend(lo.color, hi.color, (t-lo.offset)/span)
}

func toColorful(argb int32) (colorful.Color, uint8) {
	a, r, g, b := interchange.UnpackARGB(argb)
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, a
}

func blend(from, to int32, t float64) int32 {
	c1, a1 := toColorful(from)
	c2, a2 := toColorful(to)
	r, g, b := c1.BlendLab(c2, t).Clamped().RGB255()
	a := uint8(math.Round(float64(a1) + (float64(a2)-float64(a1))*t))
	return interchange.ARGB(a, r, g, b)
}

// Hex formats a packed color as #rrggbb.
func Hex(argb int32) string {
	c, _ := toColorful(argb)
	return c.Hex()
}
