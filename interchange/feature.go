package interchange

import (
	"fmt"
	"math"

	"github.com/godeepar/geoxchange/transform"
)

// Feature is one GIS record: its geometry parts, its attributes and the
// host id it came from. Geometry is empty for attribute-only records.
type Feature struct {
	Geometry      []Geometry
	Attributes    *Node
	ApplicationID string
}

func (f *Feature) Node() *Node {
	n := New(TypeFeature)
	if len(f.Geometry) > 0 {
		parts := make([]*Node, len(f.Geometry))
		for i, g := range f.Geometry {
			parts[i] = g.Node()
		}
		n.Set("geometry", Nodes(parts))
	} else {
		n.Set("geometry", Null())
	}
	attrs := f.Attributes
	if attrs == nil {
		attrs = New(TypeBase)
	}
	n.Set("attributes", NodeValue(attrs))
	n.Set("applicationId", String(f.ApplicationID))
	return n
}

// DecodeFeature decodes a feature node. Geometry parts that fail to decode
// are returned as an error so the caller can record and skip the feature.
func DecodeFeature(n *Node) (*Feature, error) {
	if n.Type() != TypeFeature {
		return nil, fmt.Errorf("%w: expected feature, got %q", ErrMalformed, n.Type())
	}
	f := &Feature{ApplicationID: n.ApplicationID()}
	if a, ok := n.GetNode("attributes"); ok {
		f.Attributes = a
	} else {
		f.Attributes = New(TypeBase)
	}
	parts, err := decodeList(n, "geometry")
	if err != nil {
		return f, err
	}
	f.Geometry = parts
	return f, nil
}

// Field is one column of a layer attribute schema.
type Field struct {
	Name string
	Type string
}

// Extent is the layer bounding box in interchange coordinates plus the s2
// cell tokens covering it.
type Extent struct {
	MinX, MinY, MaxX, MaxY float64
	Cells                  []string
}

func (e *Extent) node() *Node {
	cells := make([]Value, len(e.Cells))
	for i, c := range e.Cells {
		cells[i] = String(c)
	}
	return New(TypeExtent).
		Set("xmin", Float(e.MinX)).
		Set("ymin", Float(e.MinY)).
		Set("xmax", Float(e.MaxX)).
		Set("ymax", Float(e.MaxY)).
		Set("s2", List(cells...))
}

func decodeExtent(n *Node) *Extent {
	e := &Extent{}
	e.MinX, _ = n.GetFloat("xmin")
	e.MinY, _ = n.GetFloat("ymin")
	e.MaxX, _ = n.GetFloat("xmax")
	e.MaxY, _ = n.GetFloat("ymax")
	cells, _ := n.GetList("s2")
	for _, c := range cells {
		if s, ok := c.AsString(); ok {
			e.Cells = append(e.Cells, s)
		}
	}
	return e
}

// CRSNode encodes a CRS together with the local frame applied to the
// coordinates of the layer.
func CRSNode(crs transform.CRS, frame transform.Frame) *Node {
	return New(TypeCRS).
		Set("name", String(crs.Name)).
		Set("authority_id", String(crs.AuthID)).
		Set("wkt", String(crs.WKT)).
		Set("units_native", String(crs.Units)).
		Set("offset_x", Float(frame.OffsetX)).
		Set("offset_y", Float(frame.OffsetY)).
		Set("rotation", Float(frame.RotationDeg))
}

// DecodeCRS ...
func DecodeCRS(n *Node) (transform.CRS, transform.Frame) {
	var crs transform.CRS
	var frame transform.Frame
	if n == nil {
		return crs, frame
	}
	crs.Name, _ = n.GetString("name")
	crs.AuthID, _ = n.GetString("authority_id")
	crs.WKT, _ = n.GetString("wkt")
	crs.Units, _ = n.GetString("units_native")
	frame.OffsetX, _ = n.GetFloat("offset_x")
	frame.OffsetY, _ = n.GetFloat("offset_y")
	frame.RotationDeg, _ = n.GetFloat("rotation")
	return crs, frame
}

// VectorLayer is the interchange form of a host vector layer.
type VectorLayer struct {
	Name         string
	CRS          transform.CRS
	Frame        transform.Frame
	Units        string
	GeometryKind string
	Fields       []Field
	Renderer     *Node
	Elements     []*Feature
	Extent       *Extent
}

func (l *VectorLayer) Node() *Node {
	fields := New(TypeBase)
	for _, f := range l.Fields {
		fields.Set(f.Name, String(f.Type))
	}
	elems := make([]*Node, len(l.Elements))
	for i, e := range l.Elements {
		elems[i] = e.Node()
	}
	n := New(TypeVectorLayer).
		Set("name", String(l.Name)).
		Set("crs", NodeValue(CRSNode(l.CRS, l.Frame))).
		Set("units", String(l.Units)).
		Set("geomType", String(l.GeometryKind)).
		Set("attributes", NodeValue(fields)).
		Set("renderer", NodeValue(l.Renderer)).
		Set("elements", Nodes(elems))
	if l.Extent != nil {
		n.Set("extent", NodeValue(l.Extent.node()))
	}
	return n
}

// DecodeVectorLayer decodes a vector layer node. Elements that are not
// features are skipped; features that fail to decode are returned in bad
// keyed by their application id so the caller can report them.
func DecodeVectorLayer(n *Node) (l *VectorLayer, bad map[string]error, err error) {
	switch n.Type() {
	case TypeVectorLayer, TypeLegacyLayer:
	default:
		return nil, nil, fmt.Errorf("%w: expected vector layer, got %q", ErrMalformed, n.Type())
	}
	l = &VectorLayer{Name: n.Name(), Units: units(n)}
	crsNode, _ := n.GetNode("crs")
	l.CRS, l.Frame = DecodeCRS(crsNode)
	l.GeometryKind, _ = n.GetString("geomType")
	if fields, ok := n.GetNode("attributes"); ok {
		for _, name := range fields.Names() {
			t, _ := fields.GetString(name)
			l.Fields = append(l.Fields, Field{Name: name, Type: t})
		}
	}
	l.Renderer, _ = n.GetNode("renderer")
	if e, ok := n.GetNode("extent"); ok {
		l.Extent = decodeExtent(e)
	}
	elems, ok := n.GetList("elements")
	if !ok {
		elems, _ = n.GetList("features")
	}
	bad = make(map[string]error)
	for i, v := range elems {
		en, ok := v.AsNode()
		if !ok || en.Type() != TypeFeature {
			continue
		}
		f, ferr := DecodeFeature(en)
		if ferr != nil {
			id := en.ApplicationID()
			if id == "" {
				id = fmt.Sprintf("element %d", i)
			}
			bad[id] = ferr
			continue
		}
		l.Elements = append(l.Elements, f)
	}
	return l, bad, nil
}

// RasterLayer is the interchange form of a host raster layer. NoData holds
// NaN for bands without a no-data value.
type RasterLayer struct {
	Name        string
	CRS         transform.CRS
	Frame       transform.Frame
	Units       string
	BandNames   []string
	BandValues  [][]float64
	OriginX     float64
	OriginY     float64
	ResX        float64
	ResY        float64
	Width       int
	Height      int
	NoData      []float64
	Renderer    *Node
	DisplayMesh *Mesh
}

func (l *RasterLayer) Node() *Node {
	names := make([]Value, len(l.BandNames))
	for i, b := range l.BandNames {
		names[i] = String(b)
	}
	bands := make([]Value, len(l.BandValues))
	for i, b := range l.BandValues {
		bands[i] = Floats(b)
	}
	n := New(TypeRasterLayer).
		Set("name", String(l.Name)).
		Set("crs", NodeValue(CRSNode(l.CRS, l.Frame))).
		Set("units", String(l.Units)).
		Set("band_names", List(names...)).
		Set("band_values", List(bands...)).
		Set("x_origin", Float(l.OriginX)).
		Set("y_origin", Float(l.OriginY)).
		Set("x_resolution", Float(l.ResX)).
		Set("y_resolution", Float(l.ResY)).
		Set("x_size", Int(int64(l.Width))).
		Set("y_size", Int(int64(l.Height))).
		Set("noDataValue", Floats(l.NoData)).
		Set("renderer", NodeValue(l.Renderer))
	if l.DisplayMesh != nil {
		n.Set("displayValue", List(NodeValue(l.DisplayMesh.Node())))
	}
	return n
}

// DecodeRasterLayer ...
func DecodeRasterLayer(n *Node) (*RasterLayer, error) {
	if n.Type() != TypeRasterLayer {
		return nil, fmt.Errorf("%w: expected raster layer, got %q", ErrMalformed, n.Type())
	}
	l := &RasterLayer{Name: n.Name(), Units: units(n)}
	crsNode, _ := n.GetNode("crs")
	l.CRS, l.Frame = DecodeCRS(crsNode)
	names, _ := n.GetList("band_names")
	for _, v := range names {
		s, _ := v.AsString()
		l.BandNames = append(l.BandNames, s)
	}
	bands, _ := n.GetList("band_values")
	for i, v := range bands {
		vals, ok := nanFloats(v)
		if !ok {
			return nil, fmt.Errorf("%w: band %d is not numeric", ErrMalformed, i)
		}
		l.BandValues = append(l.BandValues, vals)
	}
	l.OriginX, _ = n.GetFloat("x_origin")
	l.OriginY, _ = n.GetFloat("y_origin")
	l.ResX, _ = n.GetFloat("x_resolution")
	l.ResY, _ = n.GetFloat("y_resolution")
	w, _ := n.GetInt("x_size")
	h, _ := n.GetInt("y_size")
	l.Width, l.Height = int(w), int(h)
	if v, ok := n.Get("noDataValue"); ok {
		l.NoData, _ = nanFloats(v)
	}
	for len(l.NoData) < len(l.BandValues) {
		l.NoData = append(l.NoData, math.NaN())
	}
	l.Renderer, _ = n.GetNode("renderer")
	if dv, ok := n.GetList("displayValue"); ok && len(dv) > 0 {
		if mn, ok := dv[0].AsNode(); ok {
			m, err := DecodeMesh(mn)
			if err != nil {
				return nil, err
			}
			l.DisplayMesh = m
		}
	}
	for i, b := range l.BandValues {
		if len(b) != l.Width*l.Height {
			return nil, fmt.Errorf("%w: band %d has %d values for a %dx%d grid", ErrMalformed, i, len(b), l.Width, l.Height)
		}
	}
	return l, nil
}

// nanFloats reads a numeric list where nulls stand for NaN.
func nanFloats(v Value) ([]float64, bool) {
	l, ok := v.AsList()
	if !ok {
		return nil, false
	}
	out := make([]float64, len(l))
	for i, e := range l {
		if e.IsNull() {
			out[i] = math.NaN()
			continue
		}
		f, ok := e.AsFloat()
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}
