package host

import (
	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/transform"
)

// FieldType is the type of a layer attribute column.
type FieldType string

const (
	FieldBool    FieldType = "Bool"
	FieldInteger FieldType = "Integer"
	FieldDouble  FieldType = "Double"
	FieldString  FieldType = "String"
)

// Field ...
type Field struct {
	Name string
	Type FieldType
}

// Attribute is one feature attribute. Value is nil, bool, int64, float64,
// string, []interface{} or map[string]interface{}.
type Attribute struct {
	Key   string
	Value interface{}
}

// Feature ...
type Feature struct {
	ID         string
	Geometry   Geometry
	Attributes []Attribute
}

// Get returns the value of the attribute key.
func (f *Feature) Get(key string) (interface{}, bool) {
	for _, a := range f.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

// Set replaces or appends the attribute key.
func (f *Feature) Set(key string, value interface{}) {
	for i := range f.Attributes {
		if f.Attributes[i].Key == key {
			f.Attributes[i].Value = value
			return
		}
	}
	f.Attributes = append(f.Attributes, Attribute{Key: key, Value: value})
}

// Layer is a host layer: either a vector feature list or a raster grid.
type Layer struct {
	Name     string
	CRS      transform.CRS
	Units    string
	Kind     string
	Fields   []Field
	Features []*Feature
	Renderer Renderer
	Grid     *Grid
}

// IsRaster ...
func (l *Layer) IsRaster() bool {
	return l.Grid != nil
}

// GeometryKind returns Kind, or derives it from the grid or the first
// feature with a geometry.
func (l *Layer) GeometryKind() string {
	if l.Kind != "" {
		return l.Kind
	}
	if l.IsRaster() {
		return interchange.KindRaster
	}
	for _, f := range l.Features {
		if f.Geometry != nil {
			return KindOf(f.Geometry)
		}
	}
	return interchange.KindNoGeom
}

// Field returns the column named name.
func (l *Layer) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
