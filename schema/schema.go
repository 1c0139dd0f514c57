// Package schema derives a layer attribute schema from heterogeneous
// feature attributes.
package schema

import (
	"fmt"
	"strconv"

	"github.com/untillpro/goutils/logger"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
)

// IDField is the identity column every schema ends with.
const IDField = "Speckle_ID"

// Entry is one flattened attribute.
type Entry struct {
	Name  string
	Value interchange.Value
}

// Structural reports whether key belongs to the object model rather than to
// the attribute data.
func Structural(key string) bool {
	switch key {
	case "id", "applicationId", "units", "type", "speckle_type", "geometry",
		"displayValue", "@displayValue", "renderMaterial", "bbox", "totalChildrenCount":
		return true
	}
	return false
}

// Flatten turns an attribute node into flat entries: nested nodes become
// parent_child names, lists expand per index as name_0, name_1 and so on.
// Structural keys are skipped at every level.
func Flatten(attrs *interchange.Node) []Entry {
	if attrs == nil {
		return nil
	}
	var out []Entry
	for _, name := range attrs.Names() {
		if Structural(name) {
			continue
		}
		v, _ := attrs.Get(name)
		out = flattenValue(out, name, v)
	}
	return out
}

func flattenValue(out []Entry, name string, v interchange.Value) []Entry {
	switch {
	case v.IsNode():
		n, _ := v.AsNode()
		for _, e := range Flatten(n) {
			out = append(out, Entry{Name: name + "_" + e.Name, Value: e.Value})
		}
		return out
	case v.IsList():
		l, _ := v.AsList()
		for i, e := range l {
			out = flattenValue(out, name+"_"+strconv.Itoa(i), e)
		}
		return out
	}
	return append(out, Entry{Name: name, Value: v})
}

// TypeOf returns the field type a scalar value asks for; ok is false for
// null.
func TypeOf(v interchange.Value) (t host.FieldType, ok bool) {
	switch v.Kind() {
	case interchange.KindBool:
		return host.FieldBool, true
	case interchange.KindInt:
		return host.FieldInteger, true
	case interchange.KindFloat:
		return host.FieldDouble, true
	case interchange.KindNull:
		return "", false
	}
	return host.FieldString, true
}

// Widen returns the narrowest type holding values of both a and b. Integer
// widens to Double, any other mix to String.
func Widen(a, b host.FieldType) host.FieldType {
	switch {
	case a == "":
		return b
	case b == "", a == b:
		return a
	case rank(a) > 0 && rank(b) > 0:
		if rank(a) > rank(b) {
			return a
		}
		return b
	}
	return host.FieldString
}

func rank(t host.FieldType) int {
	switch t {
	case host.FieldInteger:
		return 1
	case host.FieldDouble:
		return 2
	}
	return 0
}

// Schema accumulates field types over scanned features. Field order is the
// order of first appearance.
type Schema struct {
	// Report receives a note for every widening; may be nil.
	Report *convert.Report

	names []string
	types map[string]host.FieldType
}

// New ...
func New(report *convert.Report) *Schema {
	return &Schema{Report: report, types: make(map[string]host.FieldType)}
}

// Scan folds the entries of one feature into the schema. A null value
// registers the field without typing it.
func (s *Schema) Scan(featureID string, entries []Entry) {
	for _, e := range entries {
		if e.Name == IDField {
			continue
		}
		prev, known := s.types[e.Name]
		if !known {
			s.names = append(s.names, e.Name)
		}
		t, ok := TypeOf(e.Value)
		if !ok {
			s.types[e.Name] = prev
			continue
		}
		next := Widen(prev, t)
		if prev != "" && next != prev {
			s.Report.Add(featureID, fmt.Errorf("%w: field %q widened from %s to %s", convert.ErrSchemaConflict, e.Name, prev, next))
		}
		s.types[e.Name] = next
	}
}

// ScanNode flattens and scans an attribute node.
func (s *Schema) ScanNode(featureID string, attrs *interchange.Node) {
	s.Scan(featureID, Flatten(attrs))
}

// ScanHost scans host attributes.
func (s *Schema) ScanHost(featureID string, attrs []host.Attribute) {
	n := interchange.New(interchange.TypeBase)
	for _, a := range attrs {
		n.Set(a.Key, interchange.Scalar(a.Value))
	}
	s.ScanNode(featureID, n)
}

// Type returns the current type of name; a field seen only with nulls has
// no type yet.
func (s *Schema) Type(name string) (host.FieldType, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Fields returns the resolved schema: untyped fields become String and the
// identity field comes last.
func (s *Schema) Fields() []host.Field {
	out := make([]host.Field, 0, len(s.names)+1)
	for _, name := range s.names {
		t := s.types[name]
		if t == "" {
			t = host.FieldString
		}
		out = append(out, host.Field{Name: name, Type: t})
	}
	return append(out, host.Field{Name: IDField, Type: host.FieldString})
}

// Infer scans the attributes of every feature.
func Infer(features []*interchange.Feature, report *convert.Report) *Schema {
	s := New(report)
	for _, f := range features {
		s.ScanNode(f.ApplicationID, f.Attributes)
	}
	logger.Verbose(fmt.Sprintf("schema: %d fields from %d features", len(s.names), len(features)))
	return s
}

// InferHost scans the attributes of host features.
func InferHost(features []*host.Feature, report *convert.Report) *Schema {
	s := New(report)
	for _, f := range features {
		s.ScanHost(f.ID, f.Attributes)
	}
	return s
}

// Convert coerces a flattened value into a field type. Values that cannot be
// represented become nil.
func Convert(v interchange.Value, t host.FieldType) interface{} {
	if v.IsNull() {
		return nil
	}
	switch t {
	case host.FieldBool:
		b, ok := v.AsBool()
		if !ok {
			return nil
		}
		return b
	case host.FieldInteger:
		i, ok := v.AsInt()
		if !ok {
			return nil
		}
		return i
	case host.FieldDouble:
		f, ok := v.AsFloat()
		if !ok {
			return nil
		}
		return f
	}
	if s, ok := v.AsString(); ok {
		return s
	}
	return v.String()
}
