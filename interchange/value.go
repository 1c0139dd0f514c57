package interchange

import (
	"fmt"
	"math"
	"strconv"
)

// ValueKind enumerates the closed set of attribute value shapes.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindNode
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindNode:
		return "node"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Value is an attribute value: a scalar, a nested node or a list of values.
// The zero Value is null.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	n    *Node
	l    []Value
}

func Null() Value { return Value{} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func List(vs ...Value) Value { return Value{kind: KindList, l: vs} }
func NodeValue(n *Node) Value {
	if n == nil {
		return Null()
	}
	return Value{kind: KindNode, n: n}
}

// Floats builds a list of float values.
func Floats(fs []float64) Value {
	l := make([]Value, len(fs))
	for i, f := range fs {
		l[i] = Float(f)
	}
	return List(l...)
}

// Ints builds a list of int values.
func Ints(is []int32) Value {
	l := make([]Value, len(is))
	for i, v := range is {
		l[i] = Int(int64(v))
	}
	return List(l...)
}

// Nodes builds a list of node values, skipping nil nodes.
func Nodes(ns []*Node) Value {
	l := make([]Value, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			l = append(l, NodeValue(n))
		}
	}
	return List(l...)
}

// Scalar converts a Go value into a Value. Nodes, slices of values and the
// common scalar types map to their kind; anything else is stored as its
// fmt representation.
func Scalar(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case *Node:
		return NodeValue(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint:
		return Int(int64(t))
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case string:
		return String(t)
	case []interface{}:
		l := make([]Value, len(t))
		for i, e := range t {
			l[i] = Scalar(e)
		}
		return List(l...)
	case []string:
		l := make([]Value, len(t))
		for i, e := range t {
			l[i] = String(e)
		}
		return List(l...)
	case []float64:
		return Floats(t)
	case map[string]interface{}:
		n := New(TypeBase)
		for _, k := range sortedKeys(t) {
			n.Set(k, Scalar(t[k]))
		}
		return NodeValue(n)
	}
	return String(fmt.Sprintf("%v", v))
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsNode() bool { return v.kind == KindNode }
func (v Value) IsList() bool { return v.kind == KindList }

// IsScalar reports whether v is neither a node nor a list.
func (v Value) IsScalar() bool {
	return v.kind != KindNode && v.kind != KindList
}

// IsNumeric reports whether v is an int or a float.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns ints, and floats without a fractional part.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) {
			return int64(v.f), true
		}
	}
	return 0, false
}

// AsFloat returns ints and floats as float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) AsNode() (*Node, bool) {
	return v.n, v.kind == KindNode
}

func (v Value) AsList() ([]Value, bool) {
	return v.l, v.kind == KindList
}

// AsFloats returns a numeric list as float64s.
func (v Value) AsFloats() ([]float64, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]float64, len(v.l))
	for i, e := range v.l {
		f, ok := e.AsFloat()
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// AsInts returns an integral list as int32s.
func (v Value) AsInts() ([]int32, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]int32, len(v.l))
	for i, e := range v.l {
		n, ok := e.AsInt()
		if !ok {
			return nil, false
		}
		out[i] = int32(n)
	}
	return out, true
}

// Interface returns the Go representation of a scalar value: nil, bool,
// int64, float64 or string. Nodes are returned as *Node, lists as
// []interface{}.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindNode:
		return v.n
	case KindList:
		out := make([]interface{}, len(v.l))
		for i, e := range v.l {
			out[i] = e.Interface()
		}
		return out
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindNode:
		return v.n.Type() + "#" + v.n.ID()
	}
	return fmt.Sprintf("%v", v.Interface())
}
