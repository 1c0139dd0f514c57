package interchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// The JSON form is a debug encoding used by the command line tools; the
// transport owns the real wire format. Attributes keep member order, floats
// always carry a decimal point so they decode back as floats and identities
// survive the round trip. Non-finite floats are written as null.

const (
	jsonType = "type"
	jsonID   = "id"
	jsonMeta = "_meta"
)

func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) encode(buf *bytes.Buffer) error {
	buf.WriteString(`{"type":`)
	writeJSONString(buf, n.typ)
	buf.WriteString(`,"id":`)
	writeJSONString(buf, n.ID())
	for _, name := range n.names {
		if name == jsonType || name == jsonID || name == jsonMeta {
			return fmt.Errorf("attribute name %q is reserved", name)
		}
		buf.WriteByte(',')
		writeJSONString(buf, name)
		buf.WriteByte(':')
		if err := encodeValue(buf, n.attrs[name]); err != nil {
			return err
		}
	}
	if len(n.meta) > 0 {
		buf.WriteString(`,"_meta":{`)
		for i, name := range n.MetaNames() {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, name)
			buf.WriteByte(':')
			if err := encodeValue(buf, n.meta[name]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			buf.WriteString("null")
			return nil
		}
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
	case KindString:
		writeJSONString(buf, v.s)
	case KindNode:
		return v.n.encode(buf)
	case KindList:
		buf.WriteByte('[')
		for i, e := range v.l {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("interchange node must be a JSON object")
	}
	decoded, err := decodeNode(dec)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}

// Decode reads one JSON encoded node.
func Decode(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	n := &Node{}
	if err := n.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("[Decode] in pkg [interchange] encountered: %w", err)
	}
	return n, nil
}

// decodeNode reads the members of an object whose '{' was consumed.
func decodeNode(dec *json.Decoder) (*Node, error) {
	n := New("")
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		switch key {
		case jsonType:
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			n.typ, _ = v.AsString()
		case jsonID:
			// identities are recomputed from content
			if _, err := decodeValue(dec); err != nil {
				return nil, err
			}
		case jsonMeta:
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			if m, ok := v.AsNode(); ok {
				for _, name := range m.names {
					n.SetMeta(name, m.attrs[name])
				}
			}
		default:
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			n.Set(key, v)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("unexpected token %v", tok)
	}
	return key, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := t.Int64(); err == nil {
				return Int(i), nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case json.Delim:
		switch t {
		case '{':
			n, err := decodeNode(dec)
			if err != nil {
				return Value{}, err
			}
			return NodeValue(n), nil
		case '[':
			var l []Value
			for dec.More() {
				e, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				l = append(l, e)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return List(l...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}
