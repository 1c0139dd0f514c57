package interchange

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Node is a generically attributed record of the interchange graph. It
// carries a type tag, attributes in member order and side-channel metadata
// that does not take part in its identity.
//
// Nodes are built once per conversion. Once ID has been taken the node
// must not be changed any more.
type Node struct {
	typ   string
	names []string
	attrs map[string]Value
	meta  map[string]Value
	id    string
}

// New returns an empty node of the given type.
func New(typ string) *Node {
	return &Node{typ: typ, attrs: make(map[string]Value)}
}

func (n *Node) Type() string {
	if n == nil {
		return ""
	}
	return n.typ
}

// Set stores an attribute. Replacing an attribute keeps its position.
func (n *Node) Set(name string, v Value) *Node {
	if _, ok := n.attrs[name]; !ok {
		n.names = append(n.names, name)
	}
	n.attrs[name] = v
	n.id = ""
	return n
}

// Delete removes an attribute.
func (n *Node) Delete(name string) {
	if _, ok := n.attrs[name]; !ok {
		return
	}
	delete(n.attrs, name)
	kept := n.names[:0]
	for _, s := range n.names {
		if s != name {
			kept = append(kept, s)
		}
	}
	n.names = kept
	n.id = ""
}

func (n *Node) Get(name string) (Value, bool) {
	if n == nil {
		return Value{}, false
	}
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) Has(name string) bool {
	_, ok := n.Get(name)
	return ok
}

// Names returns attribute names in member order.
func (n *Node) Names() []string {
	if n == nil {
		return nil
	}
	return slices.Clone(n.names)
}

func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.names)
}

// SetMeta stores a side-channel attribute, e.g. a display color.
func (n *Node) SetMeta(name string, v Value) *Node {
	if n.meta == nil {
		n.meta = make(map[string]Value)
	}
	n.meta[name] = v
	return n
}

func (n *Node) GetMeta(name string) (Value, bool) {
	if n == nil || n.meta == nil {
		return Value{}, false
	}
	v, ok := n.meta[name]
	return v, ok
}

// MetaNames returns side-channel attribute names, sorted.
func (n *Node) MetaNames() []string {
	if n == nil {
		return nil
	}
	names := maps.Keys(n.meta)
	slices.Sort(names)
	return names
}

func (n *Node) GetFloat(name string) (float64, bool) {
	v, ok := n.Get(name)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

func (n *Node) GetInt(name string) (int64, bool) {
	v, ok := n.Get(name)
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

func (n *Node) GetBool(name string) (bool, bool) {
	v, ok := n.Get(name)
	if !ok {
		return false, false
	}
	return v.AsBool()
}

func (n *Node) GetString(name string) (string, bool) {
	v, ok := n.Get(name)
	if !ok {
		return "", false
	}
	return v.AsString()
}

func (n *Node) GetNode(name string) (*Node, bool) {
	v, ok := n.Get(name)
	if !ok {
		return nil, false
	}
	return v.AsNode()
}

func (n *Node) GetList(name string) ([]Value, bool) {
	v, ok := n.Get(name)
	if !ok {
		return nil, false
	}
	return v.AsList()
}

// Name returns the display name of the node: its "name" attribute, empty
// when it has none.
func (n *Node) Name() string {
	s, _ := n.GetString("name")
	return s
}

// ApplicationID returns the host id the node was created from.
func (n *Node) ApplicationID() string {
	s, _ := n.GetString("applicationId")
	return s
}

func sortedKeys(m map[string]interface{}) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
