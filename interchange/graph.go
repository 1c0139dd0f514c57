package interchange

// Graph is an arena of nodes keyed by identity. Reference nodes are
// resolved through it, so shared sub-nodes resolve to the same object.
type Graph struct {
	Root  *Node
	nodes map[string]*Node
}

// NewGraph indexes every node reachable from root.
func NewGraph(root *Node) *Graph {
	g := &Graph{Root: root, nodes: make(map[string]*Node)}
	g.index(root, make(map[*Node]bool))
	return g
}

func (g *Graph) index(n *Node, seen map[*Node]bool) {
	if n == nil || seen[n] {
		return
	}
	seen[n] = true
	g.nodes[n.ID()] = n
	for _, name := range n.names {
		g.indexValue(n.attrs[name], seen)
	}
}

func (g *Graph) indexValue(v Value, seen map[*Node]bool) {
	switch v.kind {
	case KindNode:
		g.index(v.n, seen)
	case KindList:
		for _, e := range v.l {
			g.indexValue(e, seen)
		}
	}
}

// Add stores a detached node, e.g. one received separately from its
// referrers.
func (g *Graph) Add(n *Node) {
	g.index(n, make(map[*Node]bool))
}

func (g *Graph) Lookup(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) Len() int {
	return len(g.nodes)
}

// Resolve follows reference nodes to their target. A node that is not a
// reference resolves to itself; a dangling reference does not resolve.
func (g *Graph) Resolve(n *Node) (*Node, bool) {
	seen := 0
	for IsReference(n) {
		id, _ := n.GetString("referencedId")
		target, ok := g.Lookup(id)
		if !ok || seen > len(g.nodes) {
			return nil, false
		}
		n = target
		seen++
	}
	return n, n != nil
}

// Reference returns a pointer node to target.
func Reference(target *Node) *Node {
	return New(TypeReference).Set("referencedId", String(target.ID()))
}

// IsReference reports whether n only points to another node.
func IsReference(n *Node) bool {
	return n != nil && n.typ == TypeReference
}
