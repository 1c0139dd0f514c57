// Package traverse walks a received interchange graph and locates the
// content that can become host layers.
package traverse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/untillpro/goutils/logger"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/schema"
)

// Separator joins the ancestor names of a unit path.
const Separator = "::"

// ErrUnresolvedReference is noted for references whose target is not in
// the graph.
var ErrUnresolvedReference = errors.New("unresolved reference")

// Unit is one piece of convertible content: either a layer node or a group
// of loose geometry found under the same named ancestor.
type Unit struct {
	Layer    *interchange.Node
	Geometry []*interchange.Node
	Path     []string
}

// IsLayer ...
func (u Unit) IsLayer() bool {
	return u.Layer != nil
}

// PathString returns the path joined by Separator.
func (u Unit) PathString() string {
	return strings.Join(u.Path, Separator)
}

// Name is the last path element.
func (u Unit) Name() string {
	if len(u.Path) == 0 {
		return ""
	}
	return u.Path[len(u.Path)-1]
}

// Options ...
type Options struct {
	// Graph resolves references; built from the root when nil.
	Graph *interchange.Graph
	// Cancel stops the walk between nodes.
	Cancel *convert.Cancel
}

type state uint8

const (
	unvisited state = iota
	visiting
	emitted
)

type walker struct {
	graph  *interchange.Graph
	cancel *convert.Cancel
	report *convert.Report
	states map[string]state
	steps  []step
	units  []Unit
	groups map[string]int
}

// step classifies a node; it returns true when the node is handled and the
// chain stops.
type step struct {
	name  string
	apply func(w *walker, n *interchange.Node, path []string) bool
}

// steps returns the classification chain in the order it is tried.
func steps() []step {
	return []step{
		{"layer", (*walker).layer},
		{"reference", (*walker).reference},
		{"geometry", (*walker).geometry},
		{"descend", (*walker).descend},
	}
}

// Locate walks the graph from root and returns its units in the order they
// were found. Nodes that cannot be handled are skipped and noted.
func Locate(root *interchange.Node, opts Options) ([]Unit, *convert.Report) {
	w := &walker{
		graph:  opts.Graph,
		cancel: opts.Cancel,
		report: convert.NewReport(),
		states: make(map[string]state),
		steps:  steps(),
		groups: make(map[string]int),
	}
	if root == nil {
		return nil, w.report
	}
	if w.graph == nil {
		w.graph = interchange.NewGraph(root)
	}
	w.visit(root, nil)
	if w.cancel.Cancelled() {
		w.report.Add("", fmt.Errorf("[Locate] in pkg [traverse] encountered: %w", convert.ErrCancelled))
	}
	logger.Verbose(fmt.Sprintf("traverse: %d units located", len(w.units)))
	return w.units, w.report
}

func (w *walker) visit(n *interchange.Node, path []string) {
	if n == nil || w.cancel.Cancelled() {
		return
	}
	id := n.ID()
	switch w.states[id] {
	case visiting:
		logger.Verbose(fmt.Sprintf("traverse: cycle at %s %s", n.Type(), id))
		return
	case emitted:
		return
	}
	for _, s := range w.steps {
		if s.apply(w, n, path) {
			logger.Verbose(fmt.Sprintf("traverse: %s %s handled as %s", n.Type(), id, s.name))
			return
		}
	}
}

func (w *walker) visitValue(v interchange.Value, path []string) {
	switch {
	case v.IsNode():
		n, _ := v.AsNode()
		w.visit(n, path)
	case v.IsList():
		l, _ := v.AsList()
		for _, e := range l {
			w.visitValue(e, path)
		}
	}
}

// IsLayer reports whether n is a layer node the assembler can receive.
func IsLayer(n *interchange.Node) bool {
	switch n.Type() {
	case interchange.TypeVectorLayer, interchange.TypeRasterLayer, interchange.TypeLegacyLayer:
		return true
	}
	return false
}

func (w *walker) layer(n *interchange.Node, path []string) bool {
	if !IsLayer(n) {
		return false
	}
	w.states[n.ID()] = emitted
	w.units = append(w.units, Unit{Layer: n, Path: extend(path, n.Name())})
	return true
}

func (w *walker) reference(n *interchange.Node, path []string) bool {
	if !interchange.IsReference(n) {
		return false
	}
	target, ok := w.graph.Resolve(n)
	if !ok {
		id, _ := n.GetString("referencedId")
		w.report.Addf(id, ErrUnresolvedReference, "reference under %q skipped", strings.Join(path, Separator))
		return true
	}
	w.visit(target, path)
	return true
}

func (w *walker) geometry(n *interchange.Node, path []string) bool {
	if !interchange.IsGeometry(n) && n.Type() != interchange.TypeFeature {
		return false
	}
	w.states[n.ID()] = emitted
	key := strings.Join(path, Separator)
	i, ok := w.groups[key]
	if !ok {
		i = len(w.units)
		w.groups[key] = i
		w.units = append(w.units, Unit{Path: append([]string(nil), path...)})
	}
	w.units[i].Geometry = append(w.units[i].Geometry, n)
	return true
}

func (w *walker) descend(n *interchange.Node, path []string) bool {
	id := n.ID()
	w.states[id] = visiting
	path = extend(path, n.Name())
	skipDisplay := displayReachable(n)
	for _, key := range n.Names() {
		if skipKey(key) || (skipDisplay && isDisplayKey(key)) {
			continue
		}
		v, _ := n.Get(key)
		w.visitValue(v, path)
	}
	w.states[id] = emitted
	return true
}

func extend(path []string, name string) []string {
	out := append([]string(nil), path...)
	if name != "" {
		out = append(out, name)
	}
	return out
}

func isDisplayKey(key string) bool {
	return key == "displayValue" || key == "@displayValue"
}

// skipKey reports object model keys that never lead to content. Display
// and geometry members are decided per node.
func skipKey(key string) bool {
	return schema.Structural(key) && !isDisplayKey(key) && key != "geometry"
}

// displayReachable reports whether the display content of n is a rendition
// of geometry the walk reaches anyway.
func displayReachable(n *interchange.Node) bool {
	if strings.HasPrefix(n.Type(), "Objects.GIS.") {
		return true
	}
	for _, key := range []string{"geometry", "elements", "features"} {
		if v, ok := n.Get(key); ok && !v.IsNull() {
			return true
		}
	}
	return false
}
