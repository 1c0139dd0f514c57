package layer

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/untillpro/goutils/logger"
	"golang.org/x/exp/maps"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/geometry"
	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/meshstore"
	"github.com/godeepar/geoxchange/schema"
	"github.com/godeepar/geoxchange/symbology"
	"github.com/godeepar/geoxchange/transform"
	"github.com/godeepar/geoxchange/traverse"
)

// LooseName names the layers of loose geometry found outside any named
// ancestor.
const LooseName = "Objects"

// receiveContext is the context mapping coordinates of a layer expressed in
// crs under frame back into the host CRS.
func (a *Assembler) receiveContext(crs transform.CRS, frame transform.Frame, units string) *convert.ConversionContext {
	cp := *a.Ctx
	hostCRS := cp.Pipeline.Source
	if hostCRS.IsZero() {
		hostCRS = crs
	}
	cp.Pipeline = transform.Pipeline{Source: hostCRS, Target: crs, Frame: frame, Reprojector: a.Ctx.Pipeline.Reprojector}
	if units != "" {
		cp.UnitsTarget = transform.NormalizeUnits(units)
	}
	if hostCRS.Units != "" && !hostCRS.IsGeographic() {
		cp.UnitsSource = transform.NormalizeUnits(hostCRS.Units)
	}
	return &cp
}

// Receive converts an interchange layer node into a host layer named after
// path, or after the layer itself when path is empty.
func (a *Assembler) Receive(n *interchange.Node, path string) (*host.Layer, *convert.Report, error) {
	report := convert.NewReport()
	name := path
	if name == "" {
		name = n.Name()
	}
	var (
		l   *host.Layer
		err error
	)
	switch n.Type() {
	case interchange.TypeRasterLayer:
		l, err = a.receiveRaster(n, name)
	case interchange.TypeVectorLayer, interchange.TypeLegacyLayer:
		l, err = a.receiveVector(n, name, report)
	default:
		err = fail("Receive", "%q is not a layer", n.Type())
	}
	if err != nil {
		return nil, report, err
	}
	logger.Info(fmt.Sprintf("layer %s received: %d features, %d notes", name, len(l.Features), report.Len()))
	return l, report, nil
}

func (a *Assembler) receiveVector(n *interchange.Node, name string, report *convert.Report) (*host.Layer, error) {
	vl, bad, err := interchange.DecodeVectorLayer(n)
	if err != nil {
		return nil, fmt.Errorf("[Receive] in pkg [layer] encountered: %w: %w", convert.ErrLayerConversion, err)
	}
	ids := maps.Keys(bad)
	sort.Strings(ids)
	for _, id := range ids {
		report.Add(id, bad[id])
	}

	ctx := a.receiveContext(vl.CRS, vl.Frame, vl.Units)
	codec := a.codec(ctx, report)
	fs := hostFields(vl.Fields)
	if len(fs) == 0 {
		fs = schema.Infer(vl.Elements, report).Fields()
	} else if !hasID(fs) {
		fs = append(fs, host.Field{Name: schema.IDField, Type: host.FieldString})
	}

	out := &host.Layer{Name: name, CRS: ctx.Pipeline.Source, Units: ctx.UnitsSource, Kind: vl.GeometryKind, Fields: fs}
	var staged []meshstore.Entry
	withGeometry, converted := len(bad), 0
	for _, e := range vl.Elements {
		if err := a.cancelled(report, "Receive"); err != nil {
			return nil, err
		}
		f := &host.Feature{ID: e.ApplicationID, Attributes: hostAttributes(e, fs)}
		if len(e.Geometry) > 0 {
			withGeometry++
			g, err := receiveParts(codec, e.Geometry)
			if err != nil {
				report.Add(e.ApplicationID, err)
				continue
			}
			f.Geometry = g
			converted++
			if s, ok := g.(*host.PolyhedralSurface); ok {
				staged = append(staged, meshstore.Entry{ID: f.ID, Mesh: s})
			}
		}
		out.Features = append(out.Features, f)
	}
	if withGeometry > 0 && converted == 0 {
		return nil, fail("Receive", "none of the %d features of %s converted", withGeometry, name)
	}
	if out.Kind == "" {
		out.Kind = out.GeometryKind()
	}
	out.Renderer = symbology.ToHost(symbology.DecodeNode(vl.Renderer), out.GeometryKind(), fs)
	a.stage(name, staged, report)
	return out, nil
}

func hasID(fs []host.Field) bool {
	for _, f := range fs {
		if f.Name == schema.IDField {
			return true
		}
	}
	return false
}

// hostAttributes reads the attributes of e in schema order.
func hostAttributes(e *interchange.Feature, fs []host.Field) []host.Attribute {
	flat := make(map[string]interchange.Value)
	for _, entry := range schema.Flatten(e.Attributes) {
		flat[entry.Name] = entry.Value
	}
	out := make([]host.Attribute, 0, len(fs))
	for _, f := range fs {
		if f.Name == schema.IDField {
			out = append(out, host.Attribute{Key: f.Name, Value: e.ApplicationID})
			continue
		}
		out = append(out, host.Attribute{Key: f.Name, Value: schema.Convert(flat[f.Name], f.Type)})
	}
	return out
}

// receiveParts converts the primitives of one feature and merges them into
// a single host geometry.
func receiveParts(codec *geometry.Codec, parts []interchange.Geometry) (host.Geometry, error) {
	hs := make([]host.Geometry, 0, len(parts))
	for _, p := range parts {
		g, err := codec.ToHost(p)
		if err != nil {
			return nil, err
		}
		hs = append(hs, g)
	}
	return geometry.MergeHost(hs)
}

var unsafeName = strings.NewReplacer(traverse.Separator, "_", "/", "_", "\\", "_", " ", "_")

// stage writes the received meshes of a layer into the staging directory.
// A failed write is noted and never fails the layer.
func (a *Assembler) stage(name string, entries []meshstore.Entry, report *convert.Report) {
	if a.StageDir == "" || len(entries) == 0 {
		return
	}
	path := filepath.Join(a.StageDir, unsafeName.Replace(name)+".shp")
	if err := meshstore.Write(path, entries); err != nil {
		report.Addf(name, nil, "mesh staging failed: %v", err)
		return
	}
	logger.Verbose(fmt.Sprintf("layer %s: %d meshes staged in %s", name, len(entries), path))
}

func (a *Assembler) receiveRaster(n *interchange.Node, name string) (*host.Layer, error) {
	rl, err := interchange.DecodeRasterLayer(n)
	if err != nil {
		return nil, fmt.Errorf("[Receive] in pkg [layer] encountered: %w: %w", convert.ErrLayerConversion, err)
	}
	grid := &host.Grid{
		CRS:       rl.CRS,
		OriginX:   rl.OriginX,
		OriginY:   rl.OriginY,
		ResX:      rl.ResX,
		ResY:      rl.ResY,
		Width:     rl.Width,
		Height:    rl.Height,
		Bands:     rl.BandValues,
		BandNames: rl.BandNames,
		NoData:    rl.NoData,
	}
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("[Receive] in pkg [layer] encountered: %w: %w", convert.ErrLayerConversion, err)
	}
	return &host.Layer{
		Name:     name,
		CRS:      rl.CRS,
		Units:    rl.Units,
		Kind:     interchange.KindRaster,
		Grid:     grid,
		Renderer: symbology.ToHost(symbology.DecodeNode(rl.Renderer), interchange.KindRaster, nil),
	}, nil
}

// looseFeature wraps a geometry node found outside a layer as a feature;
// feature nodes decode as they are.
func looseFeature(n *interchange.Node) (*interchange.Feature, error) {
	var f *interchange.Feature
	if n.Type() == interchange.TypeFeature {
		var err error
		if f, err = interchange.DecodeFeature(n); err != nil {
			return nil, err
		}
	} else {
		g, err := interchange.DecodeGeometry(n)
		if err != nil {
			return nil, err
		}
		f = &interchange.Feature{Geometry: []interchange.Geometry{g}, Attributes: interchange.New(interchange.TypeBase), ApplicationID: n.ApplicationID()}
	}
	if f.ApplicationID == "" {
		f.ApplicationID = n.ID()
	}
	return f, nil
}

type family struct {
	layer    *host.Layer
	elems    []*interchange.Feature
	color    int32
	hasColor bool
}

// ReceiveGeometry converts a group of loose geometry into one host layer
// per geometry family.
func (a *Assembler) ReceiveGeometry(u traverse.Unit) ([]*host.Layer, *convert.Report, error) {
	report := convert.NewReport()
	base := u.PathString()
	if base == "" {
		base = LooseName
	}
	codec := a.codec(a.Ctx, report)
	families := make(map[string]*family)
	var order []string
	for _, n := range u.Geometry {
		if err := a.cancelled(report, "ReceiveGeometry"); err != nil {
			return nil, report, err
		}
		e, err := looseFeature(n)
		if err != nil {
			report.Add(n.ID(), err)
			continue
		}
		g, err := receiveParts(codec, e.Geometry)
		if err != nil {
			report.Add(e.ApplicationID, err)
			continue
		}
		if g == nil {
			continue
		}
		kind := host.KindOf(g)
		fam, ok := families[kind]
		if !ok {
			fam = &family{layer: &host.Layer{
				Name:  base + "_" + kind,
				CRS:   a.Ctx.Pipeline.Source,
				Units: a.Ctx.UnitsSource,
				Kind:  kind,
			}}
			families[kind] = fam
			order = append(order, kind)
		}
		if c, ok := interchange.ColorOf(e.Geometry[0]); ok && !fam.hasColor {
			fam.color, fam.hasColor = c, true
		}
		fam.elems = append(fam.elems, e)
		fam.layer.Features = append(fam.layer.Features, &host.Feature{ID: e.ApplicationID, Geometry: g})
	}
	if len(u.Geometry) > 0 && len(order) == 0 {
		return nil, report, fail("ReceiveGeometry", "no geometry of %s converted", base)
	}

	out := make([]*host.Layer, 0, len(order))
	for _, kind := range order {
		fam := families[kind]
		fs := schema.Infer(fam.elems, report).Fields()
		for i, f := range fam.layer.Features {
			f.Attributes = hostAttributes(fam.elems[i], fs)
		}
		fam.layer.Fields = fs
		color := symbology.DefaultColor
		if fam.hasColor {
			color = fam.color
		}
		fam.layer.Renderer = symbology.ToHost(symbology.New(symbology.SingleSymbol, symbology.SymbolProps{Color: color}), kind, fs)
		out = append(out, fam.layer)
	}
	return out, report, nil
}

// ReceiveGraph locates every unit of a received graph and converts it.
// A unit that fails is noted and the walk goes on.
func (a *Assembler) ReceiveGraph(root *interchange.Node) ([]*host.Layer, *convert.Report) {
	units, report := traverse.Locate(root, traverse.Options{Cancel: a.Ctx.Cancel})
	var out []*host.Layer
	for _, u := range units {
		var (
			ls  []*host.Layer
			r   *convert.Report
			err error
		)
		if u.IsLayer() {
			var l *host.Layer
			l, r, err = a.Receive(u.Layer, u.PathString())
			if l != nil {
				ls = []*host.Layer{l}
			}
		} else {
			ls, r, err = a.ReceiveGeometry(u)
		}
		report.Merge(r)
		if errors.Is(err, convert.ErrCancelled) {
			break
		}
		if err != nil {
			report.Add(u.PathString(), err)
			continue
		}
		out = append(out, ls...)
	}
	return out, report
}
