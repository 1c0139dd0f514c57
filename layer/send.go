package layer

import (
	"errors"
	"fmt"
	"math"

	"github.com/untillpro/goutils/logger"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/geometry"
	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/raster"
	"github.com/godeepar/geoxchange/schema"
	"github.com/godeepar/geoxchange/symbology"
	"github.com/godeepar/geoxchange/transform"
)

// Send converts a host layer into its interchange layer node. Features
// that fail are dropped and noted; only a layer left without any geometry
// fails as a whole.
func (a *Assembler) Send(l *host.Layer) (*interchange.Node, *convert.Report, error) {
	report := convert.NewReport()
	if l == nil {
		return nil, report, fail("Send", "no layer")
	}
	ctx := a.Ctx.WithSource(l.CRS)
	if l.Units != "" && !l.CRS.IsGeographic() {
		ctx.UnitsSource = transform.NormalizeUnits(l.Units)
	}

	var (
		n   *interchange.Node
		err error
	)
	if l.IsRaster() {
		n, err = a.sendRaster(ctx, l, report)
	} else {
		n, err = a.sendVector(ctx, l, report)
	}
	if err != nil {
		return nil, report, err
	}
	logger.Info(fmt.Sprintf("layer %s sent with %d notes", l.Name, report.Len()))
	return n, report, nil
}

// target is the CRS interchange coordinates end up in.
func target(ctx *convert.ConversionContext) transform.CRS {
	if ctx.Pipeline.Target.IsZero() {
		return ctx.Pipeline.Source
	}
	return ctx.Pipeline.Target
}

func (a *Assembler) sendVector(ctx *convert.ConversionContext, l *host.Layer, report *convert.Report) (*interchange.Node, error) {
	codec := a.codec(ctx, report)
	desc := symbology.ToDescriptor(l.Renderer)
	fs := schema.InferHost(l.Features, report).Fields()

	vl := &interchange.VectorLayer{
		Name:         l.Name,
		CRS:          target(ctx),
		Frame:        ctx.Pipeline.Frame,
		Units:        codec.Units(),
		GeometryKind: l.GeometryKind(),
		Fields:       fields(fs),
		Renderer:     desc.Node(),
	}
	withGeometry, converted := 0, 0
	for _, f := range l.Features {
		if err := a.cancelled(report, "Send"); err != nil {
			return nil, err
		}
		attrs := attributes(f, fs)
		elem := &interchange.Feature{Attributes: attrs, ApplicationID: f.ID}
		if f.Geometry != nil {
			withGeometry++
			parts, err := codec.ToInterchange(f.Geometry, geometry.Display{
				FeatureID: f.ID,
				Color:     symbology.ColorFor(desc, attrs),
				HasColor:  true,
			})
			if err != nil {
				report.Add(f.ID, err)
				continue
			}
			elem.Geometry = parts
			converted++
		}
		vl.Elements = append(vl.Elements, elem)
	}
	if withGeometry > 0 && converted == 0 {
		return nil, fail("Send", "none of the %d features of %s converted", withGeometry, l.Name)
	}
	if b, ok := host.Bounds(l); ok {
		vl.Extent = extent(ctx.Pipeline, b)
	}
	return vl.Node(), nil
}

// attributes flattens the host attributes of f into the layer schema. The
// identity field carries the host feature id.
func attributes(f *host.Feature, fs []host.Field) *interchange.Node {
	raw := interchange.New(interchange.TypeBase)
	for _, a := range f.Attributes {
		raw.Set(a.Key, interchange.Scalar(a.Value))
	}
	flat := make(map[string]interchange.Value)
	for _, e := range schema.Flatten(raw) {
		flat[e.Name] = e.Value
	}
	out := interchange.New(interchange.TypeBase)
	for _, field := range fs {
		if field.Name == schema.IDField {
			out.Set(field.Name, interchange.String(f.ID))
			continue
		}
		out.Set(field.Name, interchange.Scalar(schema.Convert(flat[field.Name], field.Type)))
	}
	return out
}

func (a *Assembler) sendRaster(ctx *convert.ConversionContext, l *host.Layer, report *convert.Report) (*interchange.Node, error) {
	if err := l.Grid.Validate(); err != nil {
		return nil, fmt.Errorf("[Send] in pkg [layer] encountered: %w: %w", convert.ErrLayerConversion, err)
	}
	grid := *l.Grid
	if grid.CRS.IsZero() {
		grid.CRS = l.CRS
	}
	r := l.Renderer
	if r == nil {
		r = &host.SingleBandGray{Band: 1}
	}

	opts := a.Raster
	opts.Report = report
	switch src := ctx.ElevationSource; {
	case src == "":
	case src == l.Name:
		opts.ElevationBand = 1
	case a.Elevation != nil:
		elev, err := a.Elevation.ReadGrid(src)
		if err != nil {
			report.Addf(l.Name, convert.ErrLayerConversion, "elevation source %s unreadable, mesh left flat: %v", src, err)
			break
		}
		opts.Elevation = elev
	default:
		logger.Warning(fmt.Sprintf("layer %s: no reader for elevation source %s", l.Name, src))
	}

	m, err := raster.BuildRasterMesh(ctx, &grid, r, opts)
	if err != nil {
		if errors.Is(err, convert.ErrCancelled) {
			return nil, err
		}
		return nil, fmt.Errorf("[Send] in pkg [layer] encountered: %w: %w", convert.ErrLayerConversion, err)
	}

	names := append([]string(nil), grid.BandNames...)
	for len(names) < len(grid.Bands) {
		names = append(names, fmt.Sprintf("Band %d", len(names)+1))
	}
	nodata := append([]float64(nil), grid.NoData...)
	for len(nodata) < len(grid.Bands) {
		nodata = append(nodata, math.NaN())
	}
	rl := &interchange.RasterLayer{
		Name:        l.Name,
		CRS:         grid.CRS,
		Frame:       ctx.Pipeline.Frame,
		Units:       m.Units,
		BandNames:   names,
		BandValues:  grid.Bands,
		OriginX:     grid.OriginX,
		OriginY:     grid.OriginY,
		ResX:        grid.ResX,
		ResY:        grid.ResY,
		Width:       grid.Width,
		Height:      grid.Height,
		NoData:      nodata,
		Renderer:    symbology.ToDescriptor(r).Node(),
		DisplayMesh: m,
	}
	return rl.Node(), nil
}
