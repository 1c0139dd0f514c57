// Package layer assembles whole host layers into interchange layer nodes
// and back.
package layer

import (
	"fmt"

	"github.com/untillpro/goutils/logger"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/geometry"
	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/mesh"
	"github.com/godeepar/geoxchange/raster"
	"github.com/godeepar/geoxchange/transform"
)

// Assembler converts layers under one conversion context. It keeps no
// state between calls, so one assembler may serve concurrent conversions.
type Assembler struct {
	Ctx    *convert.ConversionContext
	Mesh   mesh.Options
	Raster raster.Options
	// Elevation resolves Ctx.ElevationSource to a grid; no drape without it.
	Elevation raster.Reader
	// Curves keeps analytic curves on receive; hosts without curve support
	// get them linearized.
	Curves bool
	// StageDir, when set, receives the meshes of every received layer as a
	// multipatch shapefile.
	StageDir string
}

// New returns an assembler with default tuning.
func New(ctx *convert.ConversionContext) *Assembler {
	if ctx == nil {
		ctx = convert.NewContext(transform.Pipeline{}, transform.Meters)
	}
	return &Assembler{
		Ctx:    ctx,
		Mesh:   mesh.DefaultOptions(),
		Raster: raster.DefaultOptions(),
		Curves: true,
	}
}

func (a *Assembler) codec(ctx *convert.ConversionContext, report *convert.Report) *geometry.Codec {
	c := geometry.New(ctx, report)
	c.Mesh = a.Mesh
	c.Curves = a.Curves
	return c
}

func (a *Assembler) cancelled(report *convert.Report, fn string) error {
	if !a.Ctx.Cancelled() {
		return nil
	}
	err := fmt.Errorf("[%s] in pkg [layer] encountered: %w", fn, convert.ErrCancelled)
	report.Add("", err)
	return err
}

func fail(fn, format string, args ...interface{}) error {
	return fmt.Errorf("[%s] in pkg [layer] encountered: %w: %s", fn, convert.ErrLayerConversion, fmt.Sprintf(format, args...))
}

// Load reads a layer through the host capability interface. Hosts that
// hold whole layers hand them out directly.
func Load(api host.API, name string, crs transform.CRS) (*host.Layer, error) {
	if m, ok := api.(interface {
		Layer(string) (*host.Layer, bool)
	}); ok {
		if l, ok := m.Layer(name); ok {
			return l, nil
		}
	}
	features, err := api.ReadGeometry(name)
	if err != nil {
		return nil, fmt.Errorf("[Load] in pkg [layer] encountered: %w", err)
	}
	r, err := api.GetRenderer(name)
	if err != nil {
		logger.Warning(fmt.Sprintf("layer %s: no renderer: %v", name, err))
	}
	return &host.Layer{Name: name, CRS: crs, Units: crs.Units, Features: features, Renderer: r}, nil
}

// fields converts a host schema into its interchange form.
func fields(fs []host.Field) []interchange.Field {
	out := make([]interchange.Field, len(fs))
	for i, f := range fs {
		out[i] = interchange.Field{Name: f.Name, Type: string(f.Type)}
	}
	return out
}

func hostFields(fs []interchange.Field) []host.Field {
	out := make([]host.Field, len(fs))
	for i, f := range fs {
		out[i] = host.Field{Name: f.Name, Type: host.FieldType(f.Type)}
	}
	return out
}
