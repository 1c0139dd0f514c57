package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/untillpro/goutils/logger"
	"golang.org/x/sync/errgroup"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/layer"
	"github.com/godeepar/geoxchange/meshstore"
	"github.com/godeepar/geoxchange/raster"
	"github.com/godeepar/geoxchange/transform"
	"github.com/godeepar/geoxchange/traverse"
)

var errFormat = errors.New("unsupported format")

// readLayer reads an input file by its extension. Layers without a CRS of
// their own get crs.
func readLayer(path string, crs transform.CRS) (*host.Layer, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var (
		l   *host.Layer
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		l, err = host.ReadShapefile(path)
	case ".geojson", ".json":
		err = withFile(path, func(f *os.File) (err error) {
			l, err = host.ReadGeoJSON(name, f)
			return err
		})
	case ".xyz":
		err = withFile(path, func(f *os.File) error {
			g, err := raster.ReadXYZ(f, crs)
			if err != nil {
				return err
			}
			g.BandNames = []string{name}
			l = &host.Layer{Name: name, CRS: crs, Grid: g}
			return nil
		})
	default:
		err = fmt.Errorf("%w: %s", errFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("[readLayer] in pkg [main] encountered: %w", err)
	}
	if l.CRS.IsZero() {
		l.CRS = crs
	}
	return l, nil
}

func withFile(path string, fn func(f *os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

// watch raises a conversion cancel flag once ctx is done. The returned
// func stops watching.
func watch(ctx context.Context) (*convert.Cancel, func()) {
	cancel := convert.NewCancel()
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			logger.Info("interrupted, stopping the conversion")
			cancel.Cancel()
		case <-done:
		}
	}()
	return cancel, func() { close(done) }
}

// sendLayers converts the layers concurrently. A layer that fails is noted
// and left out; only cancellation fails the whole run.
func sendLayers(a *layer.Assembler, layers []*host.Layer) ([]*interchange.Node, *convert.Report, error) {
	nodes := make([]*interchange.Node, len(layers))
	reports := make([]*convert.Report, len(layers))

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, l := range layers {
		i, l := i, l
		g.Go(func() error {
			n, r, err := a.Send(l)
			reports[i] = r
			if errors.Is(err, convert.ErrCancelled) {
				return err
			}
			if err != nil {
				r.Add(l.Name, err)
				return nil
			}
			nodes[i] = n
			return nil
		})
	}
	err := g.Wait()

	report := convert.NewReport()
	out := make([]*interchange.Node, 0, len(nodes))
	for i, n := range nodes {
		report.Merge(reports[i])
		if n != nil {
			out = append(out, n)
		}
	}
	return out, report, err
}

func collection(name string, elems []*interchange.Node) *interchange.Node {
	return interchange.New(interchange.TypeCollection).
		Set("name", interchange.String(name)).
		Set("elements", interchange.Nodes(elems))
}

func writeNode(w io.Writer, n *interchange.Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(n)
}

var fileNames = strings.NewReplacer(traverse.Separator, "_", "/", "_", "\\", "_", " ", "_")

// writeLayer writes a received layer into dir: rasters as XYZ, meshes as
// multipatch shapefiles and everything else as GeoJSON.
func writeLayer(dir string, l *host.Layer) (string, error) {
	base := filepath.Join(dir, fileNames.Replace(l.Name))
	switch {
	case l.IsRaster():
		path := base + ".xyz"
		return path, create(path, func(w io.Writer) error { return raster.WriteXYZ(w, l.Grid) })
	case l.GeometryKind() == interchange.KindMesh:
		var entries []meshstore.Entry
		for _, f := range l.Features {
			if s, ok := f.Geometry.(*host.PolyhedralSurface); ok {
				entries = append(entries, meshstore.Entry{ID: f.ID, Mesh: s})
			}
		}
		path := base + ".shp"
		return path, meshstore.Write(path, entries)
	}
	path := base + ".geojson"
	return path, create(path, func(w io.Writer) error { return host.WriteGeoJSON(l, w) })
}

func create(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printReport(w io.Writer, report *convert.Report) {
	logger.Info(fmt.Sprintf("operation %s finished with %d notes", report.OperationID, report.Len()))
	if report.Len() > 0 {
		fmt.Fprintln(w, report.String())
	}
}
