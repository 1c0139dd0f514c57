// Package meshstore stages received meshes in multipatch shapefiles keyed
// by feature identity, ready for a host to ingest.
package meshstore

import (
	"errors"
	"fmt"
	"math"

	shp "github.com/jonas-p/go-shp"
	"github.com/untillpro/goutils/logger"

	"github.com/godeepar/geoxchange/host"
)

// IDField is the attribute column holding the feature identity.
const IDField = "id"

// triangleFan is the multipatch part type of every staged face.
const triangleFan = 1

// ErrEmptyPatch is returned for a surface patch with fewer than three
// vertices.
var ErrEmptyPatch = errors.New("patch with fewer than three vertices")

// Entry is one staged mesh.
type Entry struct {
	ID   string
	Mesh *host.PolyhedralSurface
}

// Write creates the multipatch shapefile at path with one shape per entry.
// Each patch is written as a triangle fan part.
func Write(path string, entries []Entry) error {
	shapes := make([]*shp.MultiPatch, len(entries))
	for i, e := range entries {
		mp, err := multipatch(e.Mesh)
		if err != nil {
			return fmt.Errorf("[Write] in pkg [meshstore] encountered: entry %s: %w", e.ID, err)
		}
		shapes[i] = mp
	}

	w, err := shp.Create(path, shp.MULTIPATCH)
	if err != nil {
		return fmt.Errorf("[shp.Create] in pkg [meshstore] encountered: %w", err)
	}
	defer w.Close()

	if err := w.SetFields([]shp.Field{shp.StringField(IDField, 254)}); err != nil {
		return fmt.Errorf("[SetFields] in pkg [meshstore] encountered: %w", err)
	}
	for i, mp := range shapes {
		row := w.Write(mp)
		if err := w.WriteAttribute(int(row), 0, entries[i].ID); err != nil {
			return fmt.Errorf("[WriteAttribute] in pkg [meshstore] encountered: %w", err)
		}
	}
	logger.Verbose(fmt.Sprintf("meshstore: %d meshes staged in %s", len(entries), path))
	return nil
}

func multipatch(s *host.PolyhedralSurface) (*shp.MultiPatch, error) {
	if s == nil || len(s.Patches) == 0 {
		return nil, ErrEmptyPatch
	}
	mp := &shp.MultiPatch{ZRange: [2]float64{math.Inf(1), math.Inf(-1)}}
	for _, patch := range s.Patches {
		if len(patch) < 3 {
			return nil, ErrEmptyPatch
		}
		mp.Parts = append(mp.Parts, int32(len(mp.Points)))
		mp.PartTypes = append(mp.PartTypes, triangleFan)
		for _, c := range patch {
			mp.Points = append(mp.Points, shp.Point{X: c.X, Y: c.Y})
			mp.ZArray = append(mp.ZArray, c.Z)
			mp.ZRange[0] = math.Min(mp.ZRange[0], c.Z)
			mp.ZRange[1] = math.Max(mp.ZRange[1], c.Z)
		}
	}
	mp.NumParts = int32(len(mp.Parts))
	mp.NumPoints = int32(len(mp.Points))
	mp.MArray = make([]float64, len(mp.Points))
	mp.Box = shp.BBoxFromPoints(mp.Points)
	return mp, nil
}

// Read loads the entries of a staged shapefile in file order.
func Read(path string) ([]Entry, error) {
	l, err := host.ReadShapefile(path)
	if err != nil {
		return nil, fmt.Errorf("[Read] in pkg [meshstore] encountered: %w", err)
	}
	out := make([]Entry, 0, len(l.Features))
	for _, f := range l.Features {
		s, ok := f.Geometry.(*host.PolyhedralSurface)
		if !ok {
			return nil, fmt.Errorf("[Read] in pkg [meshstore] encountered: %s is not a multipatch", f.ID)
		}
		id, _ := f.Get(IDField)
		e := Entry{Mesh: s}
		if str, ok := id.(string); ok {
			e.ID = str
		}
		out = append(out, e)
	}
	return out, nil
}
