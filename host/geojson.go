package host

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"sort"
	"strings"

	geojson "github.com/paulmach/go.geojson"

	"github.com/godeepar/geoxchange/transform"
)

// ErrNotLinear is returned when a writer meets a curve it cannot express.
var ErrNotLinear = errors.New("geometry has curves")

// idKeys are the property names taken as feature id, in order.
var idKeys = []string{"id", "fid", "osm_id", "uid", "uuid"}

// ReadGeoJSON reads a feature collection into a layer named name.
// Collections without a crs member are WGS 84.
func ReadGeoJSON(name string, r io.Reader) (*Layer, error) {
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("no data in dataset")
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("[UnmarshalFeatureCollection] in pkg [host] encountered: %w", err)
	}

	l := &Layer{Name: name, CRS: crsFromGeoJSON(fc.CRS)}
	if l.CRS.IsZero() {
		l.CRS = transform.WGS84
	}
	l.Units = l.CRS.Units

	for i, item := range fc.Features {
		f := &Feature{Attributes: attributesFromGeoJSON(item.Properties)}
		f.ID = featureID(item, f)
		if f.ID == "" {
			f.ID = fmt.Sprintf("%s.%d", name, i)
		}
		if item.Geometry != nil {
			g, err := geometryFromGeoJSON(item.Geometry)
			if err != nil {
				return nil, fmt.Errorf("feature %s: %w", f.ID, err)
			}
			f.Geometry = g
		}
		l.Features = append(l.Features, f)
	}
	return l, nil
}

func featureID(item *geojson.Feature, f *Feature) string {
	if item.ID != nil {
		return fmt.Sprintf("%v", item.ID)
	}
	for _, k := range idKeys {
		if v, ok := f.Get(k); ok && v != nil {
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

// attributesFromGeoJSON orders properties by name and turns integral
// numbers into int64.
func attributesFromGeoJSON(props map[string]interface{}) []Attribute {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	atts := make([]Attribute, 0, len(keys))
	for _, k := range keys {
		atts = append(atts, Attribute{Key: k, Value: normalizeValue(props[k])})
	}
	return atts
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = normalizeValue(e)
		}
		return out
	}
	return v
}

func crsFromGeoJSON(m map[string]interface{}) transform.CRS {
	props, _ := m["properties"].(map[string]interface{})
	name, _ := props["name"].(string)
	if name == "" {
		return transform.CRS{}
	}
	// urn:ogc:def:crs:EPSG::3857 and EPSG:3857 both name EPSG:3857
	upper := strings.ToUpper(name)
	if strings.Contains(upper, "CRS84") {
		return transform.WGS84
	}
	if i := strings.Index(upper, "EPSG"); i >= 0 {
		parts := strings.FieldsFunc(upper[i:], func(r rune) bool { return r == ':' })
		if len(parts) >= 2 {
			auth := "EPSG:" + parts[len(parts)-1]
			switch auth {
			case transform.WGS84.AuthID:
				return transform.WGS84
			case transform.WebMercator.AuthID:
				return transform.WebMercator
			}
			return transform.CRS{Name: name, AuthID: auth}
		}
	}
	return transform.CRS{Name: name, WKT: name}
}

func coord(p []float64) (Coord, error) {
	switch len(p) {
	case 0, 1:
		return Coord{}, errors.New("missing x, y")
	case 2:
		return Coord{X: p[0], Y: p[1]}, nil
	default:
		return Coord{X: p[0], Y: p[1], Z: p[2]}, nil
	}
}

func coords(ps [][]float64) ([]Coord, error) {
	out := make([]Coord, len(ps))
	for i, p := range ps {
		c, err := coord(p)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func rings(rs [][][]float64) ([][]Coord, error) {
	out := make([][]Coord, len(rs))
	for i, r := range rs {
		cs, err := coords(r)
		if err != nil {
			return nil, err
		}
		out[i] = cs
	}
	return out, nil
}

func geometryFromGeoJSON(g *geojson.Geometry) (Geometry, error) {
	switch g.Type {
	case geojson.GeometryPoint:
		c, err := coord(g.Point)
		if err != nil {
			return nil, err
		}
		return &Point{Coord: c}, nil
	case geojson.GeometryMultiPoint:
		cs, err := coords(g.MultiPoint)
		if err != nil {
			return nil, err
		}
		return &MultiPoint{Points: cs}, nil
	case geojson.GeometryLineString:
		cs, err := coords(g.LineString)
		if err != nil {
			return nil, err
		}
		return &LineString{Vertices: cs}, nil
	case geojson.GeometryMultiLineString:
		ml := &MultiLineString{}
		for _, line := range g.MultiLineString {
			cs, err := coords(line)
			if err != nil {
				return nil, err
			}
			ml.Lines = append(ml.Lines, &LineString{Vertices: cs})
		}
		return ml, nil
	case geojson.GeometryPolygon:
		rs, err := rings(g.Polygon)
		if err != nil {
			return nil, err
		}
		return &Polygon{Rings: rs}, nil
	case geojson.GeometryMultiPolygon:
		mp := &MultiPolygon{}
		for _, poly := range g.MultiPolygon {
			rs, err := rings(poly)
			if err != nil {
				return nil, err
			}
			mp.Polygons = append(mp.Polygons, &Polygon{Rings: rs})
		}
		return mp, nil
	}
	return nil, fmt.Errorf("unsupported geometry of type %v", g.Type)
}

// WriteGeoJSON writes l as a feature collection. Curves must have been
// linearized; they fail with ErrNotLinear.
func WriteGeoJSON(l *Layer, w io.Writer) error {
	fc := geojson.NewFeatureCollection()
	if !l.CRS.IsZero() && !l.CRS.Same(transform.WGS84) {
		name := l.CRS.AuthID
		if strings.HasPrefix(strings.ToUpper(name), "EPSG:") {
			name = "urn:ogc:def:crs:EPSG::" + name[5:]
		}
		if name == "" {
			name = l.CRS.WKT
		}
		fc.CRS = map[string]interface{}{
			"type":       "name",
			"properties": map[string]interface{}{"name": name},
		}
	}
	for _, f := range l.Features {
		var g *geojson.Geometry
		if f.Geometry != nil {
			var err error
			if g, err = geometryToGeoJSON(f.Geometry); err != nil {
				return fmt.Errorf("feature %s: %w", f.ID, err)
			}
		}
		item := geojson.NewFeature(g)
		if f.ID != "" {
			item.ID = f.ID
		}
		for _, a := range f.Attributes {
			item.SetProperty(a.Key, a.Value)
		}
		fc.AddFeature(item)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func flat(c Coord) []float64 { return []float64{c.X, c.Y, c.Z} }

func flatAll(cs []Coord) [][]float64 {
	out := make([][]float64, len(cs))
	for i, c := range cs {
		out[i] = flat(c)
	}
	return out
}

func flatRings(rs [][]Coord) [][][]float64 {
	out := make([][][]float64, len(rs))
	for i, r := range rs {
		out[i] = flatAll(r)
	}
	return out
}

func geometryToGeoJSON(g Geometry) (*geojson.Geometry, error) {
	switch t := g.(type) {
	case *Point:
		return geojson.NewPointGeometry(flat(t.Coord)), nil
	case *MultiPoint:
		return geojson.NewMultiPointGeometry(flatAll(t.Points)...), nil
	case *LineString:
		return geojson.NewLineStringGeometry(flatAll(t.Vertices)), nil
	case *MultiLineString:
		lines := make([][][]float64, len(t.Lines))
		for i, l := range t.Lines {
			lines[i] = flatAll(l.Vertices)
		}
		return geojson.NewMultiLineStringGeometry(lines...), nil
	case *Polygon:
		return geojson.NewPolygonGeometry(flatRings(t.Rings)), nil
	case *MultiPolygon:
		polys := make([][][][]float64, len(t.Polygons))
		for i, p := range t.Polygons {
			polys[i] = flatRings(p.Rings)
		}
		return geojson.NewMultiPolygonGeometry(polys...), nil
	case *PolyhedralSurface:
		polys := make([][][][]float64, len(t.Patches))
		for i, p := range t.Patches {
			ring := p
			if !IsClosed(ring) && len(ring) > 0 {
				ring = append(append([]Coord(nil), ring...), ring[0])
			}
			polys[i] = [][][]float64{flatAll(ring)}
		}
		return geojson.NewMultiPolygonGeometry(polys...), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotLinear, g.GeometryType())
}
