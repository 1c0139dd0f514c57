package host

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/godeepar/geoxchange/transform"
)

// ReadShapefile reads the shapefile at path with its dbf attributes. The
// CRS comes from the .prj sibling when one exists.
func ReadShapefile(path string) (*Layer, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[shp.Open] in pkg [host] encountered: %w", err)
	}
	defer r.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	l := &Layer{Name: name, CRS: readPrj(path)}
	l.Units = l.CRS.Units

	fields := r.Fields()
	for _, f := range fields {
		l.Fields = append(l.Fields, Field{Name: f.String(), Type: fieldType(f)})
	}

	for r.Next() {
		n, s := r.Shape()
		f := &Feature{ID: fmt.Sprintf("%s.%d", name, n)}
		f.Geometry = geometryFromShape(s)
		for i, field := range l.Fields {
			f.Attributes = append(f.Attributes, Attribute{
				Key:   field.Name,
				Value: parseAttribute(field.Type, r.ReadAttribute(n, i)),
			})
		}
		l.Features = append(l.Features, f)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("[shp.Reader] in pkg [host] encountered: %w", err)
	}
	return l, nil
}

func readPrj(path string) transform.CRS {
	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	raw, err := ioutil.ReadFile(prj)
	if err != nil {
		return transform.CRS{}
	}
	wkt := strings.TrimSpace(string(raw))
	c := transform.CRS{WKT: wkt}
	switch {
	case strings.HasPrefix(wkt, "GEOGCS"):
		c.Units = "degrees"
		if strings.Contains(wkt, "WGS_1984") || strings.Contains(wkt, "WGS 84") {
			c = transform.WGS84
		}
	case strings.Contains(wkt, "Mercator_Auxiliary_Sphere") || strings.Contains(wkt, "Pseudo-Mercator"):
		c = transform.WebMercator
	case strings.Contains(wkt, "UNIT[\"Foot"):
		c.Units = transform.Feet
	default:
		c.Units = transform.Meters
	}
	return c
}

func fieldType(f shp.Field) FieldType {
	switch f.Fieldtype {
	case 'N':
		if f.Precision > 0 {
			return FieldDouble
		}
		return FieldInteger
	case 'F':
		return FieldDouble
	case 'L':
		return FieldBool
	}
	return FieldString
}

func parseAttribute(t FieldType, raw string) interface{} {
	raw = strings.TrimSpace(strings.Trim(raw, "\x00"))
	if raw == "" {
		return nil
	}
	switch t {
	case FieldInteger:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i
		}
	case FieldDouble:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case FieldBool:
		switch strings.ToUpper(raw) {
		case "T", "Y":
			return true
		case "F", "N":
			return false
		}
		return nil
	}
	return raw
}

func parts(numPoints int32, starts []int32) [][2]int {
	out := make([][2]int, len(starts))
	for i, s := range starts {
		end := int(numPoints)
		if i+1 < len(starts) {
			end = int(starts[i+1])
		}
		out[i] = [2]int{int(s), end}
	}
	return out
}

func shapeCoords(points []shp.Point, z []float64, from, to int) []Coord {
	cs := make([]Coord, 0, to-from)
	for i := from; i < to; i++ {
		c := Coord{X: points[i].X, Y: points[i].Y}
		if i < len(z) {
			c.Z = z[i]
		}
		cs = append(cs, c)
	}
	return cs
}

func lines(points []shp.Point, z []float64, numPoints int32, starts []int32) Geometry {
	ml := &MultiLineString{}
	for _, p := range parts(numPoints, starts) {
		ml.Lines = append(ml.Lines, &LineString{Vertices: shapeCoords(points, z, p[0], p[1])})
	}
	if len(ml.Lines) == 1 {
		return ml.Lines[0]
	}
	return ml
}

// polygons groups shapefile rings: clockwise rings start a new polygon,
// counter-clockwise rings are holes of the previous one.
func polygons(points []shp.Point, z []float64, numPoints int32, starts []int32) Geometry {
	mp := &MultiPolygon{}
	for _, p := range parts(numPoints, starts) {
		ring := shapeCoords(points, z, p[0], p[1])
		if signedArea(ring) <= 0 || len(mp.Polygons) == 0 {
			mp.Polygons = append(mp.Polygons, &Polygon{Rings: [][]Coord{ring}})
			continue
		}
		last := mp.Polygons[len(mp.Polygons)-1]
		last.Rings = append(last.Rings, ring)
	}
	if len(mp.Polygons) == 1 {
		return mp.Polygons[0]
	}
	return mp
}

// signedArea is positive for counter-clockwise rings.
func signedArea(ring []Coord) float64 {
	a := 0.0
	for i := range ring {
		j := (i + 1) % len(ring)
		a += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return a / 2
}

func geometryFromShape(s shp.Shape) Geometry {
	switch t := s.(type) {
	case *shp.Point:
		return &Point{Coord: Coord{X: t.X, Y: t.Y}}
	case *shp.PointZ:
		return &Point{Coord: Coord{X: t.X, Y: t.Y, Z: t.Z}}
	case *shp.MultiPoint:
		return &MultiPoint{Points: shapeCoords(t.Points, nil, 0, len(t.Points))}
	case *shp.MultiPointZ:
		return &MultiPoint{Points: shapeCoords(t.Points, t.ZArray, 0, len(t.Points))}
	case *shp.PolyLine:
		return lines(t.Points, nil, t.NumPoints, t.Parts)
	case *shp.PolyLineZ:
		return lines(t.Points, t.ZArray, t.NumPoints, t.Parts)
	case *shp.Polygon:
		return polygons(t.Points, nil, t.NumPoints, t.Parts)
	case *shp.PolygonZ:
		return polygons(t.Points, t.ZArray, t.NumPoints, t.Parts)
	case *shp.MultiPatch:
		ps := &PolyhedralSurface{}
		for _, p := range parts(t.NumPoints, t.Parts) {
			patch := shapeCoords(t.Points, t.ZArray, p[0], p[1])
			if IsClosed(patch) {
				patch = patch[:len(patch)-1]
			}
			ps.Patches = append(ps.Patches, patch)
		}
		return ps
	}
	return nil
}
