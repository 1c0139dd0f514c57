package host

import (
	"github.com/paulmach/orb"
)

func orbPoint(c Coord) orb.Point { return orb.Point{c.X, c.Y} }

func orbLine(cs []Coord) orb.LineString {
	ls := make(orb.LineString, len(cs))
	for i, c := range cs {
		ls[i] = orbPoint(c)
	}
	return ls
}

func orbRing(cs []Coord) orb.Ring {
	r := orb.Ring(orbLine(cs))
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}
	return r
}

// ToOrb returns the 2D planar form of g. Curves are represented by their
// control vertices, which bound the curve for arcs shorter than a half
// circle; Circle and Ellipse become their bounding ring.
func ToOrb(g Geometry) orb.Geometry {
	switch t := g.(type) {
	case *Point:
		return orbPoint(t.Coord)
	case *MultiPoint:
		mp := make(orb.MultiPoint, len(t.Points))
		for i, c := range t.Points {
			mp[i] = orbPoint(c)
		}
		return mp
	case *LineString:
		return orbLine(t.Vertices)
	case *MultiLineString:
		ml := make(orb.MultiLineString, len(t.Lines))
		for i, l := range t.Lines {
			ml[i] = orbLine(l.Vertices)
		}
		return ml
	case *Polygon:
		return orbPolygon(t.Rings)
	case *MultiPolygon:
		mp := make(orb.MultiPolygon, len(t.Polygons))
		for i, p := range t.Polygons {
			mp[i] = orbPolygon(p.Rings)
		}
		return mp
	case Curve:
		return orbLine(t.Coords())
	case *CurvePolygon:
		p := orb.Polygon{orbRing(t.Exterior.Coords())}
		for _, in := range t.Interiors {
			p = append(p, orbRing(in.Coords()))
		}
		return p
	case *Circle:
		return boxRing(t.Center, t.Radius, t.Radius)
	case *Ellipse:
		return boxRing(t.Center, t.SemiMajor, t.SemiMajor)
	case *PolyhedralSurface:
		mp := make(orb.MultiPolygon, len(t.Patches))
		for i, p := range t.Patches {
			mp[i] = orb.Polygon{orbRing(p)}
		}
		return mp
	}
	return nil
}

func orbPolygon(rings [][]Coord) orb.Polygon {
	p := make(orb.Polygon, len(rings))
	for i, r := range rings {
		p[i] = orbRing(r)
	}
	return p
}

func boxRing(c Coord, rx, ry float64) orb.Ring {
	return orb.Bound{
		Min: orb.Point{c.X - rx, c.Y - ry},
		Max: orb.Point{c.X + rx, c.Y + ry},
	}.ToRing()
}

// Bounds returns the 2D bounds of every feature geometry of l. ok is false
// when the layer has no geometry.
func Bounds(l *Layer) (b orb.Bound, ok bool) {
	for _, f := range l.Features {
		if f.Geometry == nil {
			continue
		}
		og := ToOrb(f.Geometry)
		if og == nil {
			continue
		}
		if !ok {
			b, ok = og.Bound(), true
			continue
		}
		b = b.Union(og.Bound())
	}
	return b, ok
}
