package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/delaunay"
	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// triangulate is the Delaunay step, replaceable in tests.
var triangulate = delaunay.Triangulate

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

// roundRings rounds x and y of every vertex, drops vertices that collapse
// onto their predecessor and drops holes left without area. nil is returned
// when the boundary itself collapses.
func roundRings(rings [][]r3.Vector, digits int) [][]r3.Vector {
	var out [][]r3.Vector
	for i, r := range rings {
		var ring []r3.Vector
		for _, v := range r {
			rv := r3.Vector{X: round(v.X, digits), Y: round(v.Y, digits), Z: v.Z}
			if len(ring) > 0 && sameXY(ring[len(ring)-1], rv) {
				continue
			}
			ring = append(ring, rv)
		}
		if len(ring) > 1 && sameXY(ring[0], ring[len(ring)-1]) {
			ring = ring[:len(ring)-1]
		}
		if len(ring) < 3 || signedArea(ring) == 0 {
			if i == 0 {
				return nil
			}
			continue
		}
		out = append(out, ring)
	}
	return out
}

func sameXY(a, b r3.Vector) bool {
	return a.X == b.X && a.Y == b.Y
}

// triangulatePolygon builds the Delaunay triangulation of every ring vertex
// and keeps the triangles whose centroid lies inside the polygon, so
// triangles covering holes or concave notches are discarded. Triangles are
// returned counter-clockwise.
func triangulatePolygon(rings [][]r3.Vector) ([][3]int32, []r3.Vector, error) {
	// shared vertices of several rings are triangulated once
	index := make(map[[2]float64]int32)
	var (
		vertices []r3.Vector
		ptarray  []delaunay.Point
		polygon  orb.Polygon
	)
	for _, r := range rings {
		ring := make(orb.Ring, 0, len(r)+1)
		for _, v := range r {
			key := [2]float64{v.X, v.Y}
			if _, ok := index[key]; !ok {
				index[key] = int32(len(vertices))
				vertices = append(vertices, v)
				ptarray = append(ptarray, delaunay.Point{X: v.X, Y: v.Y})
			}
			ring = append(ring, orb.Point{v.X, v.Y})
		}
		ring = append(ring, ring[0])
		polygon = append(polygon, ring)
	}

	triangulation, err := triangulate(ptarray)
	if err != nil {
		return nil, nil, fmt.Errorf("[delaunay.Triangulate] in pkg [mesh] encountered: %w", err)
	}
	if triangulation == nil {
		return nil, nil, errors.New("empty triangulation")
	}

	triangles := triangulation.Triangles
	var out [][3]int32
	for t := 0; t+2 < len(triangles); t += 3 {
		a, b, c := int32(triangles[t]), int32(triangles[t+1]), int32(triangles[t+2])
		pa, pb, pc := vertices[a], vertices[b], vertices[c]

		triangle := orb.Ring{
			orb.Point{pa.X, pa.Y},
			orb.Point{pb.X, pb.Y},
			orb.Point{pc.X, pc.Y},
			orb.Point{pa.X, pa.Y},
		}
		cross := (pb.X-pa.X)*(pc.Y-pa.Y) - (pb.Y-pa.Y)*(pc.X-pa.X)
		if cross == 0 {
			continue
		}
		tricenter, _ := planar.CentroidArea(triangle)
		if !planar.PolygonContains(polygon, tricenter) {
			continue
		}
		if cross < 0 {
			b, c = c, b
		}
		out = append(out, [3]int32{a, b, c})
	}
	return out, vertices, nil
}
