package layer

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"

	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/transform"
)

// tokenLength caps the length of the s2 cell tokens stored on an extent.
const tokenLength = 8

// pad widens degenerate bounds, in degrees, so the covering loop is valid.
const pad = 1e-6

// extent maps host bounds into interchange coordinates and adds the s2
// cells covering them. It returns nil when a corner cannot be mapped.
func extent(p transform.Pipeline, b orb.Bound) *interchange.Extent {
	corners := [4][2]float64{
		{b.Min[0], b.Min[1]}, {b.Max[0], b.Min[1]},
		{b.Max[0], b.Max[1]}, {b.Min[0], b.Max[1]},
	}
	e := &interchange.Extent{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, c := range corners {
		x, y, err := p.Send(c[0], c[1])
		if err != nil {
			return nil
		}
		e.MinX, e.MaxX = math.Min(e.MinX, x), math.Max(e.MaxX, x)
		e.MinY, e.MaxY = math.Min(e.MinY, y), math.Max(e.MaxY, y)
	}

	geo := p.Between(p.Source, transform.WGS84)
	lx, ly, err := geo.Send(b.Min[0], b.Min[1])
	if err != nil {
		return e
	}
	rx, uy, err := geo.Send(b.Max[0], b.Max[1])
	if err != nil {
		return e
	}
	e.Cells = covering(lx, ly, rx, uy)
	return e
}

// covering returns the deduplicated, truncated tokens of the s2 cells
// bounding the lon/lat box. Boxes outside the globe have no cells.
func covering(lx, ly, rx, uy float64) []string {
	if lx > rx {
		lx, rx = rx, lx
	}
	if ly > uy {
		ly, uy = uy, ly
	}
	if lx < -180 || rx > 180 || ly < -90 || uy > 90 {
		return nil
	}
	if rx-lx < pad {
		lx, rx = lx-pad, rx+pad
	}
	if uy-ly < pad {
		ly, uy = ly-pad, uy+pad
	}

	pts := []s2.Point{
		s2.PointFromLatLng(s2.LatLngFromDegrees(ly, lx)),
		s2.PointFromLatLng(s2.LatLngFromDegrees(ly, rx)),
		s2.PointFromLatLng(s2.LatLngFromDegrees(uy, rx)),
		s2.PointFromLatLng(s2.LatLngFromDegrees(uy, lx)),
	}
	loop := s2.LoopFromPoints(pts)

	var tokens []string
	seen := make(map[string]bool)
	for _, cellid := range loop.CellUnionBound() {
		token := cellid.ToToken()
		if len(token) > tokenLength {
			token = token[:tokenLength]
		}
		if seen[token] {
			continue
		}
		seen[token] = true
		tokens = append(tokens, token)
	}
	return tokens
}
