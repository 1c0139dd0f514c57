package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
	"github.com/godeepar/geoxchange/transform"
)

// sendCoord validates a host vertex and maps it into interchange space:
// reprojection first, then the local frame.
func (c *Codec) sendCoord(hc host.Coord) (r3.Vector, error) {
	if math.IsNaN(hc.X) || math.IsNaN(hc.Y) || math.IsInf(hc.X, 0) || math.IsInf(hc.Y, 0) {
		return r3.Vector{}, errors.New("missing x, y")
	}
	x, y, err := c.Ctx.Pipeline.Send(hc.X, hc.Y)
	if err != nil {
		return r3.Vector{}, err
	}
	z := hc.Z
	if math.IsNaN(z) {
		z = 0
	}
	return r3.Vector{X: x, Y: y, Z: z}, nil
}

func (c *Codec) sendPoint(hc host.Coord) (*interchange.Point, error) {
	v, err := c.sendCoord(hc)
	if err != nil {
		return nil, err
	}
	return interchange.PointFromVector(v, c.units), nil
}

func (c *Codec) sendPoints(cs []host.Coord) ([]*interchange.Point, error) {
	out := make([]*interchange.Point, len(cs))
	for i, hc := range cs {
		p, err := c.sendPoint(hc)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// receiveVector maps an interchange position back to the host: unit
// scaling, then the inverse frame, then reprojection. Reprojected
// coordinates are scaled into the target CRS units, which the reprojector
// expects; it brings them back into host units itself.
func (c *Codec) receiveVector(v r3.Vector, units string) (host.Coord, error) {
	s := c.Ctx.Scale(units)
	if c.Ctx.Pipeline.NeedsReprojection() {
		if units == "" {
			units = c.units
		}
		s = transform.ScaleFactor(units, c.units)
	}
	x, y, err := c.Ctx.Pipeline.Receive(v.X*s, v.Y*s)
	if err != nil {
		return host.Coord{}, err
	}
	return host.Coord{X: x, Y: y, Z: v.Z * s}, nil
}

func (c *Codec) receivePoint(p *interchange.Point, units string) (host.Coord, error) {
	if p == nil {
		return host.Coord{}, fmt.Errorf("%w: missing point", interchange.ErrMalformed)
	}
	if p.Units != "" {
		units = p.Units
	}
	return c.receiveVector(p.Vector(), units)
}

func (c *Codec) receiveVectors(vs []r3.Vector, units string) ([]host.Coord, error) {
	out := make([]host.Coord, len(vs))
	for i, v := range vs {
		hc, err := c.receiveVector(v, units)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		out[i] = hc
	}
	return out, nil
}

// closeRing repeats the first vertex at the end unless already there.
func closeRing(cs []host.Coord) []host.Coord {
	if len(cs) == 0 || host.IsClosed(cs) {
		return cs
	}
	return append(cs, cs[0])
}

// openRing drops a repeated closing vertex.
func openRing(cs []host.Coord) []host.Coord {
	if host.IsClosed(cs) {
		return cs[:len(cs)-1]
	}
	return cs
}

func hypot(a, b host.Coord) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func atan2(a, center host.Coord) float64 {
	return math.Atan2(a.Y-center.Y, a.X-center.X)
}
