package transform

import (
	"errors"
	"fmt"
	"math"

	geo "github.com/paulmach/go.geo"
)

// ErrNotSupported is returned by a Reprojector that cannot handle a pair
// of systems, so that a Chain moves on to the next strategy.
var ErrNotSupported = errors.New("crs pair not supported")

// Reprojector converts one coordinate between two reference systems. The
// host application API satisfies it with its native reprojection call.
type Reprojector interface {
	Reproject(x, y float64, from, to CRS) (float64, float64, error)
}

// ReprojectorFunc adapts a function to Reprojector.
type ReprojectorFunc func(x, y float64, from, to CRS) (float64, float64, error)

func (f ReprojectorFunc) Reproject(x, y float64, from, to CRS) (float64, float64, error) {
	return f(x, y, from, to)
}

// Identity handles identical systems only.
var Identity = ReprojectorFunc(func(x, y float64, from, to CRS) (float64, float64, error) {
	if from.Same(to) {
		return x, y, nil
	}
	return x, y, ErrNotSupported
})

// Mercator handles EPSG:4326 <-> EPSG:3857.
var Mercator = ReprojectorFunc(func(x, y float64, from, to CRS) (float64, float64, error) {
	switch {
	case from.IsGeographic() && to.isMercator():
		x, y = To3857(x, y)
	case from.isMercator() && to.IsGeographic():
		x, y = To4326(x, y)
	default:
		return x, y, ErrNotSupported
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return x, y, fmt.Errorf("point outside of %s", to)
	}
	return x, y, nil
})

// Chain tries each reprojector in order and returns the first success.
type Chain []Reprojector

func (c Chain) Reproject(x, y float64, from, to CRS) (float64, float64, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		rx, ry, err := r.Reproject(x, y, from, to)
		if errors.Is(err, ErrNotSupported) {
			continue
		}
		return rx, ry, err
	}
	return x, y, fmt.Errorf("%s -> %s: %w", from, to, ErrNotSupported)
}

// DefaultReprojector is used when a context brings none.
var DefaultReprojector = Chain{Identity, Mercator}

// To4326 converts EPSG:3857 meters to longitude/latitude degrees.
func To4326(x float64, y float64) (float64, float64) {
	mercPoint := geo.NewPoint(x, y)
	geo.Mercator.Inverse(mercPoint)
	return mercPoint[0], mercPoint[1]
}

// To3857 converts longitude/latitude degrees to EPSG:3857 meters.
func To3857(x float64, y float64) (float64, float64) {
	mercPoint := geo.NewPoint(x, y)
	geo.Mercator.Project(mercPoint)
	return mercPoint[0], mercPoint[1]
}
