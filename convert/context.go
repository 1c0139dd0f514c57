package convert

import (
	"github.com/godeepar/geoxchange/transform"
)

// ConversionContext is the immutable state every codec call receives. It is
// built once per send or receive operation and never changed afterwards;
// the With* helpers return modified copies.
type ConversionContext struct {
	// Pipeline maps host coordinates into interchange space and back.
	Pipeline transform.Pipeline
	// UnitsSource are the host layer units, UnitsTarget the interchange units.
	UnitsSource string
	UnitsTarget string
	// ElevationSource names the host layer used to drape rasters and
	// polygons, empty when no drape is requested.
	ElevationSource string
	// Cancel is polled at row and feature granularity.
	Cancel *Cancel
}

// NewContext ...
func NewContext(p transform.Pipeline, units string) *ConversionContext {
	u := transform.NormalizeUnits(units)
	return &ConversionContext{Pipeline: p, UnitsSource: u, UnitsTarget: u}
}

// WithSource returns a copy whose pipeline starts from the given CRS.
func (c *ConversionContext) WithSource(crs transform.CRS) *ConversionContext {
	cp := *c
	cp.Pipeline.Source = crs
	if crs.Units != "" && !crs.IsGeographic() {
		cp.UnitsSource = transform.NormalizeUnits(crs.Units)
	}
	return &cp
}

// WithCancel returns a copy polling the given token.
func (c *ConversionContext) WithCancel(cancel *Cancel) *ConversionContext {
	cp := *c
	cp.Cancel = cancel
	return &cp
}

// Cancelled reports whether the operation should stop.
func (c *ConversionContext) Cancelled() bool {
	return c != nil && c.Cancel.Cancelled()
}

// Scale returns the factor from interchange units into host units.
func (c *ConversionContext) Scale(fromUnits string) float64 {
	if fromUnits == "" {
		fromUnits = c.UnitsTarget
	}
	return transform.ScaleFactor(fromUnits, c.UnitsSource)
}
