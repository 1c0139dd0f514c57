package transform

import (
	"errors"
	"fmt"
)

// ErrReprojection wraps every failure of a Pipeline reprojection.
var ErrReprojection = errors.New("crs reprojection failed")

// Pipeline composes CRS reprojection with the local frame. Source is the
// host layer CRS, Target the CRS interchange coordinates are expressed in.
//
// Send reprojects in host coordinates and then applies the frame; Receive
// inverts the frame first and then reprojects back. The frame is therefore
// applied exactly once per direction.
type Pipeline struct {
	Source      CRS
	Target      CRS
	Frame       Frame
	Reprojector Reprojector
}

// NeedsReprojection reports whether Source and Target differ.
func (p Pipeline) NeedsReprojection() bool {
	return !p.Source.Same(p.Target)
}

func (p Pipeline) reprojector() Reprojector {
	if p.Reprojector == nil {
		return DefaultReprojector
	}
	return p.Reprojector
}

// Send maps a host coordinate into interchange space.
func (p Pipeline) Send(x, y float64) (float64, float64, error) {
	if p.NeedsReprojection() {
		var err error
		x, y, err = p.reprojector().Reproject(x, y, p.Source, p.Target)
		if err != nil {
			return x, y, fmt.Errorf("%w: %v", ErrReprojection, err)
		}
	}
	x, y = p.Frame.Forward(x, y)
	return x, y, nil
}

// Receive maps an interchange coordinate back into host space.
func (p Pipeline) Receive(x, y float64) (float64, float64, error) {
	x, y = p.Frame.Inverse(x, y)
	if p.NeedsReprojection() {
		var err error
		x, y, err = p.reprojector().Reproject(x, y, p.Target, p.Source)
		if err != nil {
			return x, y, fmt.Errorf("%w: %v", ErrReprojection, err)
		}
	}
	return x, y, nil
}

// Between returns a pipeline reprojecting from one CRS into another without
// any frame, used for raster corner and elevation lookups.
func (p Pipeline) Between(from, to CRS) Pipeline {
	return Pipeline{Source: from, Target: to, Reprojector: p.Reprojector}
}
