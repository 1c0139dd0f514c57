package convert

import (
	"errors"

	"github.com/godeepar/geoxchange/transform"
)

// Error kinds shared by every conversion package. Callers test for them
// with errors.Is, the packages wrap them with context.
var (
	ErrDegenerateGeometry         = errors.New("degenerate geometry")
	ErrZeroSweepArc               = errors.New("zero sweep arc")
	ErrMeshFailure                = errors.New("mesh triangulation failed")
	ErrUnsupportedGeometry        = errors.New("unsupported geometry")
	ErrCrsReprojection            = transform.ErrReprojection
	ErrSchemaConflict             = errors.New("schema conflict")
	ErrRasterDrapeUnresolvedIndex = errors.New("raster drape index unresolved")
	ErrLayerConversion            = errors.New("layer conversion failed")
	ErrCancelled                  = errors.New("conversion cancelled")
)

var kinds = []error{
	ErrDegenerateGeometry,
	ErrZeroSweepArc,
	ErrMeshFailure,
	ErrUnsupportedGeometry,
	ErrCrsReprojection,
	ErrSchemaConflict,
	ErrRasterDrapeUnresolvedIndex,
	ErrLayerConversion,
	ErrCancelled,
}

// KindOf returns the error kind err wraps, or nil if it wraps none.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
