package convert

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godeepar/geoxchange/transform"
)

func TestReport(t *testing.T) {
	require := require.New(t)

	r := NewReport()
	require.NotEmpty(r.OperationID)
	require.Equal("no issues", r.String())

	r.Add("f1", fmt.Errorf("[ArcFromPoints] in pkg [geometry] encountered: %w", ErrDegenerateGeometry))
	r.Addf("f2", ErrMeshFailure, "gave up after %d attempts", 4)
	r.Add("f3", nil)
	r.Add("f4", errors.New("plain"))

	require.Equal(3, r.Len())
	require.Equal(1, r.Count(ErrDegenerateGeometry))
	require.Equal(1, r.Count(ErrMeshFailure))
	require.Nil(r.Notes[2].Kind)
	require.Contains(r.String(), "f2 [mesh triangulation failed]: gave up after 4 attempts")

	other := NewReport()
	other.Add("", ErrCancelled)
	r.Merge(other)
	require.Equal(4, r.Len())

	var nilReport *Report
	nilReport.Add("x", ErrCancelled)
	require.Equal(0, nilReport.Len())
}

func TestCancel(t *testing.T) {
	require := require.New(t)

	var c *Cancel
	require.False(c.Cancelled())
	require.NoError(c.Err())

	c = NewCancel()
	require.NoError(c.Err())
	c.Cancel()
	require.ErrorIs(c.Err(), ErrCancelled)

	ctx := NewContext(transform.Pipeline{}, "feet").WithCancel(c)
	require.True(ctx.Cancelled())
	require.Equal(transform.Feet, ctx.UnitsSource)
}

func TestKindOf(t *testing.T) {
	require := require.New(t)
	wrapped := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", transform.ErrReprojection))
	require.Equal(ErrCrsReprojection, KindOf(wrapped))
	require.Nil(KindOf(errors.New("other")))
}

func TestContextScale(t *testing.T) {
	require := require.New(t)

	ctx := NewContext(transform.Pipeline{}, "m")
	require.InDelta(0.001, ctx.Scale("mm"), 1e-15)
	require.Equal(1.0, ctx.Scale(""))

	geo := ctx.WithSource(transform.WGS84)
	require.Equal(transform.Meters, geo.UnitsSource)
	ft := ctx.WithSource(transform.CRS{AuthID: "EPSG:2263", Units: "us-ft"})
	require.Equal(transform.Feet, ft.UnitsSource)
	require.Equal(transform.Meters, ctx.UnitsSource)
}
