package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFrameInverse(t *testing.T) {
	require := require.New(t)

	frames := []Frame{
		{},
		{OffsetX: 100, OffsetY: -50, RotationDeg: 30},
		{OffsetX: -1e6, OffsetY: 2.5e6, RotationDeg: -271.5},
		{OffsetX: 3, RotationDeg: 359.999},
		{OffsetY: 7, RotationDeg: 720},
	}
	points := [][2]float64{{12, 34}, {0, 0}, {-1e5, 4.25}, {1e-7, -3e-9}}

	for _, f := range frames {
		for _, p := range points {
			fx, fy := f.Forward(p[0], p[1])
			x, y := f.Inverse(fx, fy)
			require.InDelta(p[0], x, 1e-9, "frame %+v point %v", f, p)
			require.InDelta(p[1], y, 1e-9, "frame %+v point %v", f, p)
		}
	}
}

func TestFrameForward(t *testing.T) {
	require := require.New(t)

	f := Frame{OffsetX: 10, OffsetY: 10, RotationDeg: 90}
	x, y := f.Forward(10, 11)
	// (0,1) rotated by -90 degrees lands on (1,0)
	require.InDelta(1.0, x, 1e-12)
	require.InDelta(0.0, y, 1e-12)

	t.Run("rotation out of range is ignored", func(t *testing.T) {
		f := Frame{OffsetX: 1, RotationDeg: 400}
		x, y := f.Forward(3, 4)
		require.Equal(2.0, x)
		require.Equal(4.0, y)
		require.False(f.IsIdentity())
		require.True(Frame{RotationDeg: -360}.IsIdentity())
	})
}

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		from, to string
		want     float64
	}{
		{"m", "m", 1},
		{"cm", "m", 0.01},
		{"mm", "m", 0.001},
		{"km", "m", 1000},
		{"in", "m", 0.0254},
		{"ft", "m", 0.3048},
		{"yd", "m", 0.9144},
		{"mi", "m", 1609.34},
		{"m", "ft", 1 / 0.3048},
		{"Feet", "meters", 0.3048},
		{"furlong", "m", 1},
		{"", "km", 0.001},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			require.InDelta(t, tt.want, ScaleFactor(tt.from, tt.to), 1e-12)
		})
	}
}

func TestMercatorRoundTrip(t *testing.T) {
	require := require.New(t)

	x, y, err := Mercator.Reproject(-111.02523, 45.63856, WGS84, WebMercator)
	require.NoError(err)
	require.InDelta(-12359272.07, x, 1.0)

	lon, lat, err := Mercator.Reproject(x, y, WebMercator, WGS84)
	require.NoError(err)
	require.InDelta(-111.02523, lon, 1e-9)
	require.InDelta(45.63856, lat, 1e-9)

	_, _, err = Mercator.Reproject(1, 2, CRS{AuthID: "EPSG:2056"}, WGS84)
	require.ErrorIs(err, ErrNotSupported)
}

type mockReprojector struct {
	mock.Mock
}

func (m *mockReprojector) Reproject(x, y float64, from, to CRS) (float64, float64, error) {
	args := m.Called(x, y, from, to)
	return args.Get(0).(float64), args.Get(1).(float64), args.Error(2)
}

func TestPipelineOrder(t *testing.T) {
	require := require.New(t)

	src := CRS{AuthID: "EPSG:2056"}
	dst := CRS{AuthID: "EPSG:32632"}

	r := &mockReprojector{}
	// send reprojects the raw host coordinate, before the frame
	r.On("Reproject", 1.0, 2.0, src, dst).Return(101.0, 52.0, nil).Once()
	// receive reprojects after the frame was inverted
	r.On("Reproject", 101.0, 52.0, dst, src).Return(1.0, 2.0, nil).Once()

	p := Pipeline{Source: src, Target: dst, Frame: Frame{OffsetX: 100, OffsetY: 50}, Reprojector: r}

	x, y, err := p.Send(1, 2)
	require.NoError(err)
	require.InDelta(1.0, x, 1e-12)
	require.InDelta(2.0, y, 1e-12)

	x, y, err = p.Receive(x, y)
	require.NoError(err)
	require.InDelta(1.0, x, 1e-12)
	require.InDelta(2.0, y, 1e-12)
	r.AssertExpectations(t)
}

func TestPipelineFailure(t *testing.T) {
	require := require.New(t)

	failing := ReprojectorFunc(func(x, y float64, from, to CRS) (float64, float64, error) {
		return 0, 0, errors.New("boom")
	})
	p := Pipeline{Source: WGS84, Target: CRS{AuthID: "EPSG:2056"}, Reprojector: Chain{Identity, failing}}
	_, _, err := p.Send(8, 47)
	require.ErrorIs(err, ErrReprojection)

	p = Pipeline{Source: WGS84, Target: CRS{AuthID: "EPSG:2056"}}
	_, _, err = p.Send(8, 47)
	require.ErrorIs(err, ErrReprojection)

	t.Run("same crs skips reprojection", func(t *testing.T) {
		p := Pipeline{Source: WGS84, Target: WGS84, Reprojector: failing}
		x, y, err := p.Send(8, 47)
		require.NoError(err)
		require.Equal(8.0, x)
		require.Equal(47.0, y)
	})

	t.Run("undefined crs matches anything", func(t *testing.T) {
		require.True(CRS{}.Same(WebMercator))
		require.False(math.IsNaN(ScaleFactor("m", "m")))
	})
}
