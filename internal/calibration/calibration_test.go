package calibration

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/ParcelKit/internal/model"
)

func cp(x, y, a1, a2 float64) model.ControlPoint {
	return model.ControlPoint{Local: model.Point2D{X: x, Y: y}, Geo: model.GeoPoint{Axis1: a1, Axis2: a2}}
}

// rotated maps local points through a rotation by 30 degrees, a scale of
// 0.5 and a shift to (10, 20).
func rotated() [3]model.ControlPoint {
	s, c := math.Sin(math.Pi/6)*0.5, math.Cos(math.Pi/6)*0.5
	geo := func(x, y float64) model.ControlPoint {
		return cp(x, y, c*x-s*y+10, s*x+c*y+20)
	}
	return [3]model.ControlPoint{geo(0, 0), geo(100, 0), geo(30, 80)}
}

func TestSolve_Identity(t *testing.T) {
	coeffs, err := Solve(model.DefaultControlPoints())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, coeffs.A, 1e-12)
	assert.InDelta(t, 0.0, coeffs.B, 1e-12)
	assert.InDelta(t, 0.0, coeffs.C, 1e-12)
	assert.InDelta(t, 0.0, coeffs.D, 1e-12)
	assert.InDelta(t, 1.0, coeffs.E, 1e-12)
	assert.InDelta(t, 0.0, coeffs.F, 1e-12)
}

func TestSolve_ReproducesControlPoints(t *testing.T) {
	points := rotated()
	coeffs, err := Solve(points)
	require.NoError(t, err)

	for _, p := range points {
		g := coeffs.LocalToGeo(p.Local)
		assert.InDelta(t, p.Geo.Axis1, g.Axis1, 1e-9)
		assert.InDelta(t, p.Geo.Axis2, g.Axis2, 1e-9)
	}
}

func TestSolve_Collinear(t *testing.T) {
	cases := map[string][3]model.ControlPoint{
		"on a line":     {cp(0, 0, 0, 0), cp(1, 1, 1, 1), cp(2, 2, 2, 2)},
		"repeated":      {cp(5, 5, 0, 0), cp(5, 5, 1, 0), cp(0, 1, 0, 1)},
		"nearly a line": {cp(0, 0, 0, 0), cp(1000, 0, 1, 0), cp(2000, 1e-7, 2, 0)},
	}
	for name, points := range cases {
		t.Run(name, func(t *testing.T) {
			coeffs, err := Solve(points)
			assert.ErrorIs(t, err, ErrCollinear)
			assert.Equal(t, Coefficients{}, coeffs)
		})
	}
}

func TestSolve_TinyLocalTriangle(t *testing.T) {
	// A tiny local triangle still spans the plane.
	points := [3]model.ControlPoint{
		cp(0, 0, 19.04, 47.49),
		cp(0.001, 0, 19.05, 47.49),
		cp(0, 0.001, 19.04, 47.50),
	}
	coeffs, err := Solve(points)
	require.NoError(t, err)
	g := coeffs.LocalToGeo(model.Point2D{X: 0.0005, Y: 0.0005})
	assert.InDelta(t, 19.045, g.Axis1, 1e-9)
	assert.InDelta(t, 47.495, g.Axis2, 1e-9)
}

func TestCoefficients_RoundTrip(t *testing.T) {
	coeffs, err := Solve(rotated())
	require.NoError(t, err)

	for _, p := range []model.Point2D{{X: 0, Y: 0}, {X: 12.5, Y: -3}, {X: 1e4, Y: 7e3}} {
		back, err := coeffs.GeoToLocal(coeffs.LocalToGeo(p))
		require.NoError(t, err)
		assert.InDelta(t, p.X, back.X, 1e-6)
		assert.InDelta(t, p.Y, back.Y, 1e-6)
	}
}

func TestCoefficients_GeoToLocalSingular(t *testing.T) {
	cases := map[string]Coefficients{
		"zero":       {},
		"degenerate": {A: 1, B: 2, D: 2, E: 4},
	}
	for name, coeffs := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := coeffs.GeoToLocal(model.GeoPoint{Axis1: 1, Axis2: 1})
			assert.ErrorIs(t, err, ErrSingular)
		})
	}
}

func TestCoefficients_RingToGeo(t *testing.T) {
	coeffs := Coefficients{A: 2, E: 3, C: 1, F: -1}
	got := coeffs.RingToGeo(model.Ring{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}})
	assert.Equal(t, []model.GeoPoint{{Axis1: 1, Axis2: -1}, {Axis1: 3, Axis2: -1}, {Axis1: 3, Axis2: 2}}, got)
}

func newCalibrator(t *testing.T) *Calibrator {
	t.Helper()
	c, err := NewCalibrator(model.DefaultControlPoints())
	require.NoError(t, err)
	return c
}

func TestNewCalibrator_RejectsCollinearFallback(t *testing.T) {
	_, err := NewCalibrator([3]model.ControlPoint{cp(0, 0, 0, 0), cp(1, 0, 1, 0), cp(2, 0, 2, 0)})
	assert.ErrorIs(t, err, ErrCollinear)
}

func TestCalibrator_UsesFallbackWhileUncalibrated(t *testing.T) {
	c := newCalibrator(t)
	assert.Equal(t, Uncalibrated, c.State())

	g, err := c.LocalToGeo(model.Point2D{X: 3, Y: 4})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, g.Axis1, 1e-12)
	assert.InDelta(t, 4.0, g.Axis2, 1e-12)

	_, ok := c.Points()
	assert.False(t, ok)
}

func TestCalibrator_CaptureSequence(t *testing.T) {
	c := newCalibrator(t)
	points := rotated()

	for i := 0; i < 2; i++ {
		_, done, err := c.Capture(points[i])
		require.NoError(t, err)
		assert.False(t, done)
		assert.Equal(t, i+1, c.Pending())
		assert.Equal(t, Uncalibrated, c.State(), "partial sets never activate")
	}

	got, done, err := c.Capture(points[2])
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, points, got)
	assert.Equal(t, Calibrated, c.State())
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, uint64(1), c.Version())

	active, ok := c.Points()
	require.True(t, ok)
	assert.Equal(t, points, active)

	g, err := c.LocalToGeo(points[1].Local)
	require.NoError(t, err)
	assert.InDelta(t, points[1].Geo.Axis1, g.Axis1, 1e-9)
	assert.InDelta(t, points[1].Geo.Axis2, g.Axis2, 1e-9)
}

func TestCalibrator_CollinearCaptureKeepsState(t *testing.T) {
	c := newCalibrator(t)
	require.NoError(t, c.Load(rotated()))
	before, err := c.Coefficients()
	require.NoError(t, err)

	_, _, err = c.Capture(cp(0, 0, 0, 0))
	require.NoError(t, err)
	_, _, err = c.Capture(cp(1, 1, 1, 1))
	require.NoError(t, err)
	_, done, err := c.Capture(cp(2, 2, 2, 2))

	assert.ErrorIs(t, err, ErrCollinear)
	assert.False(t, done)
	assert.Equal(t, 0, c.Pending(), "invalid set is discarded")
	assert.Equal(t, Calibrated, c.State())
	assert.Equal(t, uint64(1), c.Version())

	after, err := c.Coefficients()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	for _, v := range []float64{after.A, after.B, after.C, after.D, after.E, after.F} {
		assert.False(t, math.IsNaN(v))
	}
}

func TestCalibrator_Reset(t *testing.T) {
	c := newCalibrator(t)
	_, _, err := c.Capture(cp(0, 0, 0, 0))
	require.NoError(t, err)
	c.Reset()
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, Uncalibrated, c.State())
}

func TestCalibrator_LoadInvalidatesCache(t *testing.T) {
	c := newCalibrator(t)
	identity, err := c.Coefficients()
	require.NoError(t, err)

	require.NoError(t, c.Load(rotated()))
	assert.Equal(t, uint64(1), c.Version())
	coeffs, err := c.Coefficients()
	require.NoError(t, err)
	assert.NotEqual(t, identity, coeffs)

	want, err := Solve(rotated())
	require.NoError(t, err)
	assert.Equal(t, want, coeffs)
}

func TestCalibrator_LoadRejectsCollinear(t *testing.T) {
	c := newCalibrator(t)
	err := c.Load([3]model.ControlPoint{cp(0, 0, 0, 0), cp(1, 1, 1, 1), cp(2, 2, 2, 2)})
	assert.ErrorIs(t, err, ErrCollinear)
	assert.Equal(t, Uncalibrated, c.State())
	assert.Equal(t, uint64(0), c.Version())
}

func TestCalibrator_ConcurrentReaders(t *testing.T) {
	c := newCalibrator(t)
	require.NoError(t, c.Load(rotated()))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := model.Point2D{X: float64(i), Y: float64(2 * i)}
			g, err := c.LocalToGeo(p)
			assert.NoError(t, err)
			back, err := c.GeoToLocal(g)
			assert.NoError(t, err)
			assert.InDelta(t, p.X, back.X, 1e-9)
			assert.InDelta(t, p.Y, back.Y, 1e-9)
		}(i)
	}
	wg.Wait()
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uncalibrated", Uncalibrated.String())
	assert.Equal(t, "calibrated", Calibrated.String())
	assert.Equal(t, "State(7)", State(7).String())
}
