package calibration

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/piwi3910/ParcelKit/internal/model"
)

// State of a Calibrator.
type State int

const (
	Uncalibrated State = iota
	Calibrated
)

func (s State) String() string {
	switch s {
	case Uncalibrated:
		return "uncalibrated"
	case Calibrated:
		return "calibrated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type cachedCoefficients struct {
	version uint64
	coeffs  Coefficients
}

// Calibrator holds the active control points and collects new ones.
//
// While uncalibrated the fallback points drive the transform. A new set only
// becomes active once all three points are captured and solve cleanly, so
// a partial set is never visible to callers.
type Calibrator struct {
	mu       sync.Mutex
	fallback [model.ControlPointCount]model.ControlPoint
	active   [model.ControlPointCount]model.ControlPoint
	state    State
	pending  []model.ControlPoint
	version  uint64

	cache atomic.Pointer[cachedCoefficients]
}

// NewCalibrator returns an uncalibrated Calibrator. The fallback points must
// solve.
func NewCalibrator(fallback [model.ControlPointCount]model.ControlPoint) (*Calibrator, error) {
	if _, err := Solve(fallback); err != nil {
		return nil, fmt.Errorf("fallback control points: %w", err)
	}
	return &Calibrator{fallback: fallback}, nil
}

// State reports whether a calibration is active.
func (c *Calibrator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Version increases every time a new calibration becomes active.
func (c *Calibrator) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Points returns the active control points, and false while uncalibrated.
func (c *Calibrator) Points() ([model.ControlPointCount]model.ControlPoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Calibrated {
		return [model.ControlPointCount]model.ControlPoint{}, false
	}
	return c.active, true
}

// Pending returns how many points of the set being captured are held.
func (c *Calibrator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Reset discards the points captured so far. The active calibration is
// kept.
func (c *Calibrator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// Capture records the next control point. On the third point the set is
// solved: if it is valid it becomes active and is returned with done set,
// ready to be persisted as a unit. Otherwise the captured points are
// discarded, the active calibration is left untouched and ErrCollinear is
// returned.
func (c *Calibrator) Capture(cp model.ControlPoint) (points [model.ControlPointCount]model.ControlPoint, done bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append(c.pending, cp)
	if len(c.pending) < model.ControlPointCount {
		return points, false, nil
	}

	copy(points[:], c.pending)
	c.pending = nil
	if _, err := Solve(points); err != nil {
		return [model.ControlPointCount]model.ControlPoint{}, false, err
	}
	c.activate(points)
	return points, true, nil
}

// Load installs a persisted calibration.
func (c *Calibrator) Load(points [model.ControlPointCount]model.ControlPoint) error {
	if _, err := Solve(points); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activate(points)
	return nil
}

// activate must be called with mu held.
func (c *Calibrator) activate(points [model.ControlPointCount]model.ControlPoint) {
	c.active = points
	c.state = Calibrated
	c.version++
}

// Coefficients returns the transform for the current calibration, or for
// the fallback points while uncalibrated. The solve is cached per version.
func (c *Calibrator) Coefficients() (Coefficients, error) {
	c.mu.Lock()
	version := c.version
	points := c.fallback
	if c.state == Calibrated {
		points = c.active
	}
	c.mu.Unlock()

	if cached := c.cache.Load(); cached != nil && cached.version == version {
		return cached.coeffs, nil
	}

	coeffs, err := Solve(points)
	if err != nil {
		return Coefficients{}, err
	}
	c.cache.Store(&cachedCoefficients{version: version, coeffs: coeffs})
	return coeffs, nil
}

// LocalToGeo maps a local point with the current transform.
func (c *Calibrator) LocalToGeo(p model.Point2D) (model.GeoPoint, error) {
	coeffs, err := c.Coefficients()
	if err != nil {
		return model.GeoPoint{}, err
	}
	return coeffs.LocalToGeo(p), nil
}

// GeoToLocal maps a geographic point back with the current transform.
func (c *Calibrator) GeoToLocal(g model.GeoPoint) (model.Point2D, error) {
	coeffs, err := c.Coefficients()
	if err != nil {
		return model.Point2D{}, err
	}
	return coeffs.GeoToLocal(g)
}
