package model

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by EngineConfig.Validate.
var ErrInvalidConfig = errors.New("invalid engine config")

// EngineConfig holds the tolerances used by the engine operations.
type EngineConfig struct {
	// Adjacency
	VertexTolerance float64 `json:"vertex_tolerance" yaml:"vertex_tolerance"` // plane units

	// Combination search
	AreaTolerancePct float64 `json:"area_tolerance_pct" yaml:"area_tolerance_pct"` // fraction, 0.05 = 5%

	// Merge / split
	HealBuffer        float64 `json:"heal_buffer" yaml:"heal_buffer"`               // plane units
	SimplifyTolerance float64 `json:"simplify_tolerance" yaml:"simplify_tolerance"` // plane units
	SplitExtension    float64 `json:"split_extension" yaml:"split_extension"`       // multiples of the bbox diagonal
	MinPartArea       float64 `json:"min_part_area" yaml:"min_part_area"`           // square plane units

	// Control points used while no calibration has been saved
	FallbackControlPoints []ControlPoint `json:"fallback_control_points" yaml:"fallback_control_points"`
}

// DefaultEngineConfig returns an EngineConfig populated with the defaults
// tuned for hand-drawn parcel plans.
func DefaultEngineConfig() EngineConfig {
	fallback := DefaultControlPoints()
	return EngineConfig{
		VertexTolerance:       0.5,
		AreaTolerancePct:      0.05,
		HealBuffer:            0.1,
		SimplifyTolerance:     0.01,
		SplitExtension:        10,
		MinPartArea:           1e-9,
		FallbackControlPoints: fallback[:],
	}
}

// Fallback returns the fallback control points as a fixed-size set.
func (c EngineConfig) Fallback() [ControlPointCount]ControlPoint {
	var pts [ControlPointCount]ControlPoint
	copy(pts[:], c.FallbackControlPoints)
	return pts
}

// Validate rejects non-positive tolerances and malformed fallback points.
func (c EngineConfig) Validate() error {
	switch {
	case c.VertexTolerance <= 0:
		return fmt.Errorf("%w: vertex_tolerance must be > 0", ErrInvalidConfig)
	case c.AreaTolerancePct < 0:
		return fmt.Errorf("%w: area_tolerance_pct must be >= 0", ErrInvalidConfig)
	case c.HealBuffer <= 0:
		return fmt.Errorf("%w: heal_buffer must be > 0", ErrInvalidConfig)
	case c.SimplifyTolerance < 0:
		return fmt.Errorf("%w: simplify_tolerance must be >= 0", ErrInvalidConfig)
	case c.SplitExtension < 1:
		return fmt.Errorf("%w: split_extension must be >= 1", ErrInvalidConfig)
	case c.MinPartArea < 0:
		return fmt.Errorf("%w: min_part_area must be >= 0", ErrInvalidConfig)
	case len(c.FallbackControlPoints) != ControlPointCount:
		return fmt.Errorf("%w: need %d fallback control points, got %d",
			ErrInvalidConfig, ControlPointCount, len(c.FallbackControlPoints))
	}
	return nil
}
