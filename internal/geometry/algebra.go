package geometry

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/piwi3910/ParcelKit/internal/model"
)

var (
	// ErrTooFewParcels is returned when merge receives fewer than 2 parcels.
	ErrTooFewParcels = errors.New("merge needs at least 2 parcels")
	// ErrMultiRing is returned when split receives a multi-ring parcel.
	ErrMultiRing = errors.New("split does not support multi-ring parcels")
	// ErrDegenerate is returned when the inputs have no area at all.
	ErrDegenerate = errors.New("degenerate geometry")
)

// Piece is a polygon produced by a merge or split, with its area-weighted
// centroid.
type Piece struct {
	Boundary model.Boundary `json:"boundary"`
	Centroid model.Point2D  `json:"centroid"`
	// Healed is set when the union only became one polygon after buffering.
	Healed bool `json:"healed,omitempty"`
	// Disjoint is set when the boundary holds several separate rings.
	Disjoint bool `json:"disjoint,omitempty"`
}

// SplitResult holds the two sides of a cut parcel.
type SplitResult struct {
	Part1 Piece `json:"part1"`
	Part2 Piece `json:"part2"`
}

// Algebra runs merge and split on top of a Kernel.
type Algebra struct {
	Kernel   Kernel
	Settings model.EngineConfig
	Log      zerolog.Logger
}

func New(kernel Kernel, settings model.EngineConfig) *Algebra {
	return &Algebra{
		Kernel:   kernel,
		Settings: settings,
		Log:      zerolog.Nop(),
	}
}

// WithLogger returns a copy of the algebra that logs to l.
func (a *Algebra) WithLogger(l zerolog.Logger) *Algebra {
	cp := *a
	cp.Log = l
	return &cp
}

// simplify applies the configured simplification, keeping the input when
// the result would no longer be a ring.
func (a *Algebra) simplify(p Polygon) (Polygon, error) {
	if a.Settings.SimplifyTolerance <= 0 {
		return p, nil
	}
	simplified, err := a.Kernel.Simplify(p, a.Settings.SimplifyTolerance)
	if err != nil {
		return nil, fmt.Errorf("simplify: %w", err)
	}
	if len(simplified.Exterior().Open()) < 3 {
		return p, nil
	}
	return simplified, nil
}

// singlePiece simplifies one polygon and returns its outer ring.
func (a *Algebra) singlePiece(p Polygon) (Piece, error) {
	simplified, err := a.simplify(p)
	if err != nil {
		return Piece{}, err
	}
	centroid, err := a.Kernel.Centroid(simplified)
	if err != nil {
		return Piece{}, fmt.Errorf("centroid: %w", err)
	}
	return Piece{
		Boundary: model.SingleRing(simplified.Exterior().Open()),
		Centroid: centroid,
	}, nil
}

// multiPiece keeps every polygon of a shape as a separate ring, with the
// centroid weighted by the area of each polygon.
func (a *Algebra) multiPiece(s Shape) (Piece, error) {
	rings := make([]model.Ring, 0, len(s))
	var sumX, sumY, sumArea float64
	var plainX, plainY float64
	for _, p := range s {
		simplified, err := a.simplify(p)
		if err != nil {
			return Piece{}, err
		}
		c, err := a.Kernel.Centroid(simplified)
		if err != nil {
			return Piece{}, fmt.Errorf("centroid: %w", err)
		}
		area := simplified.Area()
		sumX += c.X * area
		sumY += c.Y * area
		sumArea += area
		plainX += c.X
		plainY += c.Y
		rings = append(rings, simplified.Exterior().Open())
	}

	var centroid model.Point2D
	switch {
	case sumArea > 0:
		centroid = model.Point2D{X: sumX / sumArea, Y: sumY / sumArea}
	case len(s) > 0:
		centroid = model.Point2D{X: plainX / float64(len(s)), Y: plainY / float64(len(s))}
	}
	return Piece{
		Boundary: model.MultiRing(rings),
		Centroid: centroid,
		Disjoint: true,
	}, nil
}

// shapePiece returns a single-ring piece for one polygon and a multi-ring
// piece otherwise.
func (a *Algebra) shapePiece(s Shape) (Piece, error) {
	if len(s) == 1 {
		return a.singlePiece(s[0])
	}
	return a.multiPiece(s)
}
