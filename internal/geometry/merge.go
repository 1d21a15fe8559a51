package geometry

import (
	"fmt"

	"github.com/piwi3910/ParcelKit/internal/model"
)

// Merge unions the boundaries of two or more parcels.
//
// When the plain union falls apart into several polygons, usually because
// hand-drawn neighbors leave hairline gaps, every input is buffered by
// HealBuffer and the union is retried. If it is still disjoint the pieces
// of the plain union are returned as a multi-ring boundary. Reconciling ids
// and attributes of the merged parcel is left to the caller.
func (a *Algebra) Merge(parcels []model.Parcel) (Piece, error) {
	if len(parcels) < 2 {
		return Piece{}, fmt.Errorf("%w: got %d", ErrTooFewParcels, len(parcels))
	}

	var polys []Polygon
	for _, p := range parcels {
		if err := p.Boundary.Validate(); err != nil {
			return Piece{}, fmt.Errorf("parcel %q: %w", p.ID, err)
		}
		polys = append(polys, polygonsFromBoundary(p.Boundary)...)
	}

	union, err := a.Kernel.Union(polys)
	if err != nil {
		return Piece{}, fmt.Errorf("union: %w", err)
	}
	if len(union) == 0 {
		return Piece{}, fmt.Errorf("%w: union of %d parcels is empty", ErrDegenerate, len(parcels))
	}
	if len(union) == 1 {
		return a.singlePiece(union[0])
	}

	a.Log.Debug().
		Int("parcels", len(parcels)).
		Int("pieces", len(union)).
		Float64("buffer", a.Settings.HealBuffer).
		Msg("Union is disjoint, healing gaps")

	buffered := make([]Polygon, len(polys))
	for i, p := range polys {
		b, err := a.Kernel.Buffer(p, a.Settings.HealBuffer)
		if err != nil {
			return Piece{}, fmt.Errorf("buffer: %w", err)
		}
		buffered[i] = b
	}

	healed, err := a.Kernel.Union(buffered)
	if err != nil {
		return Piece{}, fmt.Errorf("healed union: %w", err)
	}
	if len(healed) == 1 {
		piece, err := a.singlePiece(healed[0])
		if err != nil {
			return Piece{}, err
		}
		piece.Healed = true
		return piece, nil
	}

	a.Log.Debug().
		Int("pieces", len(healed)).
		Msg("Union still disjoint after healing, keeping all pieces")
	return a.multiPiece(union)
}
