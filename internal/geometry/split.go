package geometry

import (
	"fmt"
	"math"

	"github.com/piwi3910/ParcelKit/internal/model"
)

// Split cuts a single-ring parcel along the line through from and to.
//
// The cut is extended well past the parcel in both directions, so the two
// points may lie anywhere on or near the boundary. The parcel is then
// intersected with the two half-planes on either side of the line. The
// boolean result is false when the line misses the parcel or one side has
// no area; that is an expected outcome, not an error.
func (a *Algebra) Split(parcel model.Parcel, from, to model.Point2D) (SplitResult, bool, error) {
	if parcel.Boundary.IsMulti() {
		return SplitResult{}, false, fmt.Errorf("parcel %q: %w", parcel.ID, ErrMultiRing)
	}
	if err := parcel.Boundary.Validate(); err != nil {
		return SplitResult{}, false, fmt.Errorf("parcel %q: %w", parcel.ID, err)
	}

	length := from.Distance(to)
	if length == 0 {
		return SplitResult{}, false, nil
	}

	ring := parcel.Boundary.Outer()
	poly := Polygon{ring.Closed()}
	left, right := halfPlaneMasks(ring, from, to, a.Settings.SplitExtension)

	side1, err := a.Kernel.Intersect(poly, left)
	if err != nil {
		return SplitResult{}, false, fmt.Errorf("intersect: %w", err)
	}
	side2, err := a.Kernel.Intersect(poly, right)
	if err != nil {
		return SplitResult{}, false, fmt.Errorf("intersect: %w", err)
	}

	minArea := a.Settings.MinPartArea
	if len(side1) == 0 || len(side2) == 0 || side1.Area() <= minArea || side2.Area() <= minArea {
		return SplitResult{}, false, nil
	}

	part1, err := a.shapePiece(side1)
	if err != nil {
		return SplitResult{}, false, err
	}
	part2, err := a.shapePiece(side2)
	if err != nil {
		return SplitResult{}, false, err
	}
	return SplitResult{Part1: part1, Part2: part2}, true, nil
}

// halfPlaneMasks builds two large counter-clockwise quadrilaterals sharing
// the extended cut line as an edge, one on each side of it. Both reach far
// enough to cover the whole ring whatever the position of from and to.
func halfPlaneMasks(ring model.Ring, from, to model.Point2D, extension float64) (left, right Polygon) {
	min, max := ring.BoundingBox()
	diag := min.Distance(max)
	center := model.Point2D{X: (min.X + max.X) / 2, Y: (min.Y + max.Y) / 2}

	length := from.Distance(to)
	ux, uy := (to.X-from.X)/length, (to.Y-from.Y)/length
	nx, ny := -uy, ux

	reach := math.Max(extension, 1)*(diag+from.Distance(center)) + length

	start := model.Point2D{X: from.X - ux*reach, Y: from.Y - uy*reach}
	end := model.Point2D{X: to.X + ux*reach, Y: to.Y + uy*reach}
	offset := func(p model.Point2D, sign float64) model.Point2D {
		return model.Point2D{X: p.X + sign*nx*reach, Y: p.Y + sign*ny*reach}
	}

	left = Polygon{model.Ring{start, end, offset(end, 1), offset(start, 1)}.Closed()}
	right = Polygon{model.Ring{start, offset(start, -1), offset(end, -1), end}.Closed()}
	return left, right
}
