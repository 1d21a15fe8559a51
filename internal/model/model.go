// Package model holds the plain data types shared by the parcel engine:
// plane points and rings, parcel boundaries, attributes, calibration
// records and engine configuration.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var (
	// ErrRingTooShort is returned for rings with fewer than 3 distinct points.
	ErrRingTooShort = errors.New("ring needs at least 3 points")
	// ErrEmptyBoundary is returned for a boundary without rings.
	ErrEmptyBoundary = errors.New("boundary has no rings")
)

// Point2D represents a coordinate on the local drawing plane.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func (p Point2D) Distance(o Point2D) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Ring is a polygon ring as an ordered sequence of points. Repeating the
// first point at the end is allowed but not required.
type Ring []Point2D

// Open returns the ring without a repeated closing point.
func (r Ring) Open() Ring {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

// Closed returns a copy of the ring whose last point equals the first.
func (r Ring) Closed() Ring {
	open := r.Open()
	result := make(Ring, len(open), len(open)+1)
	copy(result, open)
	if len(open) > 0 {
		result = append(result, open[0])
	}
	return result
}

// BoundingBox returns the min and max corners of the ring.
func (r Ring) BoundingBox() (min, max Point2D) {
	if len(r) == 0 {
		return Point2D{}, Point2D{}
	}
	min, max = r[0], r[0]
	for _, p := range r[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

// Translate shifts all points by dx, dy.
func (r Ring) Translate(dx, dy float64) Ring {
	result := make(Ring, len(r))
	for i, p := range r {
		result[i] = Point2D{X: p.X + dx, Y: p.Y + dy}
	}
	return result
}

// SignedArea computes the shoelace area; counter-clockwise rings are positive.
func (r Ring) SignedArea() float64 {
	open := r.Open()
	n := len(open)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += open[i].X*open[j].Y - open[j].X*open[i].Y
	}
	return area / 2
}

// Area returns the absolute geometric area of the ring.
func (r Ring) Area() float64 {
	if len(r.Open()) < 3 {
		return 0
	}
	return math.Abs(planar.Area(r.Orb()))
}

// Centroid returns the area-weighted centroid of the ring.
func (r Ring) Centroid() Point2D {
	c, _ := planar.CentroidArea(r.Orb())
	return Point2D{X: c[0], Y: c[1]}
}

// Orb converts the ring to a closed orb.Ring.
func (r Ring) Orb() orb.Ring {
	closed := r.Closed()
	result := make(orb.Ring, len(closed))
	for i, p := range closed {
		result[i] = orb.Point{p.X, p.Y}
	}
	return result
}

// RingFromOrb converts an orb.Ring back to an open Ring.
func RingFromOrb(o orb.Ring) Ring {
	result := make(Ring, len(o))
	for i, p := range o {
		result[i] = Point2D{X: p[0], Y: p[1]}
	}
	return result.Open()
}

// Validate checks that the ring has at least 3 distinct points.
func (r Ring) Validate() error {
	seen := make(map[Point2D]struct{}, len(r))
	for _, p := range r {
		seen[p] = struct{}{}
	}
	if len(seen) < 3 {
		return fmt.Errorf("%w: got %d", ErrRingTooShort, len(seen))
	}
	return nil
}

// MarshalJSON encodes the ring as a list of [x, y] pairs.
func (r Ring) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, len(r))
	for i, p := range r {
		pairs[i] = [2]float64{p.X, p.Y}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON decodes a list of [x, y] pairs.
func (r *Ring) UnmarshalJSON(data []byte) error {
	var pairs [][2]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	ring := make(Ring, len(pairs))
	for i, pair := range pairs {
		ring[i] = Point2D{X: pair[0], Y: pair[1]}
	}
	*r = ring
	return nil
}

// Boundary is either a single ring or, for parcels produced by a merge that
// could not be resolved into one simple polygon, a list of rings.
type Boundary struct {
	Rings []Ring
	Multi bool
}

// SingleRing builds a single-ring boundary.
func SingleRing(r Ring) Boundary {
	return Boundary{Rings: []Ring{r}}
}

// MultiRing builds a multi-ring boundary.
func MultiRing(rings []Ring) Boundary {
	return Boundary{Rings: rings, Multi: true}
}

// IsMulti reports whether the boundary is a multi-ring.
func (b Boundary) IsMulti() bool {
	return b.Multi || len(b.Rings) > 1
}

// Outer returns the first ring, or nil for an empty boundary.
func (b Boundary) Outer() Ring {
	if len(b.Rings) == 0 {
		return nil
	}
	return b.Rings[0]
}

// Vertices returns the vertices of every ring without closing points.
func (b Boundary) Vertices() []Point2D {
	var pts []Point2D
	for _, r := range b.Rings {
		pts = append(pts, r.Open()...)
	}
	return pts
}

// BoundingBox returns the min and max corners over all rings.
func (b Boundary) BoundingBox() (min, max Point2D) {
	all := Ring(b.Vertices())
	return all.BoundingBox()
}

// Area returns the summed geometric area of all rings.
func (b Boundary) Area() float64 {
	var total float64
	for _, r := range b.Rings {
		total += r.Area()
	}
	return total
}

// Validate checks the ring count and every ring.
func (b Boundary) Validate() error {
	if len(b.Rings) == 0 {
		return ErrEmptyBoundary
	}
	for i, r := range b.Rings {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("ring %d: %w", i, err)
		}
	}
	return nil
}

// MarshalJSON encodes a single ring as [[x,y],...] and a multi-ring as
// [[[x,y],...],...].
func (b Boundary) MarshalJSON() ([]byte, error) {
	if !b.IsMulti() {
		if len(b.Rings) == 0 {
			return []byte("[]"), nil
		}
		return json.Marshal(b.Rings[0])
	}
	return json.Marshal(b.Rings)
}

// UnmarshalJSON accepts either boundary shape.
func (b *Boundary) UnmarshalJSON(data []byte) error {
	var single Ring
	if err := json.Unmarshal(data, &single); err == nil {
		*b = SingleRing(single)
		return nil
	}
	var multi []Ring
	if err := json.Unmarshal(data, &multi); err != nil {
		return fmt.Errorf("boundary is neither a ring nor a list of rings: %w", err)
	}
	*b = MultiRing(multi)
	return nil
}
