// Package geometry merges and splits parcel polygons. The boolean polygon
// operations come from an injected Kernel so the algebra does not depend
// on one geometry library's API.
package geometry

import (
	"github.com/piwi3910/ParcelKit/internal/model"
)

// Polygon is a list of closed rings, exterior first, holes after.
type Polygon []model.Ring

// Exterior returns the exterior ring, or nil for an empty polygon.
func (p Polygon) Exterior() model.Ring {
	if len(p) == 0 {
		return nil
	}
	return p[0]
}

// Area returns the exterior area minus the hole areas.
func (p Polygon) Area() float64 {
	if len(p) == 0 {
		return 0
	}
	area := p[0].Area()
	for _, hole := range p[1:] {
		area -= hole.Area()
	}
	return area
}

// Shape is the result of a boolean operation: zero or more polygons.
type Shape []Polygon

// Area returns the summed area of all polygons.
func (s Shape) Area() float64 {
	var total float64
	for _, p := range s {
		total += p.Area()
	}
	return total
}

// Kernel is the robust 2D polygon capability the algebra is built on.
type Kernel interface {
	// Union returns the union of all polygons.
	Union(polys []Polygon) (Shape, error)
	// Intersect returns the intersection of two polygons.
	Intersect(a, b Polygon) (Shape, error)
	// Buffer grows a polygon outward by distance.
	Buffer(p Polygon, distance float64) (Polygon, error)
	// Simplify removes vertices that deviate less than tolerance from a
	// straight line without changing the topology.
	Simplify(p Polygon, tolerance float64) (Polygon, error)
	// Centroid returns the area-weighted centroid.
	Centroid(p Polygon) (model.Point2D, error)
}

// polygonsFromBoundary turns every ring of a boundary into its own closed
// polygon. Rings of a multi-ring boundary are separate pieces, not holes.
func polygonsFromBoundary(b model.Boundary) []Polygon {
	polys := make([]Polygon, 0, len(b.Rings))
	for _, r := range b.Rings {
		polys = append(polys, Polygon{r.Closed()})
	}
	return polys
}
