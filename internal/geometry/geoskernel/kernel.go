// Package geoskernel implements geometry.Kernel on top of GEOS through
// github.com/twpayne/go-geos.
//
// The package requires cgo and the GEOS C library (libgeos-dev on Debian
// and Ubuntu, geos on Homebrew). With CGO_ENABLED=0 or without the library
// the package and its tests fail to build rather than being skipped, so CI
// must install GEOS before running go test ./... The control flow of
// geometry.Algebra is also covered without GEOS by the fake kernel tests in
// internal/geometry.
package geoskernel

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-geos"

	"github.com/piwi3910/ParcelKit/internal/geometry"
	"github.com/piwi3910/ParcelKit/internal/model"
)

// bufferQuadSegs is the number of segments per quarter circle used to
// approximate buffered corners.
const bufferQuadSegs = 8

// ErrUnexpectedGeometry is returned when GEOS hands back a geometry type
// that cannot be read as polygons.
var ErrUnexpectedGeometry = errors.New("unexpected geometry type")

// Kernel is a geometry.Kernel backed by a GEOS context. The context
// serializes calls, so a Kernel may be shared.
type Kernel struct {
	ctx *geos.Context
}

var _ geometry.Kernel = (*Kernel)(nil)

func New() *Kernel {
	return &Kernel{ctx: geos.NewContext()}
}

// Union returns the union of all polygons.
func (k *Kernel) Union(polys []geometry.Polygon) (geometry.Shape, error) {
	if len(polys) == 0 {
		return nil, nil
	}
	geoms := make([]*geos.Geom, len(polys))
	for i, p := range polys {
		geoms[i] = k.polygon(p)
	}
	collection := k.ctx.NewCollection(geos.TypeIDGeometryCollection, geoms)
	union := collection.UnaryUnion()
	if union == nil {
		return nil, fmt.Errorf("union of %d polygons failed", len(polys))
	}
	return toShape(union)
}

// Intersect returns the intersection of two polygons.
func (k *Kernel) Intersect(a, b geometry.Polygon) (geometry.Shape, error) {
	result := k.polygon(a).Intersection(k.polygon(b))
	if result == nil {
		return nil, errors.New("intersection failed")
	}
	return toShape(result)
}

// Buffer grows a polygon outward by distance with rounded corners.
func (k *Kernel) Buffer(p geometry.Polygon, distance float64) (geometry.Polygon, error) {
	buffered := k.polygon(p).Buffer(distance, bufferQuadSegs)
	if buffered == nil {
		return nil, errors.New("buffer failed")
	}
	shape, err := toShape(buffered)
	if err != nil {
		return nil, err
	}
	if len(shape) != 1 {
		return nil, fmt.Errorf("%w: buffer produced %d polygons", ErrUnexpectedGeometry, len(shape))
	}
	return shape[0], nil
}

// Simplify removes near-collinear vertices while preserving topology.
func (k *Kernel) Simplify(p geometry.Polygon, tolerance float64) (geometry.Polygon, error) {
	simplified := k.polygon(p).TopologyPreserveSimplify(tolerance)
	if simplified == nil {
		return nil, errors.New("simplify failed")
	}
	shape, err := toShape(simplified)
	if err != nil {
		return nil, err
	}
	if len(shape) != 1 {
		return p, nil
	}
	return shape[0], nil
}

// Centroid returns the area-weighted centroid of the polygon.
func (k *Kernel) Centroid(p geometry.Polygon) (model.Point2D, error) {
	c := k.polygon(p).Centroid()
	if c == nil || c.IsEmpty() {
		return model.Point2D{}, errors.New("centroid of empty polygon")
	}
	return model.Point2D{X: c.X(), Y: c.Y()}, nil
}

// polygon converts closed rings to a GEOS polygon.
func (k *Kernel) polygon(p geometry.Polygon) *geos.Geom {
	coords := make([][][]float64, len(p))
	for i, ring := range p {
		closed := ring.Closed()
		rc := make([][]float64, len(closed))
		for j, pt := range closed {
			rc[j] = []float64{pt.X, pt.Y}
		}
		coords[i] = rc
	}
	return k.ctx.NewPolygon(coords)
}

// toShape flattens a polygon, multipolygon or collection into polygons.
// Lower-dimensional parts of a collection, such as the line left where two
// polygons only touch, carry no area and are dropped.
func toShape(g *geos.Geom) (geometry.Shape, error) {
	if g.IsEmpty() {
		return nil, nil
	}
	switch g.TypeID() {
	case geos.TypeIDPolygon:
		return geometry.Shape{fromPolygon(g)}, nil
	case geos.TypeIDMultiPolygon, geos.TypeIDGeometryCollection:
		var shape geometry.Shape
		for i := 0; i < g.NumGeometries(); i++ {
			part, err := toShape(g.Geometry(i))
			if err != nil {
				return nil, err
			}
			shape = append(shape, part...)
		}
		return shape, nil
	case geos.TypeIDPoint, geos.TypeIDLineString, geos.TypeIDLinearRing,
		geos.TypeIDMultiPoint, geos.TypeIDMultiLineString:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: type id %d", ErrUnexpectedGeometry, g.TypeID())
	}
}

func fromPolygon(g *geos.Geom) geometry.Polygon {
	poly := geometry.Polygon{ringFromCoords(g.ExteriorRing().CoordSeq().ToCoords())}
	for i := 0; i < g.NumInteriorRings(); i++ {
		poly = append(poly, ringFromCoords(g.InteriorRing(i).CoordSeq().ToCoords()))
	}
	return poly
}

func ringFromCoords(coords [][]float64) model.Ring {
	ring := make(model.Ring, len(coords))
	for i, c := range coords {
		ring[i] = model.Point2D{X: c[0], Y: c[1]}
	}
	return ring
}
