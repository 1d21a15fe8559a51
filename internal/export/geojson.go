// Package export renders parcels and algebra results as GeoJSON.
package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/piwi3910/ParcelKit/internal/calibration"
	"github.com/piwi3910/ParcelKit/internal/geometry"
	"github.com/piwi3910/ParcelKit/internal/model"
)

// Projection maps a local point to output coordinates.
type Projection func(model.Point2D) orb.Point

// Local keeps plane coordinates.
func Local(p model.Point2D) orb.Point {
	return orb.Point{p.X, p.Y}
}

// Geo maps plane coordinates through a calibration, Axis1 first.
func Geo(coeffs calibration.Coefficients) Projection {
	return func(p model.Point2D) orb.Point {
		g := coeffs.LocalToGeo(p)
		return orb.Point{g.Axis1, g.Axis2}
	}
}

func ring(r model.Ring, project Projection) orb.Ring {
	closed := r.Closed()
	out := make(orb.Ring, len(closed))
	for i, p := range closed {
		out[i] = project(p)
	}
	return out
}

// BoundaryGeometry converts a boundary to a Polygon, or to a MultiPolygon
// with one polygon per ring for multi-ring boundaries.
func BoundaryGeometry(b model.Boundary, project Projection) orb.Geometry {
	if !b.IsMulti() {
		return orb.Polygon{ring(b.Outer(), project)}
	}
	mp := make(orb.MultiPolygon, len(b.Rings))
	for i, r := range b.Rings {
		mp[i] = orb.Polygon{ring(r, project)}
	}
	return mp
}

// ParcelFeature builds a feature carrying the parcel keys and attributes.
func ParcelFeature(p model.Parcel, project Projection) *geojson.Feature {
	f := geojson.NewFeature(BoundaryGeometry(p.Boundary, project))
	f.ID = p.ID
	f.Properties["id"] = p.ID
	f.Properties["block_key"] = p.BlockKey
	if p.UnitKey != "" {
		f.Properties["unit_key"] = p.UnitKey
	}
	if p.Attributes.Area != nil {
		f.Properties["area"] = *p.Attributes.Area
	}
	if p.Attributes.Price != nil {
		f.Properties["price"] = *p.Attributes.Price
	}
	if p.Attributes.Owner != "" {
		f.Properties["owner"] = p.Attributes.Owner
	}
	return f
}

// Parcels builds a feature collection of the parcels in order.
func Parcels(parcels []model.Parcel, project Projection) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range parcels {
		fc.Append(ParcelFeature(p, project))
	}
	return fc
}

// PieceFeature builds a feature for a merge or split result. The centroid
// and the geometric area are attached as properties.
func PieceFeature(piece geometry.Piece, project Projection) *geojson.Feature {
	f := geojson.NewFeature(BoundaryGeometry(piece.Boundary, project))
	c := project(piece.Centroid)
	f.Properties["centroid"] = []float64{c[0], c[1]}
	f.Properties["area"] = piece.Boundary.Area()
	if piece.Healed {
		f.Properties["healed"] = true
	}
	if piece.Disjoint {
		f.Properties["disjoint"] = true
	}
	return f
}

// Pieces builds a feature collection with one feature per piece, numbered
// from 1 in the part property.
func Pieces(pieces []geometry.Piece, project Projection) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, piece := range pieces {
		f := PieceFeature(piece, project)
		f.Properties["part"] = i + 1
		fc.Append(f)
	}
	return fc
}
