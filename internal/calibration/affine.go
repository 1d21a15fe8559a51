// Package calibration maps local plane coordinates to geographic ones with
// an affine transform fitted from three control points.
package calibration

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/piwi3910/ParcelKit/internal/model"
)

const (
	// collinearEpsilon bounds the sine of the angle spanned by the control
	// points at the first one. Below it the points are treated as collinear.
	collinearEpsilon = 1e-9
	// singularEpsilon bounds the relative size of the linear part's
	// determinant before the transform is considered non-invertible.
	singularEpsilon = 1e-12
)

var (
	// ErrCollinear is returned when the local control points do not span
	// the plane.
	ErrCollinear = errors.New("control points are collinear")
	// ErrSingular is returned when the fitted transform cannot be inverted.
	ErrSingular = errors.New("transform is not invertible")
)

// Coefficients of the affine transform
//
//	geo1 = A*x + B*y + C
//	geo2 = D*x + E*y + F
type Coefficients struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
	E float64 `json:"e"`
	F float64 `json:"f"`
}

// Solve fits the transform that maps the local point of each control point
// onto its geographic point.
func Solve(points [model.ControlPointCount]model.ControlPoint) (Coefficients, error) {
	p1, p2, p3 := points[0].Local, points[1].Local, points[2].Local
	span := p1.Distance(p2) * p1.Distance(p3)
	if span == 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return Coefficients{}, ErrCollinear
	}

	local := mat.NewDense(3, 3, []float64{
		p1.X, p1.Y, 1,
		p2.X, p2.Y, 1,
		p3.X, p3.Y, 1,
	})
	det := mat.Det(local)
	if math.Abs(det)/span < collinearEpsilon {
		return Coefficients{}, fmt.Errorf("%w: determinant %g", ErrCollinear, det)
	}

	axis1 := []float64{points[0].Geo.Axis1, points[1].Geo.Axis1, points[2].Geo.Axis1}
	axis2 := []float64{points[0].Geo.Axis2, points[1].Geo.Axis2, points[2].Geo.Axis2}

	// Cramer: each unknown is det(local with one column replaced) / det.
	cramer := func(col int, values []float64) float64 {
		m := mat.DenseCopyOf(local)
		m.SetCol(col, values)
		return mat.Det(m) / det
	}

	return Coefficients{
		A: cramer(0, axis1),
		B: cramer(1, axis1),
		C: cramer(2, axis1),
		D: cramer(0, axis2),
		E: cramer(1, axis2),
		F: cramer(2, axis2),
	}, nil
}

// LocalToGeo maps a local point to geographic coordinates.
func (c Coefficients) LocalToGeo(p model.Point2D) model.GeoPoint {
	return model.GeoPoint{
		Axis1: c.A*p.X + c.B*p.Y + c.C,
		Axis2: c.D*p.X + c.E*p.Y + c.F,
	}
}

// GeoToLocal inverts the transform.
func (c Coefficients) GeoToLocal(g model.GeoPoint) (model.Point2D, error) {
	ae, bd := c.A*c.E, c.B*c.D
	det := ae - bd
	if math.Abs(det) <= singularEpsilon*math.Max(math.Abs(ae), math.Abs(bd)) {
		return model.Point2D{}, ErrSingular
	}
	u, v := g.Axis1-c.C, g.Axis2-c.F
	return model.Point2D{
		X: (c.E*u - c.B*v) / det,
		Y: (c.A*v - c.D*u) / det,
	}, nil
}

// RingToGeo maps every vertex of a ring.
func (c Coefficients) RingToGeo(r model.Ring) []model.GeoPoint {
	out := make([]model.GeoPoint, len(r))
	for i, p := range r {
		out[i] = c.LocalToGeo(p)
	}
	return out
}
