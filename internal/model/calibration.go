package model

// GeoPoint is a coordinate in the geographic reference system. The axes are
// named neutrally because the engine does not care whether they hold
// lon/lat, lat/lon or projected easting/northing.
type GeoPoint struct {
	Axis1 float64 `json:"axis1"`
	Axis2 float64 `json:"axis2"`
}

// ControlPoint pairs a local drawing-plane point with its known
// geographic position.
type ControlPoint struct {
	Local Point2D  `json:"local"`
	Geo   GeoPoint `json:"geo"`
}

// ControlPointCount is the number of control points of a calibration.
const ControlPointCount = 3

// DefaultControlPoints maps the local unit triangle onto the same geographic
// values, making the uncalibrated transform the identity.
func DefaultControlPoints() [ControlPointCount]ControlPoint {
	return [ControlPointCount]ControlPoint{
		{Local: Point2D{X: 0, Y: 0}, Geo: GeoPoint{Axis1: 0, Axis2: 0}},
		{Local: Point2D{X: 1, Y: 0}, Geo: GeoPoint{Axis1: 1, Axis2: 0}},
		{Local: Point2D{X: 0, Y: 1}, Geo: GeoPoint{Axis1: 0, Axis2: 1}},
	}
}
