package geo

import "math"

// Point is a WGS84 coordinate pair for an establishment or the depot.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Distance returns the straight-line (planar) distance between two points
// in coordinate space. Routing only compares distances against each other,
// so the planar approximation is sufficient at municipal scale.
func Distance(a, b Point) float64 {
	dLat := a.Latitude - b.Latitude
	dLon := a.Longitude - b.Longitude
	return math.Sqrt(dLat*dLat + dLon*dLon)
}
