package models

import "math"

// Coordinates is a WGS84 point. Range and region checks live in the geo package.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Finite reports whether both components are finite numbers.
func (c Coordinates) Finite() bool {
	return !math.IsNaN(c.Latitude) && !math.IsInf(c.Latitude, 0) &&
		!math.IsNaN(c.Longitude) && !math.IsInf(c.Longitude, 0)
}
