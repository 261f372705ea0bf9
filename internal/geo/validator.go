// Package geo holds the pure geospatial primitives: coordinate validation and distances.
package geo

import (
	"mecabal-location/internal/apperr"
	"mecabal-location/internal/models"
)

// Bounds is an operating-region bounding box. Edges are inclusive.
type Bounds struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Contains reports whether c lies inside the box.
func (b Bounds) Contains(c models.Coordinates) bool {
	return c.Latitude >= b.LatMin && c.Latitude <= b.LatMax &&
		c.Longitude >= b.LonMin && c.Longitude <= b.LonMax
}

// Validator rejects geographically impossible or out-of-region coordinates.
type Validator struct {
	region Bounds
}

// NewValidator creates a validator for the given operating region.
func NewValidator(region Bounds) *Validator {
	return &Validator{region: region}
}

// Validate returns nil for an acceptable point, an InvalidCoordinate error for
// non-finite or out-of-range values, and an OutOfRegion error otherwise.
func (v *Validator) Validate(c models.Coordinates) error {
	if !c.Finite() {
		return apperr.New(apperr.InvalidCoordinate, "coordinates must be finite numbers")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return apperr.New(apperr.InvalidCoordinate, "invalid latitude: %f", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return apperr.New(apperr.InvalidCoordinate, "invalid longitude: %f", c.Longitude)
	}
	if !v.region.Contains(c) {
		return apperr.New(apperr.OutOfRegion, "coordinates (%f, %f) are outside the operating region", c.Latitude, c.Longitude)
	}
	return nil
}
