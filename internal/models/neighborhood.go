package models

import (
	"fmt"
	"math"

	"mecabal-location/internal/apperr"
)

// NeighborhoodType classifies how a community unit is defined on the ground.
type NeighborhoodType string

const (
	NeighborhoodEstate          NeighborhoodType = "estate"
	NeighborhoodTraditionalArea NeighborhoodType = "traditional_area"
	NeighborhoodRoadBased       NeighborhoodType = "road_based"
	NeighborhoodLandmarkBased   NeighborhoodType = "landmark_based"
	NeighborhoodTransportHub    NeighborhoodType = "transport_hub"
	NeighborhoodMarketBased     NeighborhoodType = "market_based"
)

// Valid reports whether t is one of the known neighborhood types.
func (t NeighborhoodType) Valid() bool {
	switch t {
	case NeighborhoodEstate, NeighborhoodTraditionalArea, NeighborhoodRoadBased,
		NeighborhoodLandmarkBased, NeighborhoodTransportHub, NeighborhoodMarketBased:
		return true
	}
	return false
}

// Neighborhood is a named, geofenced community unit with a center point and radius.
type Neighborhood struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Type     NeighborhoodType `json:"type"`
	Center   Coordinates      `json:"center"`
	RadiusKm float64          `json:"radius_km"`
}

// Validate reports malformed reference data.
func (n Neighborhood) Validate() error {
	switch {
	case n.ID == "":
		return fmt.Errorf("neighborhood %q: missing id", n.Name)
	case n.Name == "":
		return fmt.Errorf("neighborhood %s: missing name", n.ID)
	case !n.Type.Valid():
		return fmt.Errorf("neighborhood %s: unknown type %q", n.ID, n.Type)
	case !n.Center.Finite():
		return fmt.Errorf("neighborhood %s: center is not a finite coordinate", n.ID)
	case !(n.RadiusKm > 0) || math.IsInf(n.RadiusKm, 0):
		return fmt.Errorf("neighborhood %s: radius must be positive, got %v", n.ID, n.RadiusKm)
	}
	return nil
}

// NeighborhoodMatch is a neighborhood scored against a query point.
type NeighborhoodMatch struct {
	Neighborhood Neighborhood `json:"neighborhood"`
	DistanceKm   float64      `json:"distance_km"`
	Confidence   float64      `json:"confidence"`
}

// VerificationStatus is a state of the neighborhood verification state machine.
type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "unverified"
	StatusVerifying  VerificationStatus = "verifying"
	StatusVerified   VerificationStatus = "verified"
	StatusRejected   VerificationStatus = "rejected"
)

// VerificationResult is the outcome of verifying a coordinate. Exactly one of Match,
// Suggestions or Reason is set, according to Status.
type VerificationResult struct {
	Status      VerificationStatus  `json:"status"`
	Match       *NeighborhoodMatch  `json:"match,omitempty"`
	Suggestions []NeighborhoodMatch `json:"suggestions,omitempty"`
	Reason      apperr.Kind         `json:"reason,omitempty"`
}

// Verified builds a verified result.
func Verified(m NeighborhoodMatch) VerificationResult {
	return VerificationResult{Status: StatusVerified, Match: &m}
}

// Unverified builds an unverified result carrying ranked suggestions.
func Unverified(suggestions []NeighborhoodMatch) VerificationResult {
	return VerificationResult{Status: StatusUnverified, Suggestions: suggestions}
}

// Rejected builds a terminal rejection.
func Rejected(reason apperr.Kind) VerificationResult {
	return VerificationResult{Status: StatusRejected, Reason: reason}
}
