package models

// PlaceResult is a place as reported by the external places provider.
type PlaceResult struct {
	PlaceID          string      `json:"place_id"`
	Name             string      `json:"name"`
	FormattedAddress string      `json:"formatted_address"`
	Vicinity         string      `json:"vicinity,omitempty"`
	Location         Coordinates `json:"location"`
	Types            []string    `json:"types"`
	Rating           *float64    `json:"rating,omitempty"`
	UserRatingsTotal *int        `json:"user_ratings_total,omitempty"`
}

// RatingOrZero returns the rating, treating a missing one as 0.
func (p PlaceResult) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}
