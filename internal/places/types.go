package places

// Wire types of the Places JSON web service. Only the fields the engine reads are declared.

type placesResponse struct {
	Results       []placeResult `json:"results"`
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type detailsResponse struct {
	Result       *placeResult `json:"result,omitempty"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

type placeResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Vicinity         string   `json:"vicinity,omitempty"`
	Geometry         geometry `json:"geometry"`
	Types            []string `json:"types"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
}

type geometry struct {
	Location latLng `json:"location"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Provider status vocabulary.
const (
	statusOK             = "OK"
	statusZeroResults    = "ZERO_RESULTS"
	statusOverQueryLimit = "OVER_QUERY_LIMIT"
	statusRequestDenied  = "REQUEST_DENIED"
	statusInvalidRequest = "INVALID_REQUEST"
	statusNotFound       = "NOT_FOUND"
	statusUnknownError   = "UNKNOWN_ERROR"
)
