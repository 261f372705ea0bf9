package handler

import (
	"errors"
	"net/http"
	"strconv"

	"mecabal-location/internal/apperr"
	"mecabal-location/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidCoordinate, apperr.InvalidRequest:
		return http.StatusBadRequest
	case apperr.OutOfRegion:
		return http.StatusUnprocessableEntity
	case apperr.RateLimited:
		return http.StatusTooManyRequests
	case apperr.MissingCredentials, apperr.ProviderUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto a status code. Untyped failures are logged and hidden.
func writeError(c *gin.Context, err error) {
	var typed *apperr.Error
	if !errors.As(err, &typed) {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Kind: apperr.Unknown})
		return
	}

	status := statusFor(typed.Kind)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, ErrorResponse{Error: typed.Message, Kind: typed.Kind})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Kind: apperr.InvalidRequest})
}

// queryCoordinates reads lat and lon. ok is false when both are absent; an error is
// returned when only one is present or either is not a number.
func queryCoordinates(c *gin.Context) (coords models.Coordinates, ok bool, err error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		return coords, false, nil
	}
	if latStr == "" || lonStr == "" {
		return coords, false, errors.New("query parameters 'lat' and 'lon' must be given together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return coords, false, errors.New("invalid latitude format")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return coords, false, errors.New("invalid longitude format")
	}
	return models.Coordinates{Latitude: lat, Longitude: lon}, true, nil
}

// queryInt reads an optional non-negative integer parameter, 0 when absent.
func queryInt(c *gin.Context, name string) (int, error) {
	s := c.Query(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, errors.New("invalid " + name + " format")
	}
	return v, nil
}
