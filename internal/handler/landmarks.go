package handler

import (
	"context"
	"net/http"

	"mecabal-location/internal/models"

	"github.com/gin-gonic/gin"
)

// LandmarksHandler handles nearby landmark requests
type LandmarksHandler struct {
	service LandmarksService
}

// LandmarksService interface for dependency injection
type LandmarksService interface {
	DiscoverNearbyLandmarks(ctx context.Context, coords models.Coordinates, radiusM, maxResults int) ([]models.PlaceResult, error)
}

// NewLandmarksHandler creates a new landmarks handler
func NewLandmarksHandler(svc LandmarksService) *LandmarksHandler {
	return &LandmarksHandler{service: svc}
}

// Nearby handles GET /api/v1/landmarks requests
//
//	@Summary	Landmarks around a point
//	@Tags		landmarks
//	@Produce	json
//	@Param		lat		query		number	true	"Latitude"
//	@Param		lon		query		number	true	"Longitude"
//	@Param		radius	query		int		false	"Radius in meters"
//	@Param		max		query		int		false	"Maximum number of landmarks"
//	@Success	200		{array}		models.PlaceResult
//	@Failure	400		{object}	ErrorResponse
//	@Failure	422		{object}	ErrorResponse
//	@Router		/api/v1/landmarks [get]
func (h *LandmarksHandler) Nearby(c *gin.Context) {
	coords, ok, err := queryCoordinates(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if !ok {
		badRequest(c, "missing required query parameters 'lat' and 'lon'")
		return
	}

	radius, err := queryInt(c, "radius")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	maxResults, err := queryInt(c, "max")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	results, err := h.service.DiscoverNearbyLandmarks(c.Request.Context(), coords, radius, maxResults)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
