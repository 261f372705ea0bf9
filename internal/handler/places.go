package handler

import (
	"context"
	"net/http"
	"strings"

	"mecabal-location/internal/models"

	"github.com/gin-gonic/gin"
)

// PlacesHandler handles place search and details requests
type PlacesHandler struct {
	service PlacesService
}

// PlacesService interface for dependency injection
type PlacesService interface {
	SearchPlacesByText(ctx context.Context, q string, coords *models.Coordinates, radiusM int) ([]models.PlaceResult, error)
	PlaceDetails(ctx context.Context, placeID string) (*models.PlaceResult, error)
}

// NewPlacesHandler creates a new places handler
func NewPlacesHandler(svc PlacesService) *PlacesHandler {
	return &PlacesHandler{service: svc}
}

// Search handles GET /api/v1/places/search requests
//
//	@Summary	Search places by free text
//	@Tags		places
//	@Produce	json
//	@Param		q		query		string	true	"Search text"
//	@Param		lat		query		number	false	"Bias latitude"
//	@Param		lon		query		number	false	"Bias longitude"
//	@Param		radius	query		int		false	"Bias radius in meters"
//	@Success	200		{array}		models.PlaceResult
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/v1/places/search [get]
func (h *PlacesHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		badRequest(c, "missing required query parameter 'q'")
		return
	}

	coords, ok, err := queryCoordinates(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	radius, err := queryInt(c, "radius")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var bias *models.Coordinates
	if ok {
		bias = &coords
	}

	results, err := h.service.SearchPlacesByText(c.Request.Context(), q, bias, radius)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// Details handles GET /api/v1/places/:id requests
//
//	@Summary	Place details
//	@Tags		places
//	@Produce	json
//	@Param		id	path		string	true	"Provider place id"
//	@Success	200	{object}	models.PlaceResult
//	@Failure	400	{object}	ErrorResponse
//	@Router		/api/v1/places/{id} [get]
func (h *PlacesHandler) Details(c *gin.Context) {
	place, err := h.service.PlaceDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, place)
}
