package handler

import (
	"context"
	"net/http"

	"mecabal-location/internal/models"

	"github.com/gin-gonic/gin"
)

// VerifyHandler handles neighborhood verification requests
type VerifyHandler struct {
	service VerifyService
}

// VerifyService interface for dependency injection
type VerifyService interface {
	VerifyLocation(ctx context.Context, userID string, coords models.Coordinates, address string) (models.VerificationResult, error)
}

// VerifyRequest is the body of POST /api/v1/locations/verify.
type VerifyRequest struct {
	UserID    string   `json:"user_id" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Address   string   `json:"address"`
}

// NewVerifyHandler creates a new verify handler
func NewVerifyHandler(svc VerifyService) *VerifyHandler {
	return &VerifyHandler{service: svc}
}

// Verify handles POST /api/v1/locations/verify requests. A rejected location is a
// successful response carrying status "rejected".
//
//	@Summary	Verify a location against known neighborhoods
//	@Tags		locations
//	@Accept		json
//	@Produce	json
//	@Param		body	body		VerifyRequest	true	"Location to verify"
//	@Success	200		{object}	models.VerificationResult
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/v1/locations/verify [post]
func (h *VerifyHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	coords := models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	result, err := h.service.VerifyLocation(c.Request.Context(), req.UserID, coords, req.Address)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
