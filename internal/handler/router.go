package handler

import (
	"net/http"

	"mecabal-location/internal/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups the API handlers served by the router.
type Handlers struct {
	Places    *PlacesHandler
	Landmarks *LandmarksHandler
	Verify    *VerifyHandler
}

// NewRouter wires the API, health, metrics and swagger routes onto a gin engine.
func NewRouter(h Handlers, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware...)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.POST("/locations/verify", h.Verify.Verify)
	v1.GET("/places/search", h.Places.Search)
	v1.GET("/places/:id", h.Places.Details)
	v1.GET("/landmarks", h.Landmarks.Nearby)

	return r
}
