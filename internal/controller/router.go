package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger проверка доступности хранилища для /healthz
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter собирает HTTP API планировщика
func NewRouter(
	logger *zap.Logger,
	jwtSecret []byte,
	db Pinger,
	availability AvailabilityUseCase,
	bookings BookingUseCase,
	catalog CatalogUseCase,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	router.GET("/healthz", healthHandler(db))

	api := router.Group("/api")
	protected := api.Group("")
	protected.Use(AuthMiddleware(jwtSecret))

	NewAvailabilityHandler(availability, logger).Register(api, protected)
	NewBookingHandler(bookings, logger).Register(protected)
	NewServiceHandler(catalog, logger).Register(api, protected)

	return router
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
