package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-itinerary/internal/app/middleware"
	"github.com/FACorreiaa/loci-itinerary/internal/pkg/config"
	"github.com/FACorreiaa/loci-itinerary/internal/routes"
)

const serviceName = "loci-itinerary"

// SetupRouter configures and returns the Gin router with all middleware and routes
func SetupRouter(dbPool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.OTELGinMiddleware(serviceName))
	r.Use(middleware.RequestLogger(logger, "/health"))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.SecurityMiddleware())
	r.Use(middleware.JWTAuthMiddleware(middleware.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Logger:    logger,
		Optional:  true,
	}))

	if err := routes.Setup(r, dbPool, dbPool, cfg, logger); err != nil {
		return nil, err
	}

	return r, nil
}
