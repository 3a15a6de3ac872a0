package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-itinerary/internal/app/domain/itinerary"
	"github.com/FACorreiaa/loci-itinerary/internal/pkg/cache"
	"github.com/FACorreiaa/loci-itinerary/internal/pkg/config"
)

// Pinger is the part of the pool the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Setup wires the itinerary stack onto r.
func Setup(r *gin.Engine, db itinerary.DB, pinger Pinger, cfg *config.Config, logger *zap.Logger) error {
	annotator, optimizer, err := scheduleFromConfig(cfg.Schedule)
	if err != nil {
		return err
	}

	sessions := cache.NewStore[itinerary.DragEntry](cfg.DragSessionTTL, "drag_sessions", logger)
	repo := itinerary.NewRepository(db, logger)
	service := itinerary.NewService(repo, sessions, annotator, optimizer, logger)
	handler := itinerary.NewHandler(service, logger)

	r.GET("/health", healthHandler(pinger))
	handler.RegisterRoutes(r.Group("/api"))

	logger.Info("Routes registered",
		zap.String("day_start", annotator.DayStart.String()),
		zap.Duration("slot_spacing", annotator.Spacing),
		zap.Bool("chained", annotator.Chained),
		zap.String("route_distance", cfg.Schedule.RouteDistance),
		zap.Duration("drag_session_ttl", cfg.DragSessionTTL))
	return nil
}

func scheduleFromConfig(sc config.ScheduleConfig) (itinerary.Annotator, itinerary.Optimizer, error) {
	start, err := itinerary.ParseClock(sc.DayStart)
	if err != nil {
		return itinerary.Annotator{}, itinerary.Optimizer{}, fmt.Errorf("invalid DAY_START %q: %w", sc.DayStart, err)
	}
	annotator := itinerary.Annotator{
		DayStart:        start,
		Spacing:         sc.SlotSpacing,
		DefaultDuration: sc.DefaultDuration,
		Chained:         sc.ChainedTimes,
	}
	return annotator, itinerary.Optimizer{Distance: itinerary.DistanceByName(sc.RouteDistance)}, nil
}

func healthHandler(pinger Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if pinger != nil {
			if err := pinger.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
