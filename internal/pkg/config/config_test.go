package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("requires a postgres password", func(t *testing.T) {
		t.Setenv("POSTGRES_PASSWORD", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("POSTGRES_PASSWORD", "secret")
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "09:00", cfg.Schedule.DayStart)
		assert.Equal(t, 150*time.Minute, cfg.Schedule.SlotSpacing)
		assert.Equal(t, 2*time.Hour, cfg.Schedule.DefaultDuration)
		assert.False(t, cfg.Schedule.ChainedTimes)
		assert.Equal(t, "euclidean", cfg.Schedule.RouteDistance)
		assert.Equal(t, 10*time.Minute, cfg.DragSessionTTL)
		assert.Equal(t, "8091", cfg.ServerPort)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("POSTGRES_PASSWORD", "secret")
		t.Setenv("SLOT_SPACING_MINUTES", "90")
		t.Setenv("CHAINED_TIMES", "true")
		t.Setenv("ROUTE_DISTANCE", "haversine")
		t.Setenv("DRAG_SESSION_TTL", "2m")
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 90*time.Minute, cfg.Schedule.SlotSpacing)
		assert.True(t, cfg.Schedule.ChainedTimes)
		assert.Equal(t, "haversine", cfg.Schedule.RouteDistance)
		assert.Equal(t, 2*time.Minute, cfg.DragSessionTTL)
	})

	t.Run("rejects unknown distance metric", func(t *testing.T) {
		t.Setenv("POSTGRES_PASSWORD", "secret")
		t.Setenv("ROUTE_DISTANCE", "manhattan")
		_, err := Load()
		assert.ErrorContains(t, err, "ROUTE_DISTANCE")
	})
}
