package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

// ScheduleConfig drives the time annotator and the route optimizer.
type ScheduleConfig struct {
	DayStart        string
	SlotSpacing     time.Duration
	DefaultDuration time.Duration
	ChainedTimes    bool
	RouteDistance   string
}

type Config struct {
	Repositories   RepositoriesConfig
	Schedule       ScheduleConfig
	ServerPort     string
	MetricsAddr    string
	PprofAddr      string
	OTLPEndpoint   string
	LogLevel       string
	JWTSecret      string
	DragSessionTTL time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
				DB:       getEnvOrDefault("POSTGRES_DB", "loci_itinerary"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: int32(getIntOrDefault("POSTGRES_MAX_CONNS", 30)),
				MinConns: int32(getIntOrDefault("POSTGRES_MIN_CONNS", 5)),
			},
		},
		Schedule: ScheduleConfig{
			DayStart:        getEnvOrDefault("DAY_START", "09:00"),
			SlotSpacing:     time.Duration(getIntOrDefault("SLOT_SPACING_MINUTES", 150)) * time.Minute,
			DefaultDuration: time.Duration(getIntOrDefault("DEFAULT_DURATION_MINUTES", 120)) * time.Minute,
			ChainedTimes:    getBoolOrDefault("CHAINED_TIMES", false),
			RouteDistance:   getEnvOrDefault("ROUTE_DISTANCE", "euclidean"),
		},
		ServerPort:     getEnvOrDefault("SERVER_PORT", "8091"),
		MetricsAddr:    getEnvOrDefault("METRICS_ADDR", ":9092"),
		PprofAddr:      getEnvOrDefault("PPROF_ADDR", ":6060"),
		OTLPEndpoint:   getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4318"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		JWTSecret:      os.Getenv("JWT_SECRET_KEY"),
		DragSessionTTL: getDurationOrDefault("DRAG_SESSION_TTL", 10*time.Minute),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.Schedule.SlotSpacing <= 0 || cfg.Schedule.DefaultDuration < 0 {
		return nil, fmt.Errorf("SLOT_SPACING_MINUTES must be positive and DEFAULT_DURATION_MINUTES non-negative")
	}
	switch cfg.Schedule.RouteDistance {
	case "euclidean", "haversine":
	default:
		return nil, fmt.Errorf("ROUTE_DISTANCE must be euclidean or haversine, got %q", cfg.Schedule.RouteDistance)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}
