package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "loci-itinerary"

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	HTTPRequestDuration    metric.Float64Histogram
	ItineraryOpsTotal      metric.Int64Counter
	DragPreviewsTotal      metric.Int64Counter
	DragSessionsTotal      metric.Int64Counter
	CacheOpsTotal          metric.Int64Counter
	DBQueryDurationSeconds metric.Float64Histogram
	DBQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Call it after the provider is installed; before that the instruments are
// no-ops.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter(meterName)
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.ItineraryOpsTotal, err = meter.Int64Counter(
			"itinerary_operations_total",
			metric.WithDescription("Itinerary edits applied, by operation"),
			metric.WithUnit("{operation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_operations_total: %v", err)
		}

		m.DragPreviewsTotal, err = meter.Int64Counter(
			"drag_previews_total",
			metric.WithDescription("Drag previews computed"),
			metric.WithUnit("{preview}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create drag_previews_total: %v", err)
		}

		m.DragSessionsTotal, err = meter.Int64Counter(
			"drag_sessions_total",
			metric.WithDescription("Drag sessions finished, by outcome"),
			metric.WithUnit("{session}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create drag_sessions_total: %v", err)
		}

		m.CacheOpsTotal, err = meter.Int64Counter(
			"cache_operations_total",
			metric.WithDescription("Cache lookups and writes, by cache and result"),
			metric.WithUnit("{operation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create cache_operations_total: %v", err)
		}

		m.DBQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DBQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global instruments, initializing them on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
