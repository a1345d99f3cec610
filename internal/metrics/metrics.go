package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	// Simulation metrics
	simulationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_simulation_runs_total",
			Help: "Total number of Monte Carlo runs by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: "baseline"/"what_if"; outcome: "ok"/"fallback"
	)

	simulationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_simulation_duration_seconds",
			Help:    "Monte Carlo run duration in seconds by kind",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"kind"},
	)

	simulationIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oracle_simulation_iterations",
			Help:    "Iterations actually run per simulation after clamping",
			Buckets: []float64{100, 500, 1000, 2500, 5000, 10000, 20000},
		},
	)

	// Cache metrics
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_cache_lookups_total",
			Help: "Forecast result cache lookups by result",
		},
		[]string{"result"}, // "hit" or "miss"
	)

	// Capacity metrics
	queueDelay = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_queue_delay_days",
			Help:    "Capacity queueing delay applied to bottleneck stages",
			Buckets: []float64{1, 2, 5, 10, 20, 30},
		},
		[]string{"stage"},
	)

	activeForecasts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oracle_active_forecasts",
			Help: "Number of forecasts currently being computed",
		},
	)
)

// Collector provides convenience methods for recording metrics.
// A nil *Collector records nothing.
type Collector struct{}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordSimulation records one Monte Carlo run.
func (c *Collector) RecordSimulation(kind string, iterations int, duration time.Duration, fallback bool) {
	if c == nil {
		return
	}
	outcome := "ok"
	if fallback {
		outcome = "fallback"
	}
	simulationRuns.WithLabelValues(kind, outcome).Inc()
	simulationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	simulationIterations.Observe(float64(iterations))
}

// RecordCacheLookup counts a cache hit or miss.
func (c *Collector) RecordCacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

// RecordQueueDelay records the delay applied at a bottleneck stage.
func (c *Collector) RecordQueueDelay(stage string, days float64) {
	if c == nil {
		return
	}
	queueDelay.WithLabelValues(stage).Observe(days)
}

// TrackForecast marks a forecast as in-flight and returns the function that ends it.
func (c *Collector) TrackForecast() func() {
	if c == nil {
		return func() {}
	}
	activeForecasts.Inc()
	return activeForecasts.Dec
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Metrics endpoint listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
