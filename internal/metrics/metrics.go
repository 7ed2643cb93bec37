package metrics

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"sentiment-lens/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Collaborator fetches
	FetchCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_lens_fetch_calls_total",
			Help: "Total number of collaborator fetches",
		},
		[]string{"collaborator", "status"}, // status: success|unavailable|schema_mismatch|invalid|error|cache_hit
	)

	FetchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentiment_lens_fetch_latency_seconds",
			Help:    "Collaborator fetch latency in seconds, retries included",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
		},
		[]string{"collaborator"},
	)

	// Analysis runs
	AnalysisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_lens_analysis_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"surface", "status"}, // surface: api|bot|tui|mcp|cli
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentiment_lens_analysis_duration_seconds",
			Help:    "End to end analysis duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"surface"},
	)

	EventsPerRun = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentiment_lens_events_per_run",
			Help:    "Matched text events per analysis run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	RecordsWithoutPrice = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sentiment_lens_records_without_price_total",
			Help: "Aligned records with no close at or before their timestamp",
		},
	)

	// Export
	Exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_lens_exports_total",
			Help: "Total number of exports",
		},
		[]string{"format", "status"},
	)
)

var once sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(FetchCalls)
		prometheus.MustRegister(FetchLatency)
		prometheus.MustRegister(AnalysisRuns)
		prometheus.MustRegister(AnalysisDuration)
		prometheus.MustRegister(EventsPerRun)
		prometheus.MustRegister(RecordsWithoutPrice)
		prometheus.MustRegister(Exports)
		_ = prometheus.Register(collectors.NewBuildInfoCollector())
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordFetch counts one collaborator fetch and its latency.
func RecordFetch(collaborator string, duration time.Duration, err error) {
	FetchCalls.WithLabelValues(collaborator, Status(err)).Inc()
	FetchLatency.WithLabelValues(collaborator).Observe(duration.Seconds())
}

func RecordCacheHit(collaborator string) {
	FetchCalls.WithLabelValues(collaborator, "cache_hit").Inc()
}

// RecordAnalysis counts one pipeline run.
func RecordAnalysis(surface string, duration time.Duration, events, withoutPrice int, err error) {
	AnalysisRuns.WithLabelValues(surface, Status(err)).Inc()
	AnalysisDuration.WithLabelValues(surface).Observe(duration.Seconds())
	if err != nil {
		return
	}
	EventsPerRun.Observe(float64(events))
	RecordsWithoutPrice.Add(float64(withoutPrice))
}

func RecordExport(format string, err error) {
	Exports.WithLabelValues(format, Status(err)).Inc()
}

// Status maps an error onto a low-cardinality label value.
func Status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, domain.ErrSourceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
