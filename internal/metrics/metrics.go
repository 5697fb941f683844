package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 30},
		},
		[]string{"method", "path"},
	)

	// Generation metrics
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_generations_total",
			Help: "Total generations by modality, provider, and outcome",
		},
		[]string{"modality", "provider", "status"},
	)

	GenerationConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_generation_conflicts_total",
			Help: "Generation requests rejected because one was already in progress",
		},
	)

	StreamResumes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_stream_resumes_total",
			Help: "Resume requests by outcome",
		},
		[]string{"status"}, // "resumed" or "empty"
	)

	// History metrics
	ChatsDerived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_chats_derived_total",
			Help: "Chats created by branching or retrying",
		},
		[]string{"kind"}, // "branch" or "retry"
	)
)

// GenerationFinished records one completed generation attempt.
func GenerationFinished(modality, provider string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	GenerationsTotal.WithLabelValues(modality, provider, status).Inc()
}
