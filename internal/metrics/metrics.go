package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinema",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	PlaybackSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinema",
		Name:      "playback_sessions_active",
		Help:      "Number of currently live playback sessions.",
	})

	PlaybackSessionStartsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "playback_session_starts_total",
		Help:      "Total playback sessions started, by selected backend.",
	}, []string{"backend"})

	PlaybackStateTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "playback_state_transitions_total",
		Help:      "Playback session state machine transitions.",
	}, []string{"from", "to"})

	PlaybackErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "playback_errors_total",
		Help:      "Playback failures by error kind.",
	}, []string{"kind"})

	ProgressWritesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "progress_writes_total",
		Help:      "Total watch-progress entries persisted.",
	})

	ProgressWriteFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "progress_write_failures_total",
		Help:      "Total watch-progress persistence failures (logged, not surfaced).",
	})

	TranscodeJobsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinema",
		Name:      "transcode_jobs_active",
		Help:      "Number of currently running transcode jobs.",
	})

	TranscodeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cinema",
		Name:      "transcode_duration_seconds",
		Help:      "Duration of completed transcode jobs in seconds.",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	BackendRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "backend_requests_total",
		Help:      "REST backend calls by operation and outcome.",
	}, []string{"operation", "outcome"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PlaybackSessionsActive,
		PlaybackSessionStartsTotal,
		PlaybackStateTransitionsTotal,
		PlaybackErrorsTotal,
		ProgressWritesTotal,
		ProgressWriteFailuresTotal,
		TranscodeJobsActive,
		TranscodeDuration,
		BackendRequestsTotal,
	)
}
