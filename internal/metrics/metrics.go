package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Remote resource lifecycle
	AgentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foundry_agents_created_total",
			Help: "Agents created on the service",
		},
	)

	AgentsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foundry_agents_deleted_total",
			Help: "Agents deleted from the service",
		},
	)

	ThreadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foundry_threads_created_total",
			Help: "Conversation threads created",
		},
	)

	ThreadsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foundry_threads_deleted_total",
			Help: "Conversation threads deleted from the service",
		},
	)

	// Runs
	RunsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foundry_runs_finished_total",
			Help: "Agent runs by terminal status",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foundry_run_duration_seconds",
			Help:    "Wall time from run creation to terminal status",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
	)

	// Generated files
	FilesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foundry_files_downloaded_total",
			Help: "Generated files downloaded",
		},
	)

	BytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foundry_bytes_downloaded_total",
			Help: "Bytes of generated files downloaded",
		},
	)

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foundry_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foundry_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foundry_websocket_connections",
			Help: "Open WebSocket connections",
		},
	)
)
