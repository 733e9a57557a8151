package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Results
	ResultSuccess = "success"
	ResultFailure = "failure"

	// Remote operations
	OpWrite     = "write"
	OpDelete    = "delete"
	OpQuery     = "query"
	OpSubscribe = "subscribe"

	// HTTP endpoints
	EndpointAuth     = "auth"
	EndpointSession  = "session"
	EndpointProfiles = "profiles"
	EndpointWorkouts = "workouts"
	EndpointTemplate = "templates"
	EndpointStats    = "stats"
	EndpointBackup   = "backup"
	EndpointSync     = "sync"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)
)

// Storage Metrics
var (
	RemoteOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_operations_total",
			Help: "Total number of remote document store operations",
		},
		[]string{"operation", "collection", "result"},
	)

	LocalWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "local_writes_total",
			Help: "Total number of local snapshot writes",
		},
		[]string{"result"},
	)
)

// Sync Metrics
var (
	ActiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_active_subscriptions",
			Help: "Number of live remote subscriptions",
		},
	)

	SubscriptionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_subscription_errors_total",
			Help: "Total number of failed remote subscriptions",
		},
		[]string{"collection"},
	)

	SignedIn = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "session_signed_in",
			Help: "1 while a cloud session is active",
		},
	)
)
