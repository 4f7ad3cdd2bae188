package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsgtalent_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vsgtalent_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vsgtalent_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsgtalent_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vsgtalent_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vsgtalent_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vsgtalent_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Media pipeline metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsgtalent_uploads_total",
			Help: "Total number of media uploads",
		},
		[]string{"status"},
	)

	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsgtalent_conversions_total",
			Help: "Total number of image format conversion attempts",
		},
		[]string{"format", "status"},
	)

	ConversionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vsgtalent_conversion_duration_seconds",
			Help:    "End-to-end image conversion duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ConversionsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vsgtalent_conversions_skipped_total",
			Help: "Total number of images skipped due to a filename skip marker",
		},
	)

	RenamesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vsgtalent_attachment_renames_total",
			Help: "Total number of attachment file renames",
		},
	)

	SideloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsgtalent_sideloads_total",
			Help: "Total number of remote image sideloads",
		},
		[]string{"status"},
	)
)

// Gallery repair metrics
var (
	RepairRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vsgtalent_gallery_repair_runs_total",
			Help: "Total number of gallery repair runs",
		},
	)

	RepairItemsUpdatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vsgtalent_gallery_repair_items_updated_total",
			Help: "Total number of content items updated by gallery repair",
		},
	)

	RepairLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vsgtalent_gallery_repair_last_run_timestamp",
			Help: "Unix timestamp of the last gallery repair run",
		},
	)

	RepairLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vsgtalent_gallery_repair_last_run_duration_seconds",
			Help: "Duration of the last gallery repair run in seconds",
		},
	)
)

// Content library metrics
var (
	ContentItemsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vsgtalent_content_items_total",
			Help: "Total number of content items by type",
		},
		[]string{"type"},
	)

	AttachmentsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vsgtalent_attachments_total",
			Help: "Total number of attachments by media type",
		},
		[]string{"type"},
	)

	TermsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vsgtalent_terms_total",
			Help: "Total number of taxonomy terms",
		},
		[]string{"taxonomy"},
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsgtalent_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vsgtalent_active_sessions",
			Help: "Number of active user sessions",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vsgtalent_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
