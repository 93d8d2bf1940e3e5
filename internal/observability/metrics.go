package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	scanOutcomesTotal   *prometheus.CounterVec
	reportCacheLookups  *prometheus.CounterVec
	liveClientsActive   prometheus.Gauge
	avatarUploadsTotal  *prometheus.CounterVec
	avatarUploadLatency prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vibecheck_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vibecheck_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vibecheck_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		scanOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vibecheck_scan_outcomes_total",
			Help: "Scans handled by the ledger, by outcome and attendance status.",
		}, []string{"outcome", "status"})

		reportCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vibecheck_report_cache_lookups_total",
			Help: "Report cache lookups by result.",
		}, []string{"result"})

		liveClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vibecheck_live_clients",
			Help: "Connected live scan feed clients.",
		})

		avatarUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vibecheck_avatar_uploads_total",
			Help: "Avatar uploads by result.",
		}, []string{"result"})

		avatarUploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vibecheck_avatar_upload_seconds",
			Help:    "Time spent validating and storing avatars.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			scanOutcomesTotal,
			reportCacheLookups,
			liveClientsActive,
			avatarUploadsTotal,
			avatarUploadLatency,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ScanOutcomes exposes the scan outcome counter.
func ScanOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return scanOutcomesTotal
}

// ReportCacheLookups exposes the report cache hit/miss counter.
func ReportCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return reportCacheLookups
}

// LiveClientsActive exposes the live feed client gauge.
func LiveClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return liveClientsActive
}

// AvatarUploads exposes the avatar upload counter.
func AvatarUploads() *prometheus.CounterVec {
	RegisterMetrics()
	return avatarUploadsTotal
}

// AvatarUploadLatency exposes the avatar upload latency histogram.
func AvatarUploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return avatarUploadLatency
}
