package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	gradebookPushesTotal  *prometheus.CounterVec
	gradebookPushDuration prometheus.Histogram
	notificationsTotal    *prometheus.CounterVec
	submissionEventsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignflow_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assignflow_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignflow_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradebookPushesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignflow_gradebook_pushes_total",
			Help: "Gradebook upsert attempts by outcome.",
		}, []string{"status"})

		gradebookPushDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assignflow_gradebook_push_seconds",
			Help:    "Latency distribution for gradebook upserts.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignflow_notifications_total",
			Help: "Composed notifications by message type and delivery outcome.",
		}, []string{"message_type", "status"})

		submissionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignflow_submission_events_total",
			Help: "Submission lifecycle transitions by event.",
		}, []string{"event"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			gradebookPushesTotal,
			gradebookPushDuration,
			notificationsTotal,
			submissionEventsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GradebookPushes exposes the gradebook upsert outcome counter.
func GradebookPushes() *prometheus.CounterVec {
	RegisterMetrics()
	return gradebookPushesTotal
}

// GradebookPushDuration exposes the gradebook upsert latency histogram.
func GradebookPushDuration() prometheus.Histogram {
	RegisterMetrics()
	return gradebookPushDuration
}

// Notifications exposes the notification dispatch counter.
func Notifications() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// SubmissionEvents exposes the submission lifecycle counter.
func SubmissionEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionEventsTotal
}
