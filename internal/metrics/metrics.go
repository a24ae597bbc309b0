package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	LifecycleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "lifecycle_transitions_total", Help: "Soft-delete and restore transitions"},
		[]string{"kind", "action"},
	)
	LifecyclePurged = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "lifecycle_purged_total", Help: "Records permanently removed after the retention window"},
		[]string{"kind"},
	)
)

func MustRegister() {
	prometheus.MustRegister(RequestsTotal, ReqDuration, LifecycleTransitions, LifecyclePurged)
}
