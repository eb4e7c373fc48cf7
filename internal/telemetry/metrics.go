package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsAdmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_jobs_admitted_total",
		Help: "Jobs accepted at admission.",
	})
	JobsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_jobs_rejected_total",
		Help: "Admissions rejected because the queue was full.",
	})
	JobsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_jobs_completed_total",
		Help: "Jobs that reached the done state.",
	})
	JobsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_jobs_failed_total",
		Help: "Jobs that reached the error state.",
	})
	JobsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "media_jobs_in_flight",
		Help: "Jobs currently being processed.",
	})
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "media_queue_depth",
		Help: "Jobs waiting in the admission queue.",
	})
	TransferredBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_transfer_bytes_total",
		Help: "Artifact bytes pushed to object storage.",
	})
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			JobsAdmitted,
			JobsRejected,
			JobsCompleted,
			JobsFailed,
			JobsInFlight,
			QueueDepth,
			TransferredBytes,
		)
	})
}

func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
