package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	refreshInFlight prometheus.Gauge
	jobsIndexed     *prometheus.GaugeVec
	chunksIndexed   *prometheus.GaugeVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	refreshTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobsqa",
			Subsystem: "worker",
			Name:      "corpus_refresh_total",
			Help:      "Total corpus refresh runs by status.",
		},
		[]string{"service", "status"},
	)
	refreshDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobsqa",
			Subsystem: "worker",
			Name:      "corpus_refresh_duration_seconds",
			Help:      "Corpus refresh duration in seconds by status.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "status"},
	)
	refreshInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jobsqa",
			Subsystem: "worker",
			Name:      "corpus_refresh_in_flight",
			Help:      "Number of in-flight corpus refresh runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	jobsIndexed := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "jobsqa",
			Subsystem: "worker",
			Name:      "jobs_indexed",
			Help:      "Postings indexed by the last successful refresh.",
		},
		[]string{"service"},
	)
	chunksIndexed := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "jobsqa",
			Subsystem: "worker",
			Name:      "chunks_indexed",
			Help:      "Chunks indexed by the last successful refresh.",
		},
		[]string{"service"},
	)

	registry.MustRegister(refreshTotal, refreshDuration, refreshInFlight, jobsIndexed, chunksIndexed)

	return &WorkerMetrics{
		registry:        registry,
		refreshTotal:    refreshTotal,
		refreshDuration: refreshDuration,
		refreshInFlight: refreshInFlight,
		jobsIndexed:     jobsIndexed,
		chunksIndexed:   chunksIndexed,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRefresh() {
	m.refreshInFlight.Inc()
}

func (m *WorkerMetrics) FinishRefresh(service string, duration time.Duration, jobs, chunks int, err error) {
	m.refreshInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.refreshTotal.WithLabelValues(service, status).Inc()
	m.refreshDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if err == nil {
		m.jobsIndexed.WithLabelValues(service).Set(float64(jobs))
		m.chunksIndexed.WithLabelValues(service).Set(float64(chunks))
	}
}
