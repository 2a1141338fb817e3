package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	questionsTotal       *prometheus.CounterVec
	questionDuration     *prometheus.HistogramVec
	questionCostTotal    *prometheus.CounterVec
	subquestionsPerPlan  *prometheus.HistogramVec
	planFailuresTotal    *prometheus.CounterVec
	degradedPartialTotal *prometheus.CounterVec
	matchRequestsTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobsqa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobsqa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jobsqa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	questionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobsqa",
			Subsystem: "pipeline",
			Name:      "questions_total",
			Help:      "Total answered questions by final state.",
		},
		[]string{"service", "state"},
	)
	questionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobsqa",
			Subsystem: "pipeline",
			Name:      "question_duration_seconds",
			Help:      "End-to-end question answering duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	questionCostTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobsqa",
			Subsystem: "pipeline",
			Name:      "question_cost_dollars_total",
			Help:      "Accumulated language model spend across questions.",
		},
		[]string{"service"},
	)
	subquestionsPerPlan := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobsqa",
			Subsystem: "pipeline",
			Name:      "subquestions_per_plan",
			Help:      "Distribution of sub-questions per accepted plan.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
		[]string{"service"},
	)
	planFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobsqa",
			Subsystem: "pipeline",
			Name:      "plan_failures_total",
			Help:      "Total questions rejected at the planning stage.",
		},
		[]string{"service"},
	)
	degradedPartialTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobsqa",
			Subsystem: "pipeline",
			Name:      "degraded_partials_total",
			Help:      "Total sub-question answers degraded by backend failures.",
		},
		[]string{"service"},
	)
	matchRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobsqa",
			Subsystem: "matching",
			Name:      "requests_total",
			Help:      "Total job match requests by profile source.",
		},
		[]string{"service", "source"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		questionsTotal,
		questionDuration,
		questionCostTotal,
		subquestionsPerPlan,
		planFailuresTotal,
		degradedPartialTotal,
		matchRequestsTotal,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		questionsTotal:       questionsTotal,
		questionDuration:     questionDuration,
		questionCostTotal:    questionCostTotal,
		subquestionsPerPlan:  subquestionsPerPlan,
		planFailuresTotal:    planFailuresTotal,
		degradedPartialTotal: degradedPartialTotal,
		matchRequestsTotal:   matchRequestsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/jobs/") && path != "/v1/jobs/match":
		return "/v1/jobs/{doc_name}"
	default:
		return path
	}
}

// RecordQuestion is called once per answered question with its final state.
func (m *HTTPServerMetrics) RecordQuestion(service, state string, subquestions, degraded int, cost float64, duration time.Duration) {
	if state == "" {
		state = "unknown"
	}
	m.questionsTotal.WithLabelValues(service, state).Inc()
	m.questionDuration.WithLabelValues(service).Observe(duration.Seconds())
	if cost > 0 {
		m.questionCostTotal.WithLabelValues(service).Add(cost)
	}
	if subquestions > 0 {
		m.subquestionsPerPlan.WithLabelValues(service).Observe(float64(subquestions))
	}
	if degraded > 0 {
		m.degradedPartialTotal.WithLabelValues(service).Add(float64(degraded))
	}
}

func (m *HTTPServerMetrics) RecordPlanFailure(service string) {
	m.planFailuresTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordMatchRequest(service, source string) {
	if source == "" {
		source = "unknown"
	}
	m.matchRequestsTotal.WithLabelValues(service, source).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
