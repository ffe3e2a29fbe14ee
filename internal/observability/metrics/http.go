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

	askRequestsTotal      *prometheus.CounterVec
	askStrategyTotal      *prometheus.CounterVec
	askRetrievalHitTotal  *prometheus.CounterVec
	askNoContextTotal     *prometheus.CounterVec
	askRetrievedChunks    *prometheus.HistogramVec
	askRetrievedTokens    *prometheus.HistogramVec
	askDuration           *prometheus.HistogramVec
	compressionTotal      *prometheus.CounterVec
	llmTokensTotal        *prometheus.CounterVec
	evalQuestionsTotal    *prometheus.CounterVec
	evalCorrectRate       *prometheus.HistogramVec
	sweepCombinationTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "akasha",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "akasha",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "akasha",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	askRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "akasha",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total successful ask requests.",
		},
		[]string{"service", "endpoint"},
	)
	askStrategyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "akasha",
			Subsystem: "ask",
			Name:      "strategy_requests_total",
			Help:      "Total successful ask requests by retrieval strategy.",
		},
		[]string{"service", "endpoint", "strategy"},
	)
	askRetrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "akasha",
			Subsystem: "ask",
			Name:      "retrieval_hit_total",
			Help:      "Total ask requests with at least one retrieved source.",
		},
		[]string{"service", "endpoint"},
	)
	askNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "akasha",
			Subsystem: "ask",
			Name:      "no_context_total",
			Help:      "Total ask requests without retrieved sources.",
		},
		[]string{"service", "endpoint"},
	)
	askRetrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "akasha",
			Subsystem: "ask",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per successful ask request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	askRetrievedTokens := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "akasha",
			Subsystem: "ask",
			Name:      "retrieved_tokens",
			Help:      "Distribution of retrieved context tokens per successful ask request.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2000, 3000, 5000, 8000},
		},
		[]string{"service", "endpoint"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "akasha",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Ask pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	compressionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "akasha",
			Subsystem: "ask",
			Name:      "compression_total",
			Help:      "Total chunk compression attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	llmTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "akasha",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Approximate token usage by direction.",
		},
		[]string{"service", "endpoint", "direction", "model"},
	)
	evalQuestionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "akasha",
			Subsystem: "eval",
			Name:      "questions_total",
			Help:      "Total evaluated questions by outcome.",
		},
		[]string{"service", "outcome"},
	)
	evalCorrectRate := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "akasha",
			Subsystem: "eval",
			Name:      "correct_rate",
			Help:      "Distribution of per-run correct rates.",
			Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service"},
	)
	sweepCombinationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "akasha",
			Subsystem: "sweep",
			Name:      "combinations_total",
			Help:      "Total evaluated sweep combinations by outcome.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		askRequestsTotal,
		askStrategyTotal,
		askRetrievalHitTotal,
		askNoContextTotal,
		askRetrievedChunks,
		askRetrievedTokens,
		askDuration,
		compressionTotal,
		llmTokensTotal,
		evalQuestionsTotal,
		evalCorrectRate,
		sweepCombinationTotal,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		askRequestsTotal:      askRequestsTotal,
		askStrategyTotal:      askStrategyTotal,
		askRetrievalHitTotal:  askRetrievalHitTotal,
		askNoContextTotal:     askNoContextTotal,
		askRetrievedChunks:    askRetrievedChunks,
		askRetrievedTokens:    askRetrievedTokens,
		askDuration:           askDuration,
		compressionTotal:      compressionTotal,
		llmTokensTotal:        llmTokensTotal,
		evalQuestionsTotal:    evalQuestionsTotal,
		evalCorrectRate:       evalCorrectRate,
		sweepCombinationTotal: sweepCombinationTotal,
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
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordAskObservation(service, endpoint string, sourceCount, tokens int, duration time.Duration) {
	m.askRequestsTotal.WithLabelValues(service, endpoint).Inc()
	m.askRetrievedChunks.WithLabelValues(service, endpoint).Observe(float64(sourceCount))
	m.askRetrievedTokens.WithLabelValues(service, endpoint).Observe(float64(tokens))
	m.askDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())

	if sourceCount > 0 {
		m.askRetrievalHitTotal.WithLabelValues(service, endpoint).Inc()
		return
	}
	m.askNoContextTotal.WithLabelValues(service, endpoint).Inc()
}

func (m *HTTPServerMetrics) RecordStrategyRequest(service, endpoint, strategy string) {
	if strategy == "" {
		strategy = "unknown"
	}
	m.askStrategyTotal.WithLabelValues(service, endpoint, strategy).Inc()
}

func (m *HTTPServerMetrics) RecordCompression(service string, ok bool) {
	outcome := "summarized"
	if !ok {
		outcome = "passthrough"
	}
	m.compressionTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordTokenUsage(service, endpoint, model string, promptTokens, completionTokens int) {
	if model == "" {
		model = "unknown"
	}
	if promptTokens > 0 {
		m.llmTokensTotal.WithLabelValues(service, endpoint, "in", model).Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokensTotal.WithLabelValues(service, endpoint, "out", model).Add(float64(completionTokens))
	}
}

func (m *HTTPServerMetrics) RecordEvalQuestion(service string, correct bool, failed bool) {
	outcome := "incorrect"
	switch {
	case failed:
		outcome = "error"
	case correct:
		outcome = "correct"
	}
	m.evalQuestionsTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordEvalRun(service string, correctRate float64) {
	m.evalCorrectRate.WithLabelValues(service).Observe(correctRate)
}

func (m *HTTPServerMetrics) RecordSweepCombination(service string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.sweepCombinationTotal.WithLabelValues(service, outcome).Inc()
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
