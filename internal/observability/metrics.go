package observability

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	"github.com/yungbote/travel-companion-backend/internal/utils"
)

const namespace = "travel_companion"

// Metrics holds the Prometheus collectors. All methods are safe on a nil receiver,
// so call sites never check whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	providerCalls     *prometheus.CounterVec
	providerFallbacks *prometheus.CounterVec

	alerts         *prometheus.CounterVec
	documentStages *prometheus.CounterVec
	lockWait       *prometheus.HistogramVec
	sweeperRuns    *prometheus.CounterVec
	rateLimited    *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled(log *logger.Logger) bool {
	return utils.GetEnvAsBool("METRICS_ENABLED", true, log)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide collectors once. It returns nil when
// METRICS_ENABLED is false.
func Init(log *logger.Logger) *Metrics {
	if !Enabled(log) {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		log.Info("prometheus metrics initialized", "namespace", namespace)
	})
	return instance
}

// New builds collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "http_inflight_requests",
			Help: "In-flight HTTP requests.",
		}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_requests_total",
			Help: "Language model requests by model, endpoint and status.",
		}, []string{"model", "endpoint", "status"}),
		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "llm_request_duration_seconds",
			Help:    "Language model latency by model and endpoint.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"model", "endpoint"}),
		llmTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_tokens_total",
			Help: "Language model tokens by model and direction.",
		}, []string{"model", "direction"}),
		providerCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "provider_calls_total",
			Help: "Provider adapter calls by provider and outcome (live, cached, mock).",
		}, []string{"provider", "outcome"}),
		providerFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "provider_fallbacks_total",
			Help: "Provider adapter fallbacks to mock data by provider and reason.",
		}, []string{"provider", "reason"}),
		alerts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "alerts_total",
			Help: "Alert generation outcomes by type (created, suppressed).",
		}, []string{"type", "outcome"}),
		documentStages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "document_stage_transitions_total",
			Help: "Document lifecycle stage transitions.",
		}, []string{"stage"}),
		lockWait: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "user_lock_wait_seconds",
			Help:    "Time spent acquiring the per-user lock by backend and outcome.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"backend", "outcome"}),
		sweeperRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sweeper_runs_total",
			Help: "Sweeper passes by status.",
		}, []string{"status"}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rate_limited_total",
			Help: "Requests rejected by the rate limiter by route.",
		}, []string{"route"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	m.apiRequests.WithLabelValues(method, route, code).Inc()
	m.apiLatency.WithLabelValues(method, route, code).Observe(dur.Seconds())
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = defaultLabel(model)
	endpoint = defaultLabel(endpoint)
	m.llmRequests.WithLabelValues(model, endpoint, defaultLabel(status)).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(model, endpoint).Observe(dur.Seconds())
	}
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

func (m *Metrics) IncProviderCall(provider, outcome string) {
	if m != nil {
		m.providerCalls.WithLabelValues(defaultLabel(provider), defaultLabel(outcome)).Inc()
	}
}

func (m *Metrics) IncProviderFallback(provider, reason string) {
	if m != nil {
		m.providerFallbacks.WithLabelValues(defaultLabel(provider), defaultLabel(reason)).Inc()
	}
}

func (m *Metrics) IncAlert(alertType, outcome string) {
	if m != nil {
		m.alerts.WithLabelValues(defaultLabel(alertType), defaultLabel(outcome)).Inc()
	}
}

func (m *Metrics) IncDocumentStage(stage string) {
	if m != nil {
		m.documentStages.WithLabelValues(defaultLabel(stage)).Inc()
	}
}

func (m *Metrics) ObserveLockWait(backend, outcome string, dur time.Duration) {
	if m != nil {
		m.lockWait.WithLabelValues(defaultLabel(backend), defaultLabel(outcome)).Observe(dur.Seconds())
	}
}

func (m *Metrics) IncSweeperRun(status string) {
	if m != nil {
		m.sweeperRuns.WithLabelValues(defaultLabel(status)).Inc()
	}
}

func (m *Metrics) IncRateLimited(route string) {
	if m != nil {
		m.rateLimited.WithLabelValues(defaultLabel(route)).Inc()
	}
}

func defaultLabel(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
