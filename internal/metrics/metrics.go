package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the instrumentation surface the gateway components use.
// A noop implementation backs it when metrics are disabled.
type Recorder interface {
	RecordAuthURLGenerated(provider string, success bool)
	RecordOAuthCallback(provider string, success bool)
	RecordTokenIssued(tokenType string, generationTime time.Duration)
	RecordTokenValidation(result string, duration time.Duration)
	RecordTokenRefresh(success bool)
	RecordTokenRevoked()
	RecordExternalAPICall(provider string, duration time.Duration)
	RecordHTTPRequest(method, path, status string, duration time.Duration)
}

// Ensure Metrics implements Recorder at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus collectors for the gateway.
type Metrics struct {
	AuthURLTotal       *prometheus.CounterVec
	OAuthCallbackTotal *prometheus.CounterVec

	TokensIssuedTotal       *prometheus.CounterVec
	TokenValidationTotal    *prometheus.CounterVec
	TokensRefreshedTotal    *prometheus.CounterVec
	TokensRevokedTotal      prometheus.Counter
	TokenGenerationDuration *prometheus.HistogramVec
	TokenValidationDuration prometheus.Histogram

	ExternalAPIDuration *prometheus.HistogramVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns the Prometheus recorder, or a noop recorder when disabled.
// sync.Once keeps collectors from being registered twice.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

func initMetrics() *Metrics {
	return &Metrics{
		AuthURLTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_auth_url_generated_total",
				Help: "Authorization URLs generated, by provider and outcome",
			},
			[]string{"provider", "success"},
		),
		OAuthCallbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_oauth_callback_total",
				Help: "OAuth callback completions, by provider and outcome",
			},
			[]string{"provider", "success"},
		),
		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_tokens_issued_total",
				Help: "Session tokens issued, by token type",
			},
			[]string{"type"},
		),
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_token_validation_total",
				Help: "Token validation attempts, by result",
			},
			[]string{"result"},
		),
		TokensRefreshedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_tokens_refreshed_total",
				Help: "Refresh-token exchanges, by outcome",
			},
			[]string{"success"},
		),
		TokensRevokedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_tokens_revoked_total",
				Help: "Refresh tokens revoked before expiry",
			},
		),
		TokenGenerationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_token_generation_duration_seconds",
				Help:    "Token generation latency, by token type",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		TokenValidationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gateway_token_validation_duration_seconds",
				Help:    "Token validation latency",
				Buckets: prometheus.DefBuckets,
			},
		),
		ExternalAPIDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_external_api_duration_seconds",
				Help:    "Identity provider call latency, by provider",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_http_requests_total",
				Help: "HTTP requests served, by method, path, and status",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_duration_seconds",
				Help:    "HTTP request latency, by method and path",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (m *Metrics) RecordAuthURLGenerated(provider string, success bool) {
	m.AuthURLTotal.WithLabelValues(provider, boolLabel(success)).Inc()
}

func (m *Metrics) RecordOAuthCallback(provider string, success bool) {
	m.OAuthCallbackTotal.WithLabelValues(provider, boolLabel(success)).Inc()
}

func (m *Metrics) RecordTokenIssued(tokenType string, generationTime time.Duration) {
	m.TokensIssuedTotal.WithLabelValues(tokenType).Inc()
	m.TokenGenerationDuration.WithLabelValues(tokenType).Observe(generationTime.Seconds())
}

func (m *Metrics) RecordTokenValidation(result string, duration time.Duration) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
	m.TokenValidationDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordTokenRefresh(success bool) {
	m.TokensRefreshedTotal.WithLabelValues(boolLabel(success)).Inc()
}

func (m *Metrics) RecordTokenRevoked() {
	m.TokensRevokedTotal.Inc()
}

func (m *Metrics) RecordExternalAPICall(provider string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
