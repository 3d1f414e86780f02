package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus metrics for the trust boundary subsystem
type Metrics struct {
	tenantRejectionsTotal  *prometheus.CounterVec
	tenantValidationsTotal prometheus.Counter
	csrfFailuresTotal      *prometheus.CounterVec
	csrfTokensIssuedTotal  prometheus.Counter
	secretFallbackReads    *prometheus.CounterVec
	secretStoreErrors      *prometheus.CounterVec
	secretRotationsTotal   *prometheus.CounterVec
	complianceScore        *prometheus.GaugeVec
	errorTotal             *prometheus.CounterVec
}

// Config holds configuration for metrics
type Config struct {
	Enabled          bool
	MetricsNamespace string
}

// DefaultConfig returns a default configuration for metrics
func DefaultConfig() *Config {
	return &Config{
		Enabled:          true,
		MetricsNamespace: "trustguard",
	}
}

// New creates a new metrics instance
func New(cfg *Config) *Metrics {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if !cfg.Enabled {
		return nil
	}

	m := &Metrics{
		tenantRejectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.MetricsNamespace,
				Name:      "tenant_rejections_total",
				Help:      "Total number of rejected tenant contexts",
			},
			[]string{"reason"},
		),
		tenantValidationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.MetricsNamespace,
				Name:      "tenant_validations_total",
				Help:      "Total number of successfully validated tenant contexts",
			},
		),
		csrfFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.MetricsNamespace,
				Name:      "csrf_failures_total",
				Help:      "Total number of CSRF check failures",
			},
			[]string{"reason"},
		),
		csrfTokensIssuedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.MetricsNamespace,
				Name:      "csrf_tokens_issued_total",
				Help:      "Total number of CSRF tokens issued",
			},
		),
		secretFallbackReads: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.MetricsNamespace,
				Name:      "secret_fallback_reads_total",
				Help:      "Total number of secret reads served by the fallback store",
			},
			[]string{"secret_type"},
		),
		secretStoreErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.MetricsNamespace,
				Name:      "secret_store_errors_total",
				Help:      "Total number of backing store errors",
			},
			[]string{"store", "operation"},
		),
		secretRotationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.MetricsNamespace,
				Name:      "secret_rotations_total",
				Help:      "Total number of secret rotations",
			},
			[]string{"secret_type", "status"},
		),
		complianceScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.MetricsNamespace,
				Name:      "compliance_score",
				Help:      "Last computed security compliance score (0-100)",
			},
			[]string{"environment"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.MetricsNamespace,
				Name:      "errors_total",
				Help:      "Total number of errors",
			},
			[]string{"type"},
		),
	}

	return m
}

// RecordTenantRejection increments the tenant rejection counter
func (m *Metrics) RecordTenantRejection(reason string) {
	if m == nil {
		return
	}

	m.tenantRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordTenantValidation increments the tenant validation counter
func (m *Metrics) RecordTenantValidation() {
	if m == nil {
		return
	}

	m.tenantValidationsTotal.Inc()
}

// RecordCSRFFailure increments the CSRF failure counter
func (m *Metrics) RecordCSRFFailure(reason string) {
	if m == nil {
		return
	}

	m.csrfFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordCSRFTokenIssued increments the issued token counter
func (m *Metrics) RecordCSRFTokenIssued() {
	if m == nil {
		return
	}

	m.csrfTokensIssuedTotal.Inc()
}

// RecordSecretFallbackRead increments the fallback read counter
func (m *Metrics) RecordSecretFallbackRead(secretType string) {
	if m == nil {
		return
	}

	m.secretFallbackReads.WithLabelValues(secretType).Inc()
}

// RecordSecretStoreError increments the store error counter
func (m *Metrics) RecordSecretStoreError(store, operation string) {
	if m == nil {
		return
	}

	m.secretStoreErrors.WithLabelValues(store, operation).Inc()
}

// RecordSecretRotation increments the rotation counter
func (m *Metrics) RecordSecretRotation(secretType, status string) {
	if m == nil {
		return
	}

	m.secretRotationsTotal.WithLabelValues(secretType, status).Inc()
}

// SetComplianceScore records the last computed compliance score
func (m *Metrics) SetComplianceScore(environment string, score float64) {
	if m == nil {
		return
	}

	m.complianceScore.WithLabelValues(environment).Set(score)
}

// RecordError increments the error counter
func (m *Metrics) RecordError(errorType string) {
	if m == nil {
		return
	}

	m.errorTotal.WithLabelValues(errorType).Inc()
}

// Handler returns a handler for exposing metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}

	return promhttp.Handler()
}
