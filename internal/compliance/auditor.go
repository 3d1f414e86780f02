package compliance

import (
	"context"

	"trustguard/internal/config"
	"trustguard/internal/csrf"
	"trustguard/internal/observability"
	"trustguard/internal/secrets"

	"go.uber.org/zap"
)

// Posture carries the middleware and deployment state the auditor cannot
// read off the engines directly. The surrounding application fills it in
// at wiring time.
type Posture struct {
	SecurityHeadersEnabled bool
	RateLimitEnabled       bool
	TLSEnforced            bool
	DebugMode              bool
}

// Auditor evaluates the environment's required posture against observed
// engine configuration. It runs out of band, at startup or on demand,
// and has no side effects beyond reading engine state.
type Auditor struct {
	env           config.Environment
	secretsEngine *secrets.Engine
	csrfEngine    *csrf.Engine
	posture       Posture
	weights       Weights
	logger        *observability.Logger
	metrics       *observability.Metrics
}

// NewAuditor creates a compliance auditor
func NewAuditor(env config.Environment, secretsEngine *secrets.Engine, csrfEngine *csrf.Engine, posture Posture, weights Weights, logger *observability.Logger, metrics *observability.Metrics) *Auditor {
	if weights == nil {
		weights = DefaultWeights()
	}

	return &Auditor{
		env:           env,
		secretsEngine: secretsEngine,
		csrfEngine:    csrfEngine,
		posture:       posture,
		weights:       weights,
		logger:        logger,
		metrics:       metrics,
	}
}

// Audit computes a fresh compliance report. Nothing is cached; every
// call reports current truth, including a live health check of the
// hardened secret store.
func (a *Auditor) Audit(ctx context.Context) Report {
	required := RequirementsFor(a.env)

	var violations []Violation
	violations = append(violations, a.auditSecrets(ctx, required)...)
	violations = append(violations, a.auditCSRF(required)...)
	violations = append(violations, a.auditAuxiliary(required)...)

	report := newReport(a.env, violations, a.weights)

	a.metrics.SetComplianceScore(a.env.String(), report.SecurityScore)
	a.logger.Info("compliance audit finished",
		zap.String("environment", a.env.String()),
		zap.Float64("score", report.SecurityScore),
		zap.Bool("compliant", report.Compliant),
		zap.Int("violations", len(report.Violations)))

	return report
}

// auditSecrets evaluates the secrets engine posture
func (a *Auditor) auditSecrets(ctx context.Context, required Requirements) []Violation {
	var violations []Violation

	if a.secretsEngine == nil {
		if required.HardenedStoreRequired {
			violations = append(violations, Violation{
				Severity:    SeverityCritical,
				Category:    "secrets",
				Message:     "no secrets engine configured",
				Remediation: "construct the secrets engine with a hardened store at startup",
			})
		}
		return violations
	}

	snap := a.secretsEngine.ValidateEnvironmentCompliance(ctx)

	if required.HardenedStoreRequired {
		switch {
		case !snap.HardenedPresent:
			violations = append(violations, Violation{
				Severity:    SeverityCritical,
				Category:    "secrets",
				Message:     "hardened secret store is required but not configured",
				Remediation: "configure VAULT_ADDR and VAULT_TOKEN",
			})
		case !snap.HardenedHealthy:
			violations = append(violations, Violation{
				Severity:    SeverityCritical,
				Category:    "secrets",
				Message:     "hardened secret store failed its health check",
				Remediation: "restore the backing secret service before serving traffic",
			})
		}
	}

	if required.ForbidFallbackStore && snap.FallbackPresent {
		// construction policy forbids this combination; seeing it means
		// the policy was bypassed somewhere
		violations = append(violations, Violation{
			Severity:    SeverityCritical,
			Category:    "secrets",
			Message:     "env-var fallback store present in an environment that forbids it",
			Remediation: "rebuild the secrets engine without a fallback store",
		})
	}

	return violations
}

// auditCSRF evaluates the CSRF engine posture
func (a *Auditor) auditCSRF(required Requirements) []Violation {
	var violations []Violation

	if !required.CSRFRequired {
		return violations
	}

	if a.csrfEngine == nil {
		violations = append(violations, Violation{
			Severity:    a.csrfGapSeverity(),
			Category:    "csrf",
			Message:     "no CSRF engine configured",
			Remediation: "construct the CSRF engine and register its middleware",
		})
		return violations
	}

	policy := a.csrfEngine.Policy()

	if policy.Mode == csrf.ModeDisabled {
		violations = append(violations, Violation{
			Severity:    a.csrfGapSeverity(),
			Category:    "csrf",
			Message:     "CSRF protection is disabled",
			Remediation: "set the CSRF mode to hybrid, api_only or ssr_only",
		})
		return violations
	}

	if a.env.IsProduction() && !policy.Cookie.Secure {
		violations = append(violations, Violation{
			Severity:    SeverityMedium,
			Category:    "csrf",
			Message:     "csrf_token cookie is not marked Secure",
			Remediation: "enable the Secure cookie attribute in production",
		})
	}

	if a.env.IsProduction() && !policy.RequireRefererCheck {
		violations = append(violations, Violation{
			Severity:    SeverityLow,
			Category:    "csrf",
			Message:     "referer checking is not enabled",
			Remediation: "enable RequireRefererCheck for defense in depth",
		})
	}

	return violations
}

// csrfGapSeverity grades a missing or disabled CSRF engine by tier
func (a *Auditor) csrfGapSeverity() Severity {
	switch a.env {
	case config.EnvProduction:
		return SeverityCritical
	case config.EnvStaging:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// auditAuxiliary evaluates headers, rate limiting, TLS and debug mode
func (a *Auditor) auditAuxiliary(required Requirements) []Violation {
	var violations []Violation

	if required.SecurityHeadersRequired && !a.posture.SecurityHeadersEnabled {
		violations = append(violations, Violation{
			Severity:    SeverityHigh,
			Category:    "headers",
			Message:     "security headers middleware is not registered",
			Remediation: "register the SecurityHeaders middleware on the router",
		})
	}

	if required.RateLimitRequired && !a.posture.RateLimitEnabled {
		violations = append(violations, Violation{
			Severity:    SeverityMedium,
			Category:    "rate_limit",
			Message:     "rate limiting is not active",
			Remediation: "enable the rate limiting middleware",
		})
	}

	if required.TLSRequired && !a.posture.TLSEnforced {
		violations = append(violations, Violation{
			Severity:    SeverityHigh,
			Category:    "tls",
			Message:     "TLS is not enforced",
			Remediation: "terminate TLS in front of the service and redirect plain HTTP",
		})
	}

	if required.ForbidDebugMode && a.posture.DebugMode {
		violations = append(violations, Violation{
			Severity:    SeverityHigh,
			Category:    "debug",
			Message:     "debug mode is enabled",
			Remediation: "unset DEBUG in this environment",
		})
	}

	return violations
}
