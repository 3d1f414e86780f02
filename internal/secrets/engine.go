package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"trustguard/internal/config"
	"trustguard/internal/observability"

	"go.uber.org/zap"
)

// Engine is the only component callers use to read, write and rotate
// secrets. It orchestrates the hardened and fallback stores under the
// policy table for the process environment. Safe for concurrent use;
// all configuration is immutable after construction.
type Engine struct {
	env      config.Environment
	hardened Store
	fallback Store
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// EngineOption customizes engine construction
type EngineOption func(*Engine)

// WithMetrics attaches a metrics recorder to the engine
func WithMetrics(m *observability.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithFallbackStore overrides the default env-var fallback store. Only
// honored outside Production; the engine refuses to carry a fallback
// store in Production no matter what is passed.
func WithFallbackStore(s Store) EngineOption {
	return func(e *Engine) {
		if !e.env.IsProduction() {
			e.fallback = s
		}
	}
}

// NewEngine constructs the secrets policy engine. Production without a
// hardened store is a hard construction error: the process must not come
// up pretending it can serve secrets safely. In every other environment
// an env-var fallback store is wired in automatically.
func NewEngine(env config.Environment, hardened Store, logger *observability.Logger, opts ...EngineOption) (*Engine, error) {
	if env.IsProduction() && hardened == nil {
		return nil, &EnvironmentPolicyViolation{
			Environment: env,
			Reason:      "production requires a hardened secret store",
		}
	}

	e := &Engine{
		env:      env,
		hardened: hardened,
		logger:   logger,
	}

	if !env.IsProduction() {
		e.fallback = NewLocalFallbackStore()
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Environment returns the environment the engine was constructed for
func (e *Engine) Environment() config.Environment {
	return e.env
}

// HasHardenedStore reports whether a hardened store is wired
func (e *Engine) HasHardenedStore() bool {
	return e.hardened != nil
}

// HasFallbackStore reports whether a fallback store is wired
func (e *Engine) HasFallbackStore() bool {
	return e.fallback != nil
}

// GetSecret resolves a secret value. The hardened store is queried first;
// in Production a hardened store transport error propagates instead of
// falling through, so an outage can never silently serve weaker values.
// Outside Production a miss may be served from the fallback store when
// the type's policy allows it, and every such read is logged at WARN.
func (e *Engine) GetSecret(ctx context.Context, t SecretType, path, key, tenantID string) (string, error) {
	policy, ok := PolicyFor(t)
	if !ok {
		return "", e.missingPolicy(t)
	}

	addr, err := NewAddress(t, path, key, tenantID)
	if err != nil {
		return "", err
	}

	if e.hardened != nil {
		value, err := e.hardened.Get(ctx, addr.StorePath(), addr.Key)
		switch {
		case err == nil:
			return value, nil
		case errors.Is(err, ErrNotFound):
			// fall through to the fallback store below
		case e.env.IsProduction():
			e.metrics.RecordSecretStoreError(e.hardened.Name(), "get")
			return "", err
		default:
			e.metrics.RecordSecretStoreError(e.hardened.Name(), "get")
			e.logger.Warn("hardened store error, consulting fallback",
				zap.String("address", addr.String()),
				zap.String("environment", e.env.String()),
				zap.Error(err))
		}
	}

	if e.fallback == nil || !policy.AllowsLocalFallbackInDev {
		return "", ErrNotFound
	}

	value, err := e.fallback.Get(ctx, addr.StorePath(), addr.Key)
	if err != nil {
		return "", err
	}

	// Operational visibility into weak paths: every served fallback value
	// is loud, not just the first one.
	e.logger.Warn("secret served from local fallback store",
		zap.String("address", addr.String()),
		zap.String("environment", e.env.String()))
	e.metrics.RecordSecretFallbackRead(t.String())

	return value, nil
}

// PutSecret validates and writes a secret value. Validation happens
// before any network call; an invalid value never produces a partial
// write. Writes go only to the hardened store. The bool result reports
// whether a write actually happened: without a hardened store this is a
// hard error in Production and a soft false elsewhere.
func (e *Engine) PutSecret(ctx context.Context, t SecretType, path, key, value, tenantID string) (bool, error) {
	policy, ok := PolicyFor(t)
	if !ok {
		return false, e.missingPolicy(t)
	}

	if err := validateValue(t, policy, value); err != nil {
		return false, err
	}

	addr, err := NewAddress(t, path, key, tenantID)
	if err != nil {
		return false, err
	}

	if e.hardened == nil {
		if e.env.IsProduction() {
			return false, &EnvironmentPolicyViolation{
				Environment: e.env,
				SecretType:  t,
				Reason:      "cannot write secret without a hardened store",
			}
		}

		e.logger.Warn("secret write skipped, no hardened store configured",
			zap.String("address", addr.String()),
			zap.String("environment", e.env.String()))
		return false, nil
	}

	if err := e.hardened.Put(ctx, addr.StorePath(), addr.Key, value); err != nil {
		e.metrics.RecordSecretStoreError(e.hardened.Name(), "put")
		return false, err
	}

	return true, nil
}

// RotateSecret generates a fresh policy-shaped value and overwrites the
// stored one. Rotation never reads the old value and never returns the
// new one; callers that need it fetch it through GetSecret.
func (e *Engine) RotateSecret(ctx context.Context, t SecretType, path, key, tenantID string) (bool, error) {
	policy, ok := PolicyFor(t)
	if !ok {
		return false, e.missingPolicy(t)
	}

	value, err := generateValue(t, policy)
	if err != nil {
		e.metrics.RecordSecretRotation(t.String(), "error")
		return false, fmt.Errorf("generating replacement value: %w", err)
	}

	written, err := e.PutSecret(ctx, t, path, key, value, tenantID)
	if err != nil {
		e.metrics.RecordSecretRotation(t.String(), "error")
		return false, err
	}

	status := "skipped"
	if written {
		status = "rotated"
	}
	e.metrics.RecordSecretRotation(t.String(), status)
	e.logger.Info("secret rotation finished",
		zap.String("secret_type", t.String()),
		zap.String("status", status))

	return written, nil
}

// ComplianceSnapshot captures the engine's current posture for the
// compliance auditor. Recomputed on every call, never cached.
type ComplianceSnapshot struct {
	Environment     config.Environment
	HardenedPresent bool
	HardenedHealthy bool
	FallbackPresent bool
	Compliant       bool
	Issues          []string
}

// ValidateEnvironmentCompliance health-checks the hardened store and
// reports whether the engine's configuration satisfies its environment.
// In Production both an unhealthy hardened store and the mere presence
// of a fallback store are violations; the latter would mean construction
// policy was bypassed.
func (e *Engine) ValidateEnvironmentCompliance(ctx context.Context) ComplianceSnapshot {
	snap := ComplianceSnapshot{
		Environment:     e.env,
		HardenedPresent: e.hardened != nil,
		FallbackPresent: e.fallback != nil,
	}

	if e.hardened != nil {
		if err := e.hardened.Health(ctx); err != nil {
			snap.Issues = append(snap.Issues, fmt.Sprintf("hardened store unhealthy: %v", err))
			e.metrics.RecordSecretStoreError(e.hardened.Name(), "health")
		} else {
			snap.HardenedHealthy = true
		}
	}

	if e.env.IsProduction() {
		if !snap.HardenedPresent {
			snap.Issues = append(snap.Issues, "production requires a hardened secret store")
		} else if !snap.HardenedHealthy {
			snap.Issues = append(snap.Issues, "production hardened store failed health check")
		}

		if snap.FallbackPresent {
			snap.Issues = append(snap.Issues, "fallback store present in production")
		}
	}

	snap.Compliant = len(snap.Issues) == 0
	return snap
}

// missingPolicy handles an absent policy table entry: a configuration
// defect that is fatal in Production and logged elsewhere.
func (e *Engine) missingPolicy(t SecretType) error {
	if e.env.IsProduction() {
		return &EnvironmentPolicyViolation{
			Environment: e.env,
			SecretType:  t,
			Reason:      "no policy configured for secret type",
		}
	}

	e.logger.Error("no policy configured for secret type", nil,
		zap.String("secret_type", t.String()),
		zap.String("environment", e.env.String()))
	return ErrNotFound
}

// validateValue checks a candidate value against its policy
func validateValue(t SecretType, policy Policy, value string) error {
	if uint32(len(value)) < policy.MinLength {
		return &ValueValidationError{
			SecretType: t,
			Reason:     fmt.Sprintf("value shorter than minimum length %d", policy.MinLength),
		}
	}

	if policy.ComplexityRequired && !hasRequiredComplexity(value) {
		return &ValueValidationError{
			SecretType: t,
			Reason:     "value must contain upper, lower, digit and symbol characters",
		}
	}

	return nil
}

// hasRequiredComplexity checks for all four character classes
func hasRequiredComplexity(value string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(symbolChars, r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	return hasUpper && hasLower && hasDigit && hasSymbol
}
