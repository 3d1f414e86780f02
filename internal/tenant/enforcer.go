package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trustguard/internal/observability"
	"trustguard/internal/registry"

	"go.uber.org/zap"
)

// RejectReason classifies why a request failed the tenant boundary.
// The reasons stay internal: callers surface a generic 403 while logs
// and metrics keep the specific reason.
type RejectReason string

const (
	// ReasonMissingContext means no signal carried a tenant id
	ReasonMissingContext RejectReason = "missing_tenant_context"

	// ReasonContextMismatch means two signals disagreed about the tenant
	ReasonContextMismatch RejectReason = "tenant_context_mismatch"

	// ReasonUnknownOrInactive means the tenant is absent or not serviceable
	ReasonUnknownOrInactive RejectReason = "unknown_or_inactive_tenant"
)

// RejectionError is returned when a request fails the boundary. It is a
// forbidden-class outcome in every case, including unknown tenants, so
// existence information never leaks to the caller.
type RejectionError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Enforcer reconciles tenant candidates from all request signals and
// validates the winner against the tenant registry. Safe for concurrent
// use; all configuration is immutable after construction.
type Enforcer struct {
	extractor   *Extractor
	registry    registry.Registry
	exemptPaths []string
	logger      *observability.Logger
	metrics     *observability.Metrics
}

// EnforcerConfig configures the boundary enforcer
type EnforcerConfig struct {
	Extractor ExtractorConfig

	// ExemptPaths are path prefixes that never require a tenant, such as
	// health checks and auth bootstrap endpoints
	ExemptPaths []string
}

// NewEnforcer creates a boundary enforcer
func NewEnforcer(cfg EnforcerConfig, reg registry.Registry, logger *observability.Logger, metrics *observability.Metrics) *Enforcer {
	return &Enforcer{
		extractor:   NewExtractor(cfg.Extractor),
		registry:    reg,
		exemptPaths: cfg.ExemptPaths,
		logger:      logger,
		metrics:     metrics,
	}
}

// Exempt reports whether the path never requires a tenant context
func (e *Enforcer) Exempt(path string) bool {
	for _, prefix := range e.exemptPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Enforce establishes the tenant context for a request. A nil Context
// with a nil error means the path is exempt. Any disagreement between
// signals is fatal; reconciliation never merges or prefers a majority.
func (e *Enforcer) Enforce(ctx context.Context, req *Request) (*Context, error) {
	if e.Exempt(req.Path) {
		return nil, nil
	}

	candidates := e.extractor.extract(req)
	if len(candidates) == 0 {
		return nil, e.reject(ReasonMissingContext, "no tenant signal on request")
	}

	// candidates arrive in priority order; the first is primary
	primary := candidates[0]
	for _, other := range candidates[1:] {
		if other.tenantID != primary.tenantID {
			return nil, e.reject(ReasonContextMismatch,
				fmt.Sprintf("%s disagrees with %s", other.source, primary.source))
		}
	}

	resolved, err := e.registry.GetTenant(ctx, primary.tenantID)
	if err != nil {
		if errors.Is(err, registry.ErrTenantNotFound) {
			return nil, e.reject(ReasonUnknownOrInactive, "tenant not registered")
		}
		// registry outage is an infrastructure failure, not a policy one
		return nil, fmt.Errorf("tenant registry lookup: %w", err)
	}

	if !resolved.CanServe() {
		return nil, e.reject(ReasonUnknownOrInactive,
			fmt.Sprintf("tenant status %s", resolved.Status))
	}

	// If the gateway asserted a tenant, it must match the resolved one
	// even when another source won reconciliation.
	gatewayConfirmed := false
	for _, c := range candidates {
		if c.source != SourceGatewayHeader {
			continue
		}

		if c.tenantID != resolved.ID.String() && c.tenantID != resolved.Slug {
			return nil, e.reject(ReasonContextMismatch, "gateway header does not match resolved tenant")
		}
		gatewayConfirmed = true
	}

	e.metrics.RecordTenantValidation()

	return &Context{
		TenantID:         resolved.ID.String(),
		Slug:             resolved.Slug,
		Source:           primary.source,
		Validated:        true,
		GatewayConfirmed: gatewayConfirmed,
	}, nil
}

// reject logs and counts a boundary rejection before returning it
func (e *Enforcer) reject(reason RejectReason, detail string) error {
	e.logger.Warn("tenant boundary rejection",
		zap.String("reason", string(reason)),
		zap.String("detail", detail))
	e.metrics.RecordTenantRejection(string(reason))

	return &RejectionError{Reason: reason, Detail: detail}
}
