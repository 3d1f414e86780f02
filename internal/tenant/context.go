// Package tenant enforces the tenant boundary: every request is
// attributed to exactly one tenant, agreed upon by all identity signals
// present on the request. No single upstream hop is trusted on its own.
package tenant

import "fmt"

// Source identifies where a tenant candidate was extracted from.
// Declaration order is priority order. The gateway header outranks
// everything because the gateway is the closest thing to a trusted hop,
// but even it is cross-checked against every other signal present.
type Source int

const (
	// SourceGatewayHeader is the header injected by the trusted API gateway
	SourceGatewayHeader Source = iota

	// SourceContainerContext is the header injected by the container platform
	SourceContainerContext

	// SourceAuthToken is a tenant claim inside a verified auth token
	SourceAuthToken

	// SourceSubdomain is the tenant slug from the request host
	SourceSubdomain
)

// String returns the canonical name of the source
func (s Source) String() string {
	switch s {
	case SourceGatewayHeader:
		return "gateway_header"
	case SourceContainerContext:
		return "container_context"
	case SourceAuthToken:
		return "auth_token"
	case SourceSubdomain:
		return "subdomain"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Context is the per-request tenant attribution. It lives for one
// request only and is never persisted. Validated is true only after a
// successful registry lookup; GatewayConfirmed only after the gateway
// header matched the resolved tenant.
type Context struct {
	TenantID         string
	Slug             string
	Source           Source
	Validated        bool
	GatewayConfirmed bool
}

// candidate is a tenant id extracted from one signal before validation
type candidate struct {
	tenantID string
	source   Source
}
