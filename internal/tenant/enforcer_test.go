package tenant

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustguard/internal/observability"
	"trustguard/internal/registry"
)

const testJWTSecret = "test-jwt-secret-for-tenant-claims"

func newTestEnforcer(t *testing.T, tenants ...*registry.Tenant) *Enforcer {
	t.Helper()

	return NewEnforcer(EnforcerConfig{
		Extractor: ExtractorConfig{
			GatewayHeader:   "X-Tenant-ID",
			ContainerHeader: "X-Container-Tenant",
			BaseDomain:      "example.com",
			JWTSecret:       testJWTSecret,
		},
		ExemptPaths: []string{"/health", "/auth/login"},
	}, registry.NewMemoryRegistry(tenants...), observability.NewNopLogger(), nil)
}

func activeTenant(slug string) *registry.Tenant {
	return &registry.Tenant{
		ID:     uuid.New(),
		Slug:   slug,
		Name:   slug,
		Status: registry.StatusActive,
	}
}

func signTenantToken(t *testing.T, tenantID string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tenantClaims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func newRequest(path, host string, headers map[string]string) *Request {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}

	return &Request{Path: path, Host: host, Header: h}
}

func TestEnforceExemptPath(t *testing.T) {
	enforcer := newTestEnforcer(t)

	tc, err := enforcer.Enforce(context.Background(), newRequest("/health", "api.example.com", nil))
	require.NoError(t, err)
	assert.Nil(t, tc)
}

func TestEnforceMissingContext(t *testing.T) {
	enforcer := newTestEnforcer(t)

	_, err := enforcer.Enforce(context.Background(), newRequest("/api/widgets", "api.example.com", nil))

	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, ReasonMissingContext, rejection.Reason)
}

func TestEnforceSingleCandidateSucceeds(t *testing.T) {
	acme := activeTenant("acme")
	enforcer := newTestEnforcer(t, acme)

	tc, err := enforcer.Enforce(context.Background(), newRequest("/api/widgets", "api.example.com", map[string]string{
		"X-Tenant-ID": acme.ID.String(),
	}))
	require.NoError(t, err)
	require.NotNil(t, tc)
	assert.True(t, tc.Validated)
	assert.True(t, tc.GatewayConfirmed)
	assert.Equal(t, acme.ID.String(), tc.TenantID)
	assert.Equal(t, SourceGatewayHeader, tc.Source)
}

func TestEnforceGatewayAndTokenMismatchRejects(t *testing.T) {
	acme := activeTenant("acme")
	globex := activeTenant("globex")
	enforcer := newTestEnforcer(t, acme, globex)

	_, err := enforcer.Enforce(context.Background(), newRequest("/api/widgets", "api.example.com", map[string]string{
		"X-Tenant-ID":   acme.ID.String(),
		"Authorization": "Bearer " + signTenantToken(t, globex.ID.String()),
	}))

	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, ReasonContextMismatch, rejection.Reason)
}

func TestEnforceAgreeingCandidatesSucceed(t *testing.T) {
	acme := activeTenant("acme")
	enforcer := newTestEnforcer(t, acme)

	tc, err := enforcer.Enforce(context.Background(), newRequest("/api/widgets", "api.example.com", map[string]string{
		"X-Tenant-ID":        acme.ID.String(),
		"X-Container-Tenant": acme.ID.String(),
		"Authorization":      "Bearer " + signTenantToken(t, acme.ID.String()),
	}))
	require.NoError(t, err)
	assert.True(t, tc.Validated)
	assert.True(t, tc.GatewayConfirmed)
}

func TestEnforceSubdomainOnly(t *testing.T) {
	acme := activeTenant("acme")
	enforcer := newTestEnforcer(t, acme)

	tc, err := enforcer.Enforce(context.Background(), newRequest("/portal/home", "acme.example.com", nil))
	require.NoError(t, err)
	require.NotNil(t, tc)
	assert.True(t, tc.Validated)
	assert.False(t, tc.GatewayConfirmed)
	assert.Equal(t, SourceSubdomain, tc.Source)
	assert.Equal(t, acme.ID.String(), tc.TenantID)
}

func TestEnforceUnknownTenantIsForbiddenClass(t *testing.T) {
	enforcer := newTestEnforcer(t)

	_, err := enforcer.Enforce(context.Background(), newRequest("/api/widgets", "api.example.com", map[string]string{
		"X-Tenant-ID": "ghost",
	}))

	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, ReasonUnknownOrInactive, rejection.Reason)
}

func TestEnforceInactiveTenantRejected(t *testing.T) {
	suspended := &registry.Tenant{
		ID:     uuid.New(),
		Slug:   "deadbeat",
		Status: registry.StatusSuspended,
	}
	trial := &registry.Tenant{
		ID:     uuid.New(),
		Slug:   "newbie",
		Status: registry.StatusTrial,
	}
	enforcer := newTestEnforcer(t, suspended, trial)

	_, err := enforcer.Enforce(context.Background(), newRequest("/api/widgets", "api.example.com", map[string]string{
		"X-Tenant-ID": suspended.ID.String(),
	}))

	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, ReasonUnknownOrInactive, rejection.Reason)

	// trial tenants pass the boundary
	tc, err := enforcer.Enforce(context.Background(), newRequest("/api/widgets", "api.example.com", map[string]string{
		"X-Tenant-ID": trial.ID.String(),
	}))
	require.NoError(t, err)
	assert.True(t, tc.Validated)
}

func TestEnforceGatewaySlugMatchesResolvedTenant(t *testing.T) {
	acme := activeTenant("acme")
	enforcer := newTestEnforcer(t, acme)

	// gateway asserts the slug, token asserts the same slug
	tc, err := enforcer.Enforce(context.Background(), newRequest("/api/widgets", "api.example.com", map[string]string{
		"X-Tenant-ID":   "acme",
		"Authorization": "Bearer " + signTenantToken(t, "acme"),
	}))
	require.NoError(t, err)
	assert.True(t, tc.GatewayConfirmed)
	assert.Equal(t, acme.ID.String(), tc.TenantID)
}

func TestEnforceForgedTokenContributesNoCandidate(t *testing.T) {
	acme := activeTenant("acme")
	enforcer := newTestEnforcer(t, acme)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, tenantClaims{TenantID: "globex"})
	signed, err := forged.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	// the forged token is ignored; the gateway header alone wins
	tc, err := enforcer.Enforce(context.Background(), newRequest("/api/widgets", "api.example.com", map[string]string{
		"X-Tenant-ID":   acme.ID.String(),
		"Authorization": "Bearer " + signed,
	}))
	require.NoError(t, err)
	assert.True(t, tc.Validated)
}
