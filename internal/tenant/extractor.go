package tenant

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Request is the read-only view of an inbound request the boundary
// enforcer needs. The surrounding application builds one per request;
// the gin adapter in this package does it for gin traffic.
type Request struct {
	Path   string
	Host   string
	Header http.Header
}

// slugPattern accepts DNS-label style tenant slugs
var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// validTenantID accepts a UUID or a slug. Each extractor checks only
// this shape; cross-source agreement is the enforcer's job.
func validTenantID(id string) bool {
	if id == "" {
		return false
	}

	if _, err := uuid.Parse(id); err == nil {
		return true
	}

	return slugPattern.MatchString(id)
}

// ExtractorConfig names the request signals tenant ids are read from
type ExtractorConfig struct {
	// GatewayHeader is the header set by the trusted API gateway
	GatewayHeader string

	// ContainerHeader is the header set by the container platform
	ContainerHeader string

	// BaseDomain is stripped from the Host to obtain the subdomain slug.
	// Empty disables subdomain extraction.
	BaseDomain string

	// JWTSecret verifies auth tokens before their claims are trusted
	JWTSecret string
}

// Extractor pulls tenant candidates from the independent request
// signals. Each extraction validates its own syntax only and knows
// nothing about the other sources.
type Extractor struct {
	cfg ExtractorConfig
}

// NewExtractor creates an extractor for the configured signals
func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.GatewayHeader == "" {
		cfg.GatewayHeader = "X-Tenant-ID"
	}
	if cfg.ContainerHeader == "" {
		cfg.ContainerHeader = "X-Container-Tenant"
	}

	return &Extractor{cfg: cfg}
}

// extract gathers every candidate present on the request, in priority order
func (e *Extractor) extract(req *Request) []candidate {
	var candidates []candidate

	if c, ok := e.fromHeader(req, e.cfg.GatewayHeader, SourceGatewayHeader); ok {
		candidates = append(candidates, c)
	}

	if c, ok := e.fromHeader(req, e.cfg.ContainerHeader, SourceContainerContext); ok {
		candidates = append(candidates, c)
	}

	if c, ok := e.fromAuthToken(req); ok {
		candidates = append(candidates, c)
	}

	if c, ok := e.fromSubdomain(req); ok {
		candidates = append(candidates, c)
	}

	return candidates
}

// fromHeader extracts a tenant id from a single header
func (e *Extractor) fromHeader(req *Request, header string, source Source) (candidate, bool) {
	id := strings.TrimSpace(req.Header.Get(header))
	if !validTenantID(id) {
		return candidate{}, false
	}

	return candidate{tenantID: id, source: source}, true
}

// tenantClaims is the claim set carried by auth tokens
type tenantClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// fromAuthToken extracts the tenant claim from a bearer token. The token
// signature is verified first; an unverifiable token contributes no
// candidate rather than a forgeable one.
func (e *Extractor) fromAuthToken(req *Request) (candidate, bool) {
	if e.cfg.JWTSecret == "" {
		return candidate{}, false
	}

	header := req.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return candidate{}, false
	}

	claims := new(tenantClaims)
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(e.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return candidate{}, false
	}

	if !validTenantID(claims.TenantID) {
		return candidate{}, false
	}

	return candidate{tenantID: claims.TenantID, source: SourceAuthToken}, true
}

// fromSubdomain extracts the tenant slug from the request host
func (e *Extractor) fromSubdomain(req *Request) (candidate, bool) {
	if e.cfg.BaseDomain == "" {
		return candidate{}, false
	}

	host := req.Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	suffix := "." + strings.TrimPrefix(e.cfg.BaseDomain, ".")
	if !strings.HasSuffix(host, suffix) {
		return candidate{}, false
	}

	sub := strings.TrimSuffix(host, suffix)
	// nested subdomains are not tenant slugs
	if sub == "" || strings.Contains(sub, ".") {
		return candidate{}, false
	}

	if !slugPattern.MatchString(sub) {
		return candidate{}, false
	}

	return candidate{tenantID: sub, source: SourceSubdomain}, true
}
