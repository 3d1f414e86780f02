package secrets

import (
	"fmt"
	"strings"
)

// Address identifies a secret. Tenant-scoped secrets are namespaced under
// tenants/{tenant_id}/ before they reach any store, so two tenants can
// never resolve to the same storage path.
type Address struct {
	Type     SecretType
	Path     string
	Key      string
	TenantID string
}

// NewAddress builds a validated address. Path segments are rejected if
// they could escape the tenant namespace.
func NewAddress(t SecretType, path, key, tenantID string) (Address, error) {
	if path == "" || key == "" {
		return Address{}, fmt.Errorf("secret path and key must not be empty")
	}

	for _, part := range []string{path, key, tenantID} {
		if strings.Contains(part, "..") {
			return Address{}, fmt.Errorf("secret address segment %q must not contain '..'", part)
		}
	}

	if strings.Contains(tenantID, "/") {
		return Address{}, fmt.Errorf("tenant id %q must not contain '/'", tenantID)
	}

	return Address{
		Type:     t,
		Path:     strings.Trim(path, "/"),
		Key:      key,
		TenantID: tenantID,
	}, nil
}

// StorePath returns the path handed to a backing store. A tenant-scoped
// address always carries its tenant segment here; callers must not build
// store paths any other way.
func (a Address) StorePath() string {
	if a.TenantID != "" {
		return fmt.Sprintf("tenants/%s/%s", a.TenantID, a.Path)
	}
	return a.Path
}

// String describes the address for logs, without the value
func (a Address) String() string {
	return fmt.Sprintf("%s:%s/%s", a.Type, a.StorePath(), a.Key)
}
