package registry

import (
	"context"
	"sync"
)

// MemoryRegistry is an in-memory Registry for tests and local development
type MemoryRegistry struct {
	mu      sync.RWMutex
	byID    map[string]*Tenant
	lookups int
}

// NewMemoryRegistry creates a registry holding the given tenants, keyed
// by both UUID and slug.
func NewMemoryRegistry(tenants ...*Tenant) *MemoryRegistry {
	r := &MemoryRegistry{byID: make(map[string]*Tenant)}
	for _, t := range tenants {
		r.Add(t)
	}
	return r
}

// Add registers a tenant under its UUID and slug
func (r *MemoryRegistry) Add(t *Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[t.ID.String()] = t
	if t.Slug != "" {
		r.byID[t.Slug] = t
	}
}

// GetTenant resolves a tenant by UUID string or slug
func (r *MemoryRegistry) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	r.mu.Lock()
	r.lookups++
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	tenant, ok := r.byID[id]
	if !ok {
		return nil, ErrTenantNotFound
	}

	return tenant, nil
}

// Lookups returns how many lookups were performed; used by cache tests
func (r *MemoryRegistry) Lookups() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookups
}
