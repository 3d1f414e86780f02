// Package registry resolves tenant identifiers to tenant records. The
// boundary enforcer consults it on every request, so implementations are
// expected to be cheap; the redis cache layer exists for exactly that.
package registry

import (
	"context"
	"errors"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	"github.com/google/uuid"
)

// ErrTenantNotFound indicates no tenant exists for the given identifier
var ErrTenantNotFound = errors.New("tenant not found")

// TenantStatus is the lifecycle state of a tenant
type TenantStatus string

const (
	// StatusActive is a fully provisioned, paying tenant
	StatusActive TenantStatus = "active"

	// StatusTrial is a tenant inside its evaluation period
	StatusTrial TenantStatus = "trial"

	// StatusSuspended is a tenant blocked for non-payment or abuse
	StatusSuspended TenantStatus = "suspended"

	// StatusCancelled is a tenant that has terminated service
	StatusCancelled TenantStatus = "cancelled"
)

// Tenant represents a tenant in the multi-tenant system
type Tenant struct {
	ID        uuid.UUID    `pg:"id,type:uuid,pk"`
	Slug      string       `pg:"slug,unique,notnull"`
	Name      string       `pg:"name,notnull"`
	Status    TenantStatus `pg:"status,notnull,default:'trial'"`
	CreatedAt time.Time    `pg:"created_at,notnull,default:now()"`
	UpdatedAt time.Time    `pg:"updated_at,notnull,default:now()"`
}

// BeforeInsert hook is called before inserting a new tenant
func (t *Tenant) BeforeInsert(ctx orm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate hook is called before updating a tenant
func (t *Tenant) BeforeUpdate(ctx orm.DB) error {
	t.UpdatedAt = time.Now()
	return nil
}

// TableName returns the name of the table for this model
func (t *Tenant) TableName() string {
	return "tenants"
}

// CanServe reports whether requests may be attributed to this tenant.
// Only Active and Trial tenants pass the boundary.
func (t *Tenant) CanServe() bool {
	return t.Status == StatusActive || t.Status == StatusTrial
}

// Registry looks up tenants by id or slug
type Registry interface {
	// GetTenant resolves a tenant by UUID string or slug.
	// Returns ErrTenantNotFound when no tenant matches.
	GetTenant(ctx context.Context, id string) (*Tenant, error)
}

// PGRegistry is the Postgres-backed registry
type PGRegistry struct {
	db *pg.DB
}

// NewPGRegistry creates a registry over an existing go-pg connection
func NewPGRegistry(db *pg.DB) *PGRegistry {
	return &PGRegistry{db: db}
}

// GetTenant resolves a tenant by UUID or slug
func (r *PGRegistry) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	tenant := new(Tenant)

	query := r.db.ModelContext(ctx, tenant)
	if parsed, err := uuid.Parse(id); err == nil {
		query = query.Where("id = ?", parsed)
	} else {
		query = query.Where("slug = ?", id)
	}

	if err := query.Select(); err != nil {
		if errors.Is(err, pg.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	return tenant, nil
}
