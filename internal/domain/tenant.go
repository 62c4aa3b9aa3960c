package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is one school's isolated namespace, addressed by subdomain.
// Tenants are created and mutated by platform administration; the
// resolution path only ever reads them.
type Tenant struct {
	ID         uuid.UUID
	Name       string
	SchoolID   uuid.UUID
	Subdomain  string
	SchemaName string
	Plan       string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type TenantRepository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	// GetActiveBySubdomain returns the single active tenant owning the
	// subdomain, or ErrNotFound. Subdomains are unique among active tenants.
	GetActiveBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
}
