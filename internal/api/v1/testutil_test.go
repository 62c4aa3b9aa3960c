package v1_test

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/nt8816/bibliotecai-core/internal/domain"
	"github.com/nt8816/bibliotecai-core/internal/server/middleware"
	"github.com/nt8816/bibliotecai-core/internal/tenancy"
)

// ---------------------------------------------------------------------------
// Context helpers — inject user/role/school into context for the *Ctx calls
// ---------------------------------------------------------------------------

func roleCtx(role string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, uuid.New())
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, role)
	return ctx
}

func adminCtx() context.Context {
	return roleCtx(middleware.RoleAdmin)
}

func schoolCtx(role string, schoolID uuid.UUID) context.Context {
	ctx := roleCtx(role)
	ctx = context.WithValue(ctx, middleware.ContextKeySchoolID, schoolID)
	return ctx
}

// ---------------------------------------------------------------------------
// Mock InviteService
// ---------------------------------------------------------------------------

type mockInviteService struct {
	createInviteFunc      func(ctx context.Context, schoolID uuid.UUID, role domain.Role, ttl time.Duration) (*domain.Invite, error)
	createAdminInviteFunc func(ctx context.Context, schoolID uuid.UUID, subdomain string, ttl time.Duration) (*domain.AdminInvite, error)
	listInvitesFunc       func(ctx context.Context, schoolID uuid.UUID) ([]*domain.Invite, error)
}

func (m *mockInviteService) CreateInvite(ctx context.Context, schoolID uuid.UUID, role domain.Role, ttl time.Duration) (*domain.Invite, error) {
	return m.createInviteFunc(ctx, schoolID, role, ttl)
}

func (m *mockInviteService) CreateAdminInvite(ctx context.Context, schoolID uuid.UUID, subdomain string, ttl time.Duration) (*domain.AdminInvite, error) {
	return m.createAdminInviteFunc(ctx, schoolID, subdomain, ttl)
}

func (m *mockInviteService) ListInvites(ctx context.Context, schoolID uuid.UUID) ([]*domain.Invite, error) {
	return m.listInvitesFunc(ctx, schoolID)
}

// ---------------------------------------------------------------------------
// Mock HostResolver
// ---------------------------------------------------------------------------

type mockResolver struct {
	resolveFunc func(ctx context.Context, host string, query url.Values) *tenancy.Resolution
}

func (m *mockResolver) Resolve(ctx context.Context, host string, query url.Values) *tenancy.Resolution {
	return m.resolveFunc(ctx, host, query)
}

// ---------------------------------------------------------------------------
// Mock TenantRepository
// ---------------------------------------------------------------------------

type mockTenantRepo struct {
	createFunc func(ctx context.Context, t *domain.Tenant) error
	listFunc   func(ctx context.Context) ([]*domain.Tenant, error)
}

func (m *mockTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	return m.createFunc(ctx, t)
}

func (m *mockTenantRepo) GetByID(_ context.Context, _ uuid.UUID) (*domain.Tenant, error) {
	panic("not implemented")
}

func (m *mockTenantRepo) GetActiveBySubdomain(_ context.Context, _ string) (*domain.Tenant, error) {
	panic("not implemented")
}

func (m *mockTenantRepo) List(ctx context.Context) ([]*domain.Tenant, error) {
	return m.listFunc(ctx)
}
