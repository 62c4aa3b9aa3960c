package v1

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/nt8816/bibliotecai-core/internal/domain"
	"github.com/nt8816/bibliotecai-core/internal/tenancy"
)

// InviteService abstracts invite issuance for handler testing.
// *invite.Service satisfies this interface.
type InviteService interface {
	CreateInvite(ctx context.Context, schoolID uuid.UUID, role domain.Role, ttl time.Duration) (*domain.Invite, error)
	CreateAdminInvite(ctx context.Context, schoolID uuid.UUID, subdomain string, ttl time.Duration) (*domain.AdminInvite, error)
	ListInvites(ctx context.Context, schoolID uuid.UUID) ([]*domain.Invite, error)
}

// HostResolver abstracts host classification for handler testing.
// *tenancy.Resolver satisfies this interface.
type HostResolver interface {
	Resolve(ctx context.Context, host string, query url.Values) *tenancy.Resolution
}
