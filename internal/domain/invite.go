package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is the domain-level user role assigned at invite redemption.
type Role string

const (
	RoleProfessor     Role = "professor"
	RoleBibliotecaria Role = "bibliotecaria"
	RoleAluno         Role = "aluno"
	RoleGestor        Role = "gestor"
)

// Assignable reports whether the role may be granted through a generic
// invite. Gestor onboarding goes through the separate admin-invite path.
func (r Role) Assignable() bool {
	switch r {
	case RoleProfessor, RoleBibliotecaria, RoleAluno:
		return true
	default:
		return false
	}
}

// Invite is a single-use secret granting the right to self-provision one
// account with a pre-assigned role. Rows are never deleted; redemption
// stamps UsedBy/UsedAt exactly once.
type Invite struct {
	ID        uuid.UUID
	Token     string
	Role      Role
	SchoolID  uuid.UUID
	ExpiresAt time.Time
	Active    bool
	UsedBy    *uuid.UUID
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Redeemable reports whether the invite can still be consumed at now.
func (i *Invite) Redeemable(now time.Time) bool {
	return i.Active && i.UsedBy == nil && i.ExpiresAt.After(now)
}

// AdminInvite is the elevated token entity for gestor (tenant-admin)
// onboarding. It is never read directly by callers; validity is resolved
// through the privileged lookup, which yields an AdminInviteContext.
type AdminInvite struct {
	ID        uuid.UUID
	Token     string
	SchoolID  uuid.UUID
	Subdomain string
	ExpiresAt time.Time
	Active    bool
	UsedBy    *uuid.UUID
	UsedAt    *time.Time
	CreatedAt time.Time
}

// AdminInviteContext is what the privileged lookup exposes about a valid
// admin invite: the school being onboarded and its tenant subdomain.
type AdminInviteContext struct {
	SchoolID  uuid.UUID
	Subdomain string
}

type InviteRepository interface {
	Create(ctx context.Context, inv *Invite) error
	// GetRedeemable returns the invite matching token only while it is
	// active, unused and unexpired; otherwise ErrNotFound.
	GetRedeemable(ctx context.Context, token string) (*Invite, error)
	// MarkUsed stamps UsedBy/UsedAt on the invite, guarded by the row still
	// being unused. Returns ErrNotFound when the guard rejects the write.
	MarkUsed(ctx context.Context, id, userID uuid.UUID) error
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*Invite, error)
}

type AdminInviteRepository interface {
	Create(ctx context.Context, inv *AdminInvite) error
	// LookupContext resolves a valid admin invite through the privileged
	// lookup function; ErrNotFound when the token is invalid, used or expired.
	LookupContext(ctx context.Context, token string) (*AdminInviteContext, error)
	// Consume stamps UsedBy/UsedAt, guarded by token match and the row not
	// yet being consumed, so two racing redemptions cannot both win.
	Consume(ctx context.Context, token string, userID uuid.UUID) error
}
