package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RoleAssignment pairs an identity with a role, unique per (user_id, role).
// The provisioning invariant is exactly one row per user after redemption.
type RoleAssignment struct {
	UserID    uuid.UUID
	Role      Role
	CreatedAt time.Time
}

type RoleRepository interface {
	// DeleteOthers removes every role row for the user except keep,
	// defending against prior partially-provisioned state.
	DeleteOthers(ctx context.Context, userID uuid.UUID, keep Role) error
	// Upsert inserts the (user_id, role) pair, a no-op when it already exists.
	Upsert(ctx context.Context, userID uuid.UUID, role Role) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*RoleAssignment, error)
}
