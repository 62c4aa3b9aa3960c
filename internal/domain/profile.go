package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Profile is the library-domain user record, distinct from the identity
// provider's authentication record. UserID is nullable and carries no
// uniqueness constraint at the storage layer: imported student rosters are
// created without one and bound later by matricula.
type Profile struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Name      string
	Email     string
	Type      Role
	SchoolID  uuid.UUID
	Matricula string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	// GetByMatricula finds an imported roster profile within a school,
	// bound or not.
	GetByMatricula(ctx context.Context, schoolID uuid.UUID, matricula string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	// BindUser attaches an identity to a roster profile, guarded by the
	// profile still being unbound. Returns ErrConflict when the guard
	// rejects the write.
	BindUser(ctx context.Context, id, userID uuid.UUID) error
}
