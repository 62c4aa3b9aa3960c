package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// School is the institution behind a tenant. GestorID points at the
// tenant-admin identity and is claimed first-writer-wins during gestor
// onboarding.
type School struct {
	ID        uuid.UUID
	Name      string
	GestorID  *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SchoolRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*School, error)
	// ClaimGestor sets gestor_id to userID only while it is unset. Returns
	// false without error when another writer already claimed it.
	ClaimGestor(ctx context.Context, schoolID, userID uuid.UUID) (bool, error)
}
