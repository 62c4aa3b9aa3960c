package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/nt8816/bibliotecai-core/internal/tenancy"
)

type contextKey string

const (
	ContextKeySchoolID   contextKey = "escola_id"
	ContextKeyUserID     contextKey = "user_id"
	ContextKeyUserRole   contextKey = "role"
	ContextKeyResolution contextKey = "tenancy_resolution"
)

func SchoolIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeySchoolID).(uuid.UUID)
	return v, ok
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return v, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyUserRole).(string)
	return v, ok
}

func ResolutionFromContext(ctx context.Context) (*tenancy.Resolution, bool) {
	v, ok := ctx.Value(ContextKeyResolution).(*tenancy.Resolution)
	return v, ok
}
