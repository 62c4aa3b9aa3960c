package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/nt8816/bibliotecai-core/internal/api/v1"
	"github.com/nt8816/bibliotecai-core/internal/domain"
	"github.com/nt8816/bibliotecai-core/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// POST /invites
// ---------------------------------------------------------------------------

func TestCreateInvite(t *testing.T) {
	t.Parallel()

	t.Run("staff_issues_for_own_school", func(t *testing.T) {
		t.Parallel()

		schoolID := uuid.New()
		svc := &mockInviteService{
			createInviteFunc: func(_ context.Context, sid uuid.UUID, role domain.Role, ttl time.Duration) (*domain.Invite, error) {
				assert.Equal(t, schoolID, sid)
				assert.Equal(t, domain.RoleProfessor, role)
				assert.Equal(t, 48*time.Hour, ttl)
				return &domain.Invite{
					ID:        uuid.New(),
					Token:     "issued-token",
					Role:      role,
					SchoolID:  sid,
					ExpiresAt: time.Now().Add(ttl),
					Active:    true,
				}, nil
			},
		}

		_, api := humatest.New(t)
		v1.RegisterInviteRoutes(api, svc)

		ctx := schoolCtx(middleware.RoleBibliotecaria, schoolID)
		resp := api.PostCtx(ctx, "/invites", map[string]any{
			"role":      "professor",
			"ttl_hours": 48,
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.Invite
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "issued-token", body.Token)
		assert.Equal(t, domain.RoleProfessor, body.Role)
	})

	t.Run("staff_cannot_issue_for_another_school", func(t *testing.T) {
		t.Parallel()

		svc := &mockInviteService{}
		_, api := humatest.New(t)
		v1.RegisterInviteRoutes(api, svc)

		ctx := schoolCtx(middleware.RoleGestor, uuid.New())
		resp := api.PostCtx(ctx, "/invites", map[string]any{
			"role":      "aluno",
			"escola_id": uuid.New().String(),
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("admin_must_name_a_school", func(t *testing.T) {
		t.Parallel()

		svc := &mockInviteService{}
		_, api := humatest.New(t)
		v1.RegisterInviteRoutes(api, svc)

		resp := api.PostCtx(adminCtx(), "/invites", map[string]any{
			"role": "aluno",
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("admin_issues_for_named_school", func(t *testing.T) {
		t.Parallel()

		target := uuid.New()
		svc := &mockInviteService{
			createInviteFunc: func(_ context.Context, sid uuid.UUID, role domain.Role, _ time.Duration) (*domain.Invite, error) {
				assert.Equal(t, target, sid)
				return &domain.Invite{ID: uuid.New(), Role: role, SchoolID: sid, Active: true}, nil
			},
		}
		_, api := humatest.New(t)
		v1.RegisterInviteRoutes(api, svc)

		resp := api.PostCtx(adminCtx(), "/invites", map[string]any{
			"role":      "aluno",
			"escola_id": target.String(),
		})

		assert.Equal(t, http.StatusOK, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// POST /admin-invites
// ---------------------------------------------------------------------------

func TestCreateAdminInvite(t *testing.T) {
	t.Parallel()

	t.Run("admin_only", func(t *testing.T) {
		t.Parallel()

		svc := &mockInviteService{}
		_, api := humatest.New(t)
		v1.RegisterInviteRoutes(api, svc)

		ctx := schoolCtx(middleware.RoleGestor, uuid.New())
		resp := api.PostCtx(ctx, "/admin-invites", map[string]any{
			"escola_id":  uuid.New().String(),
			"subdominio": "escola-azul",
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		target := uuid.New()
		svc := &mockInviteService{
			createAdminInviteFunc: func(_ context.Context, sid uuid.UUID, subdomain string, _ time.Duration) (*domain.AdminInvite, error) {
				assert.Equal(t, target, sid)
				assert.Equal(t, "escola-azul", subdomain)
				return &domain.AdminInvite{
					ID:        uuid.New(),
					Token:     "gestor-token",
					SchoolID:  sid,
					Subdomain: subdomain,
					Active:    true,
				}, nil
			},
		}
		_, api := humatest.New(t)
		v1.RegisterInviteRoutes(api, svc)

		resp := api.PostCtx(adminCtx(), "/admin-invites", map[string]any{
			"escola_id":  target.String(),
			"subdominio": "escola-azul",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.AdminInvite
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "gestor-token", body.Token)
		assert.Equal(t, "escola-azul", body.Subdomain)
	})
}

// ---------------------------------------------------------------------------
// GET /invites
// ---------------------------------------------------------------------------

func TestListInvites(t *testing.T) {
	t.Parallel()

	t.Run("lists_own_school", func(t *testing.T) {
		t.Parallel()

		schoolID := uuid.New()
		svc := &mockInviteService{
			listInvitesFunc: func(_ context.Context, sid uuid.UUID) ([]*domain.Invite, error) {
				assert.Equal(t, schoolID, sid)
				return []*domain.Invite{
					{ID: uuid.New(), Role: domain.RoleAluno, SchoolID: sid},
					{ID: uuid.New(), Role: domain.RoleProfessor, SchoolID: sid},
				}, nil
			},
		}
		_, api := humatest.New(t)
		v1.RegisterInviteRoutes(api, svc)

		ctx := schoolCtx(middleware.RoleBibliotecaria, schoolID)
		resp := api.GetCtx(ctx, "/invites")

		require.Equal(t, http.StatusOK, resp.Code)

		var body []*domain.Invite
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Len(t, body, 2)
	})

	t.Run("session_without_school_is_forbidden", func(t *testing.T) {
		t.Parallel()

		svc := &mockInviteService{}
		_, api := humatest.New(t)
		v1.RegisterInviteRoutes(api, svc)

		ctx := roleCtx(middleware.RoleBibliotecaria)
		resp := api.GetCtx(ctx, "/invites")

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}
