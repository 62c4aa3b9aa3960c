package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/nt8816/bibliotecai-core/internal/domain"
	"github.com/nt8816/bibliotecai-core/internal/invite"
	"github.com/nt8816/bibliotecai-core/internal/server/middleware"
)

type CreateInviteInput struct {
	Body struct {
		Role     string  `json:"role" enum:"professor,bibliotecaria,aluno" doc:"Role the redeemer will receive"`
		SchoolID *string `json:"escola_id,omitempty" format:"uuid" doc:"Target school; platform admins only, others use their own"`
		TTLHours int     `json:"ttl_hours,omitempty" minimum:"1" maximum:"720" doc:"Invite lifetime in hours; defaults to 7 days"`
	}
}

type CreateInviteOutput struct {
	Body *domain.Invite
}

type CreateAdminInviteInput struct {
	Body struct {
		SchoolID  string `json:"escola_id" format:"uuid" doc:"School the gestor will manage"`
		Subdomain string `json:"subdominio" minLength:"1" maxLength:"63" doc:"Tenant subdomain reported back on redemption"`
		TTLHours  int    `json:"ttl_hours,omitempty" minimum:"1" maximum:"720" doc:"Invite lifetime in hours; defaults to 7 days"`
	}
}

type CreateAdminInviteOutput struct {
	Body *domain.AdminInvite
}

type ListInvitesInput struct {
	SchoolID string `query:"escola_id" doc:"School to list; platform admins only, others use their own"`
}

type ListInvitesOutput struct {
	Body []*domain.Invite
}

// RegisterInviteRoutes wires invite issuance and listing. The surrounding
// router already enforces authentication and the staff roles; handlers only
// resolve which school the caller may act on.
func RegisterInviteRoutes(api huma.API, invites InviteService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-invite",
		Method:      http.MethodPost,
		Path:        "/invites",
		Summary:     "Issue a single-use invite for a school",
		Tags:        []string{"Invites"},
	}, func(ctx context.Context, input *CreateInviteInput) (*CreateInviteOutput, error) {
		schoolID, err := resolveSchool(ctx, derefStr(input.Body.SchoolID))
		if err != nil {
			return nil, err
		}

		inv, err := invites.CreateInvite(ctx, schoolID, domain.Role(input.Body.Role), time.Duration(input.Body.TTLHours)*time.Hour)
		if err != nil {
			if errors.Is(err, invite.ErrRoleNotAllowed) {
				return nil, huma.Error422UnprocessableEntity("role cannot be granted by invite")
			}
			return nil, huma.Error500InternalServerError("failed to create invite", err)
		}

		return &CreateInviteOutput{Body: inv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-admin-invite",
		Method:      http.MethodPost,
		Path:        "/admin-invites",
		Summary:     "Issue a gestor onboarding invite",
		Tags:        []string{"Invites"},
	}, func(ctx context.Context, input *CreateAdminInviteInput) (*CreateAdminInviteOutput, error) {
		role, _ := middleware.RoleFromContext(ctx)
		if role != middleware.RoleAdmin {
			return nil, huma.Error403Forbidden("admin role required")
		}

		schoolID, err := uuid.Parse(input.Body.SchoolID)
		if err != nil {
			return nil, huma.Error400BadRequest("escola_id is not a valid UUID")
		}

		inv, err := invites.CreateAdminInvite(ctx, schoolID, input.Body.Subdomain, time.Duration(input.Body.TTLHours)*time.Hour)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to create admin invite", err)
		}

		return &CreateAdminInviteOutput{Body: inv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-invites",
		Method:      http.MethodGet,
		Path:        "/invites",
		Summary:     "List a school's invites",
		Tags:        []string{"Invites"},
	}, func(ctx context.Context, input *ListInvitesInput) (*ListInvitesOutput, error) {
		schoolID, err := resolveSchool(ctx, input.SchoolID)
		if err != nil {
			return nil, err
		}

		list, err := invites.ListInvites(ctx, schoolID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list invites", err)
		}

		return &ListInvitesOutput{Body: list}, nil
	})
}

// resolveSchool picks the school a caller may act on: platform admins name
// one explicitly, everyone else is pinned to the school in their token.
func resolveSchool(ctx context.Context, requested string) (uuid.UUID, error) {
	role, _ := middleware.RoleFromContext(ctx)

	if role == middleware.RoleAdmin {
		if requested == "" {
			return uuid.Nil, huma.Error400BadRequest("escola_id is required for platform admins")
		}
		id, err := uuid.Parse(requested)
		if err != nil {
			return uuid.Nil, huma.Error400BadRequest("escola_id is not a valid UUID")
		}
		return id, nil
	}

	schoolID, ok := middleware.SchoolIDFromContext(ctx)
	if !ok {
		return uuid.Nil, huma.Error403Forbidden("session is not bound to a school")
	}
	if requested != "" {
		id, err := uuid.Parse(requested)
		if err != nil || id != schoolID {
			return uuid.Nil, huma.Error403Forbidden("cannot act on another school")
		}
	}
	return schoolID, nil
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
