package v1

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/nt8816/bibliotecai-core/internal/domain"
	"github.com/nt8816/bibliotecai-core/internal/server/middleware"
)

type CreateTenantInput struct {
	Body struct {
		Name      string `json:"nome" minLength:"1" maxLength:"255" doc:"School display name"`
		SchoolID  string `json:"escola_id" format:"uuid" doc:"School this tenant serves"`
		Subdomain string `json:"subdominio" minLength:"1" maxLength:"63" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"URL-safe subdomain (lowercase alphanumeric with hyphens)"`
		Plan      string `json:"plano,omitempty" doc:"Commercial plan"`
	}
}

type CreateTenantOutput struct {
	Body *domain.Tenant
}

type ListTenantsOutput struct {
	Body []*domain.Tenant
}

// RegisterTenantRoutes wires the platform-admin tenant management surface.
func RegisterTenantRoutes(api huma.API, tenants domain.TenantRepository) {
	huma.Register(api, huma.Operation{
		OperationID: "create-tenant",
		Method:      http.MethodPost,
		Path:        "/tenants",
		Summary:     "Create a new tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *CreateTenantInput) (*CreateTenantOutput, error) {
		role, ok := middleware.RoleFromContext(ctx)
		if !ok || role != middleware.RoleAdmin {
			return nil, huma.Error403Forbidden("admin role required")
		}

		schoolID, err := uuid.Parse(input.Body.SchoolID)
		if err != nil {
			return nil, huma.Error400BadRequest("escola_id is not a valid UUID")
		}

		sub := strings.ToLower(input.Body.Subdomain)
		now := time.Now()
		t := &domain.Tenant{
			ID:         uuid.New(),
			Name:       input.Body.Name,
			SchoolID:   schoolID,
			Subdomain:  sub,
			SchemaName: "tenant_" + strings.ReplaceAll(sub, "-", "_"),
			Plan:       input.Body.Plan,
			Active:     true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := tenants.Create(ctx, t); err != nil {
			return nil, huma.Error500InternalServerError("failed to create tenant", err)
		}

		return &CreateTenantOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/tenants",
		Summary:     "List all tenants",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, _ *struct{}) (*ListTenantsOutput, error) {
		role, ok := middleware.RoleFromContext(ctx)
		if !ok || role != middleware.RoleAdmin {
			return nil, huma.Error403Forbidden("admin role required")
		}

		list, err := tenants.List(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tenants", err)
		}

		return &ListTenantsOutput{Body: list}, nil
	})
}
