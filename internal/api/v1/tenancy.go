package v1

import (
	"context"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/nt8816/bibliotecai-core/internal/server/middleware"
	"github.com/nt8816/bibliotecai-core/internal/tenancy"
)

type ResolveTenancyInput struct {
	Host string `query:"host" doc:"Host to classify; defaults to the request host"`
}

// TenantInfo is the public projection of a resolved tenant.
type TenantInfo struct {
	ID        string `json:"id"`
	Name      string `json:"nome"`
	Subdomain string `json:"subdominio"`
	Plan      string `json:"plano,omitempty"`
}

type ResolveTenancyOutput struct {
	Body struct {
		Mode         string      `json:"mode" enum:"root,admin,tenant"`
		Subdomain    string      `json:"subdomain,omitempty"`
		IsTenantHost bool        `json:"is_tenant_host"`
		IsAdminHost  bool        `json:"is_admin_host"`
		Tenant       *TenantInfo `json:"tenant,omitempty"`
		Error        string      `json:"error,omitempty"`
	}
}

// RegisterTenancyRoutes exposes host classification to the frontend boot
// sequence. The middleware already resolved the request host; the optional
// host parameter lets the admin surface inspect an arbitrary one.
func RegisterTenancyRoutes(api huma.API, resolver HostResolver) {
	huma.Register(api, huma.Operation{
		OperationID: "resolve-tenancy",
		Method:      http.MethodGet,
		Path:        "/tenancy/resolution",
		Summary:     "Classify a host and resolve its tenant",
		Tags:        []string{"Tenancy"},
	}, func(ctx context.Context, input *ResolveTenancyInput) (*ResolveTenancyOutput, error) {
		var res *tenancy.Resolution
		if input.Host != "" {
			res = resolver.Resolve(ctx, input.Host, url.Values{})
		} else if attached, ok := middleware.ResolutionFromContext(ctx); ok {
			res = attached
		} else {
			return nil, huma.Error400BadRequest("host is required")
		}

		out := &ResolveTenancyOutput{}
		out.Body.Mode = string(res.Mode)
		out.Body.Subdomain = res.Subdomain
		out.Body.IsTenantHost = res.IsTenantHost()
		out.Body.IsAdminHost = res.IsAdminHost()
		out.Body.Error = res.Err
		if res.Tenant != nil {
			out.Body.Tenant = &TenantInfo{
				ID:        res.Tenant.ID.String(),
				Name:      res.Tenant.Name,
				Subdomain: res.Tenant.Subdomain,
				Plan:      res.Tenant.Plan,
			}
		}
		return out, nil
	})
}
