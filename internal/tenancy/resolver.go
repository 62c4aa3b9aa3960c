package tenancy

import (
	"context"
	"errors"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/nt8816/bibliotecai-core/internal/domain"
)

// TenantNotFoundMessage is the user-facing resolution failure, rendered by
// the frontend in place of the application.
const TenantNotFoundMessage = "Tenant não encontrado para este subdomínio."

// Resolution is the terminal outcome of one resolution pass. For tenant
// hosts exactly one of Tenant and Err is set.
type Resolution struct {
	Mode      Mode
	Subdomain string
	Tenant    *domain.Tenant
	Err       string
}

// IsTenantHost reports whether the host classified as a tenant host,
// regardless of whether the lookup succeeded.
func (r *Resolution) IsTenantHost() bool { return r.Mode == ModeTenant }

// IsAdminHost reports whether the host classified as the admin surface.
func (r *Resolution) IsAdminHost() bool { return r.Mode == ModeAdmin }

// Failed reports whether a tenant host could not be resolved.
func (r *Resolution) Failed() bool { return r.Err != "" }

// Resolver classifies a request and, for tenant hosts, fetches the owning
// tenant. It performs at most one read per call and never mutates anything.
type Resolver struct {
	classifier Classifier
	tenants    domain.TenantRepository
}

func NewResolver(classifier Classifier, tenants domain.TenantRepository) *Resolver {
	return &Resolver{classifier: classifier, tenants: tenants}
}

// Resolve classifies host+query and looks up the tenant for tenant hosts.
// Non-tenant modes never touch the store. Lookup failures of any kind fold
// into the user-facing TenantNotFoundMessage; the underlying cause is logged.
func (r *Resolver) Resolve(ctx context.Context, host string, query url.Values) *Resolution {
	cls := r.classifier.Classify(host, query)

	res := &Resolution{Mode: cls.Mode, Subdomain: cls.Subdomain}
	if cls.Mode != ModeTenant {
		return res
	}

	tenant, err := r.tenants.GetActiveBySubdomain(ctx, cls.Subdomain)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Str("subdomain", cls.Subdomain).Msg("tenancy: tenant lookup failed")
		}
		res.Err = TenantNotFoundMessage
		return res
	}

	res.Tenant = tenant
	return res
}
