package middleware

import (
	"context"
	"net/http"

	"github.com/nt8816/bibliotecai-core/internal/tenancy"
)

// ResolveTenant classifies the request host and attaches the resolution to
// the request context. It never rejects: root and admin hosts pass through
// with their mode recorded, and downstream handlers decide what a failed
// tenant lookup means for them.
func ResolveTenant(resolver *tenancy.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := resolver.Resolve(r.Context(), r.Host, r.URL.Query())
			ctx := context.WithValue(r.Context(), ContextKeyResolution, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant rejects requests whose host did not resolve to an active
// tenant. Must be chained after ResolveTenant.
func RequireTenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := ResolutionFromContext(r.Context())
			if !ok || !res.IsTenantHost() || res.Failed() {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"valid tenant required"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
