package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/nt8816/bibliotecai-core/internal/api/v1"
	"github.com/nt8816/bibliotecai-core/internal/invite"
	"github.com/nt8816/bibliotecai-core/internal/store/postgres"
	"github.com/nt8816/bibliotecai-core/internal/tenancy"
)

func registerFunctionRoutes(r chi.Router, invites *invite.Service) {
	h := newFunctionsHandler(invites)
	r.Post("/redeem-invite", h.redeemInvite)
	r.Post("/redeem-admin-invite", h.redeemAdminInvite)
}

func registerPublicRoutes(api huma.API, resolver *tenancy.Resolver) {
	v1.RegisterTenancyRoutes(api, resolver)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, invites *invite.Service) {
	v1.RegisterTenantRoutes(api, store.Tenants())
	v1.RegisterInviteRoutes(api, invites)
}

func registerEventRoutes(r chi.Router, events EventSubscriber) {
	h := newEventsHandler(events)
	r.Get("/schools/{schoolID}/events", h.provisioning)
}
