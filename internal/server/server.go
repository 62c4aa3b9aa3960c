package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/nt8816/bibliotecai-core/internal/config"
	"github.com/nt8816/bibliotecai-core/internal/invite"
	"github.com/nt8816/bibliotecai-core/internal/server/middleware"
	"github.com/nt8816/bibliotecai-core/internal/store/postgres"
	"github.com/nt8816/bibliotecai-core/internal/tenancy"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      *postgres.Store
	invites    *invite.Service
	resolver   *tenancy.Resolver
	cfg        *config.Config
}

// New creates a Server with all routes wired.
func New(ctx context.Context, cfg *config.Config, store *postgres.Store, resolver *tenancy.Resolver, invites *invite.Service, events EventSubscriber) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(corsMiddleware(cfg.Server.CORSOrigins))
	router.Use(middleware.ResolveTenant(resolver))

	s := &Server{
		router:   router,
		store:    store,
		invites:  invites,
		resolver: resolver,
		cfg:      cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Invite redemption functions: unauthenticated by design (the caller has
	// no account yet), so they are rate limited per IP.
	router.Route("/functions/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, 1, 10))
		registerFunctionRoutes(r, invites)
	})

	// Mount API routes on /api/v1 with two sub-groups:
	// 1. Unauthenticated group for tenancy resolution.
	// 2. Authenticated group for invite management.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			pubConfig := huma.DefaultConfig("BibliotecAI Public API", "1.0.0")
			pubConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			pubAPI := humachi.New(r, pubConfig)
			registerPublicRoutes(pubAPI, resolver)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			r.Use(middleware.RequireStaff())
			r.Use(middleware.RateLimitBySchool(ctx, 100, 200))

			apiConfig := huma.DefaultConfig("BibliotecAI API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerAPIRoutes(api, store, invites)

			// Provisioning-event stream, outside huma: SSE needs the raw
			// ResponseWriter.
			registerEventRoutes(r, events)
		})
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// corsMiddleware builds the permissive CORS layer. Preflight answers with a
// bare 200, which the redemption forms expect. Credentials stay disabled:
// the wildcard origin and Allow-Credentials are mutually exclusive in
// browsers, and every caller authenticates via the Authorization header.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:       []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:       []string{"X-Request-ID"},
		OptionsSuccessStatus: http.StatusOK,
		MaxAge:               300,
	}).Handler
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
