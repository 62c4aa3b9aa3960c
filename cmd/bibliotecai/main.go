package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nt8816/bibliotecai-core/internal/config"
	"github.com/nt8816/bibliotecai-core/internal/identity"
	"github.com/nt8816/bibliotecai-core/internal/invite"
	"github.com/nt8816/bibliotecai-core/internal/server"
	"github.com/nt8816/bibliotecai-core/internal/store/postgres"
	redisstore "github.com/nt8816/bibliotecai-core/internal/store/redis"
	"github.com/nt8816/bibliotecai-core/internal/tenancy"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("BIBLIOTECAI_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("BIBLIOTECAI_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis for provisioning-event fanout.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	// External identity provider client.
	idp := identity.New(cfg.Identity.BaseURL, cfg.Identity.AnonKey, cfg.Identity.ServiceKey, cfg.Identity.Timeout)

	// Tenant resolution from host names.
	classifier := tenancy.Classifier{
		BaseDomain:  cfg.Tenancy.BaseDomain,
		PreviewHost: cfg.Tenancy.PreviewHost,
	}
	resolver := tenancy.NewResolver(classifier, store.Tenants())

	// Invite issuance and redemption.
	invites := invite.NewService(
		store.Invites(),
		store.AdminInvites(),
		store.Roles(),
		store.Profiles(),
		store.Schools(),
		idp,
		pubsub,
	)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, resolver, invites, pubsub)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
