package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nt8816/bibliotecai-core/internal/domain"
)

type Store struct {
	pool         *pgxpool.Pool
	tenants      *TenantRepo
	invites      *InviteRepo
	adminInvites *AdminInviteRepo
	roles        *RoleRepo
	profiles     *ProfileRepo
	schools      *SchoolRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:         pool,
		tenants:      NewTenantRepo(pool),
		invites:      NewInviteRepo(pool),
		adminInvites: NewAdminInviteRepo(pool),
		roles:        NewRoleRepo(pool),
		profiles:     NewProfileRepo(pool),
		schools:      NewSchoolRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Tenants() domain.TenantRepository           { return s.tenants }
func (s *Store) Invites() domain.InviteRepository           { return s.invites }
func (s *Store) AdminInvites() domain.AdminInviteRepository { return s.adminInvites }
func (s *Store) Roles() domain.RoleRepository               { return s.roles }
func (s *Store) Profiles() domain.ProfileRepository         { return s.profiles }
func (s *Store) Schools() domain.SchoolRepository           { return s.schools }
