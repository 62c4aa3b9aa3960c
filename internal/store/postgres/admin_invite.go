package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nt8816/bibliotecai-core/internal/domain"
)

type AdminInviteRepo struct {
	pool *pgxpool.Pool
}

func NewAdminInviteRepo(pool *pgxpool.Pool) *AdminInviteRepo {
	return &AdminInviteRepo{pool: pool}
}

func (r *AdminInviteRepo) Create(ctx context.Context, inv *domain.AdminInvite) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO convites_gestor (id, token, escola_id, subdominio, expira_em, ativo, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.Token, inv.SchoolID, inv.Subdomain, inv.ExpiresAt, inv.Active, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("adminInviteRepo.Create: %w", err)
	}

	return nil
}

// LookupContext resolves the invite through the privileged SQL function
// rather than reading the table directly; validity is enforced inside it.
func (r *AdminInviteRepo) LookupContext(ctx context.Context, token string) (*domain.AdminInviteContext, error) {
	var ictx domain.AdminInviteContext

	err := r.pool.QueryRow(ctx,
		`SELECT escola_id, subdominio FROM get_tenant_invite_context($1)`,
		token,
	).Scan(&ictx.SchoolID, &ictx.Subdomain)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adminInviteRepo.LookupContext: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("adminInviteRepo.LookupContext: %w", err)
	}

	return &ictx, nil
}

// Consume stamps the consumption columns, guarded by token match and the
// row not yet being consumed so two racing redemptions cannot both win.
func (r *AdminInviteRepo) Consume(ctx context.Context, token string, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE convites_gestor SET usado_por = $1, usado_em = now()
		 WHERE token = $2 AND usado_em IS NULL`,
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("adminInviteRepo.Consume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("adminInviteRepo.Consume: %w", domain.ErrNotFound)
	}

	return nil
}
