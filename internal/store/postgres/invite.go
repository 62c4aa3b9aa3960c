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

type InviteRepo struct {
	pool *pgxpool.Pool
}

func NewInviteRepo(pool *pgxpool.Pool) *InviteRepo {
	return &InviteRepo{pool: pool}
}

func (r *InviteRepo) Create(ctx context.Context, inv *domain.Invite) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO convites (id, token, role_destino, escola_id, expira_em, ativo, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.Token, inv.Role, inv.SchoolID, inv.ExpiresAt, inv.Active, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inviteRepo.Create: %w", err)
	}

	return nil
}

// GetRedeemable matches the full validity predicate in one query so a used,
// inactive or expired token is indistinguishable from a nonexistent one.
func (r *InviteRepo) GetRedeemable(ctx context.Context, token string) (*domain.Invite, error) {
	var inv domain.Invite

	err := r.pool.QueryRow(ctx,
		`SELECT id, token, role_destino, escola_id, expira_em, ativo, usado_por, usado_em, created_at
		 FROM convites
		 WHERE token = $1 AND ativo AND usado_por IS NULL AND expira_em > now()`,
		token,
	).Scan(&inv.ID, &inv.Token, &inv.Role, &inv.SchoolID, &inv.ExpiresAt, &inv.Active, &inv.UsedBy, &inv.UsedAt, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("inviteRepo.GetRedeemable: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("inviteRepo.GetRedeemable: %w", err)
	}

	return &inv, nil
}

// MarkUsed stamps the consumption columns, guarded by the row still being
// unused so only one redemption can win.
func (r *InviteRepo) MarkUsed(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE convites SET usado_por = $1, usado_em = now()
		 WHERE id = $2 AND usado_por IS NULL`,
		userID, id,
	)
	if err != nil {
		return fmt.Errorf("inviteRepo.MarkUsed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inviteRepo.MarkUsed: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *InviteRepo) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*domain.Invite, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, token, role_destino, escola_id, expira_em, ativo, usado_por, usado_em, created_at
		 FROM convites WHERE escola_id = $1 ORDER BY created_at DESC
		 LIMIT 500`,
		schoolID,
	)
	if err != nil {
		return nil, fmt.Errorf("inviteRepo.ListBySchool: %w", err)
	}
	defer rows.Close()

	var invites []*domain.Invite
	for rows.Next() {
		var inv domain.Invite

		err = rows.Scan(&inv.ID, &inv.Token, &inv.Role, &inv.SchoolID, &inv.ExpiresAt, &inv.Active, &inv.UsedBy, &inv.UsedAt, &inv.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("inviteRepo.ListBySchool: scan: %w", err)
		}

		invites = append(invites, &inv)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("inviteRepo.ListBySchool: rows: %w", err)
	}

	return invites, nil
}
