package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nt8816/bibliotecai-core/internal/domain"
)

type RoleRepo struct {
	pool *pgxpool.Pool
}

func NewRoleRepo(pool *pgxpool.Pool) *RoleRepo {
	return &RoleRepo{pool: pool}
}

// DeleteOthers removes every role row for the user except keep. Zero rows
// affected is the normal case, not an error.
func (r *RoleRepo) DeleteOthers(ctx context.Context, userID uuid.UUID, keep domain.Role) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role <> $2`,
		userID, keep,
	)
	if err != nil {
		return fmt.Errorf("roleRepo.DeleteOthers: %w", err)
	}

	return nil
}

// Upsert inserts the pair, relying on the (user_id, role) uniqueness to make
// a repeat a no-op.
func (r *RoleRepo) Upsert(ctx context.Context, userID uuid.UUID, role domain.Role) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id, role) DO NOTHING`,
		userID, role,
	)
	if err != nil {
		return fmt.Errorf("roleRepo.Upsert: %w", err)
	}

	return nil
}

func (r *RoleRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.RoleAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, role, created_at FROM user_roles WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("roleRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	var assignments []*domain.RoleAssignment
	for rows.Next() {
		var a domain.RoleAssignment

		err = rows.Scan(&a.UserID, &a.Role, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("roleRepo.ListByUser: scan: %w", err)
		}

		assignments = append(assignments, &a)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("roleRepo.ListByUser: rows: %w", err)
	}

	return assignments, nil
}
