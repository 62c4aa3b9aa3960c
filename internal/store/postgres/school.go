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

type SchoolRepo struct {
	pool *pgxpool.Pool
}

func NewSchoolRepo(pool *pgxpool.Pool) *SchoolRepo {
	return &SchoolRepo{pool: pool}
}

func (r *SchoolRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.School, error) {
	var s domain.School

	err := r.pool.QueryRow(ctx,
		`SELECT id, nome, gestor_id, created_at, updated_at
		 FROM escolas WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Name, &s.GestorID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("schoolRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("schoolRepo.GetByID: %w", err)
	}

	return &s, nil
}

// ClaimGestor sets the gestor pointer only while it is unset; the IS NULL
// predicate is the whole concurrency control, first writer wins.
func (r *SchoolRepo) ClaimGestor(ctx context.Context, schoolID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE escolas SET gestor_id = $1, updated_at = now()
		 WHERE id = $2 AND gestor_id IS NULL`,
		userID, schoolID,
	)
	if err != nil {
		return false, fmt.Errorf("schoolRepo.ClaimGestor: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
