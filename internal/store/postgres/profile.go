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

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO usuarios_biblioteca (id, user_id, nome, email, tipo, escola_id, matricula, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.Name, nilIfEmpty(p.Email), p.Type, p.SchoolID, nilIfEmpty(p.Matricula),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("profileRepo.Create: %w", err)
	}

	return nil
}

// GetByUserID returns the first profile bound to the identity. user_id
// carries no uniqueness constraint; callers rely on look-up-before-write to
// keep it effectively unique.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	var email, matricula *string

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, nome, email, tipo, escola_id, matricula, created_at, updated_at
		 FROM usuarios_biblioteca WHERE user_id = $1
		 ORDER BY created_at LIMIT 1`,
		userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &email, &p.Type, &p.SchoolID, &matricula, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profileRepo.GetByUserID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("profileRepo.GetByUserID: %w", err)
	}

	p.Email = derefStr(email)
	p.Matricula = derefStr(matricula)

	return &p, nil
}

func (r *ProfileRepo) GetByMatricula(ctx context.Context, schoolID uuid.UUID, matricula string) (*domain.Profile, error) {
	var p domain.Profile
	var email, dbMatricula *string

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, nome, email, tipo, escola_id, matricula, created_at, updated_at
		 FROM usuarios_biblioteca WHERE escola_id = $1 AND matricula = $2
		 ORDER BY created_at LIMIT 1`,
		schoolID, matricula,
	).Scan(&p.ID, &p.UserID, &p.Name, &email, &p.Type, &p.SchoolID, &dbMatricula, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profileRepo.GetByMatricula: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("profileRepo.GetByMatricula: %w", err)
	}

	p.Email = derefStr(email)
	p.Matricula = derefStr(dbMatricula)

	return &p, nil
}

func (r *ProfileRepo) Update(ctx context.Context, p *domain.Profile) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE usuarios_biblioteca
		 SET user_id = $1, nome = $2, email = $3, tipo = $4, escola_id = $5, matricula = $6, updated_at = now()
		 WHERE id = $7`,
		p.UserID, p.Name, nilIfEmpty(p.Email), p.Type, p.SchoolID, nilIfEmpty(p.Matricula), p.ID,
	)
	if err != nil {
		return fmt.Errorf("profileRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profileRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

// BindUser attaches an identity to a roster profile, guarded by the profile
// still being unbound. A rejected guard means another redemption won the
// race for this matricula.
func (r *ProfileRepo) BindUser(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE usuarios_biblioteca SET user_id = $1, updated_at = now()
		 WHERE id = $2 AND user_id IS NULL`,
		userID, id,
	)
	if err != nil {
		return fmt.Errorf("profileRepo.BindUser: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profileRepo.BindUser: %w", domain.ErrConflict)
	}

	return nil
}

// --- Helpers ---

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
