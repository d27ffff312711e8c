package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campusworks/facemark/internal/domain"
)

type TeacherRepository struct {
	pool PgxPool
}

func NewTeacherRepository(pool PgxPool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

func (r *TeacherRepository) GetByEmail(ctx context.Context, email string) (*domain.Teacher, error) {
	query := `
		SELECT id, email, name, password_hash, role, created_at
		FROM teachers
		WHERE email = $1
	`
	return r.getOne(ctx, query, email)
}

func (r *TeacherRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Teacher, error) {
	query := `
		SELECT id, email, name, password_hash, role, created_at
		FROM teachers
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *TeacherRepository) getOne(ctx context.Context, query string, arg any) (*domain.Teacher, error) {
	var t domain.Teacher
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&t.ID,
		&t.Email,
		&t.Name,
		&t.PasswordHash,
		&t.Role,
		&t.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTeacherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}

	return &t, nil
}

// EnsureDefault creates the teacher if no account with the email
// exists. Idempotent; safe to run on every startup. Returns whether a
// row was created.
func (r *TeacherRepository) EnsureDefault(ctx context.Context, teacher *domain.Teacher) (bool, error) {
	query := `
		INSERT INTO teachers (id, email, name, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (email) DO NOTHING
	`

	if teacher.ID == uuid.Nil {
		teacher.ID = uuid.New()
	}
	if teacher.Role == "" {
		teacher.Role = "teacher"
	}

	tag, err := r.pool.Exec(ctx, query,
		teacher.ID,
		teacher.Email,
		teacher.Name,
		teacher.PasswordHash,
		teacher.Role,
	)
	if err != nil {
		return false, fmt.Errorf("ensure default teacher: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
