package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campusworks/facemark/internal/domain"
)

type StudentRepository struct {
	pool PgxPool
}

func NewStudentRepository(pool PgxPool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = `
	s.id, s.student_id, s.name, s.class, s.email, s.phone,
	EXISTS(SELECT 1 FROM face_encodings e WHERE e.student_id = s.id),
	s.created_at, s.updated_at`

func (r *StudentRepository) Create(ctx context.Context, student *domain.Student) error {
	query := `
		INSERT INTO students (id, student_id, name, class, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		student.ID,
		student.StudentID,
		student.Name,
		student.Class,
		student.Email,
		student.Phone,
	).Scan(&student.CreatedAt, &student.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrStudentExists
		}
		return fmt.Errorf("create student: %w", err)
	}

	return nil
}

func (r *StudentRepository) GetByStudentID(ctx context.Context, studentID string) (*domain.Student, error) {
	query := `SELECT` + studentColumns + `
		FROM students s
		WHERE s.student_id = $1
	`
	return r.getOne(ctx, query, studentID)
}

func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	query := `SELECT` + studentColumns + `
		FROM students s
		WHERE s.id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *StudentRepository) getOne(ctx context.Context, query string, arg any) (*domain.Student, error) {
	var s domain.Student
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&s.ID,
		&s.StudentID,
		&s.Name,
		&s.Class,
		&s.Email,
		&s.Phone,
		&s.Enrolled,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}

	return &s, nil
}

// Update mutates display fields only; the external student_id is
// immutable after enrollment.
func (r *StudentRepository) Update(ctx context.Context, student *domain.Student) error {
	query := `
		UPDATE students
		SET name = $2, class = $3, email = $4, phone = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		student.ID,
		student.Name,
		student.Class,
		student.Email,
		student.Phone,
	).Scan(&student.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrStudentNotFound
	}
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}

	return nil
}

func (r *StudentRepository) List(ctx context.Context) ([]domain.Student, error) {
	query := `SELECT` + studentColumns + `
		FROM students s
		ORDER BY s.name, s.student_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		var s domain.Student
		if err := rows.Scan(
			&s.ID,
			&s.StudentID,
			&s.Name,
			&s.Class,
			&s.Email,
			&s.Phone,
			&s.Enrolled,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}

	return students, rows.Err()
}
