package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/campusworks/facemark/internal/domain"
)

type AccessLogRepository struct {
	pool PgxPool
}

func NewAccessLogRepository(pool PgxPool) *AccessLogRepository {
	return &AccessLogRepository{pool: pool}
}

func (r *AccessLogRepository) Create(ctx context.Context, entry *domain.AccessLogEntry) error {
	query := `
		INSERT INTO access_logs (id, student_id, outcome, score, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.StudentID,
		entry.Outcome,
		entry.Score,
		entry.IPAddress,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create access log: %w", err)
	}

	return nil
}
