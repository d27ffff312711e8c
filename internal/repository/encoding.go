package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/campusworks/facemark/internal/domain"
)

// EncodingStore persists face encodings in Postgres with a pgvector
// column. One row per student; a re-enrollment replaces the row
// wholesale, never partially.
type EncodingStore struct {
	pool PgxPool
}

func NewEncodingStore(pool PgxPool) *EncodingStore {
	return &EncodingStore{pool: pool}
}

// Put upserts the encoding for a student. The store holds vectors from
// exactly one extractor space; a write from a different space is
// rejected before touching any row.
func (s *EncodingStore) Put(ctx context.Context, enc *domain.FaceEncoding) error {
	if len(enc.Embedding) == 0 {
		return domain.ErrValidationFailed.WithError(errors.New("empty embedding"))
	}

	var mismatch bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM face_encodings WHERE space <> $1)`,
		enc.Space,
	).Scan(&mismatch)
	if err != nil {
		return fmt.Errorf("check encoding space: %w", err)
	}
	if mismatch {
		return domain.ErrSpaceMismatch
	}

	query := `
		INSERT INTO face_encodings (student_id, space, embedding, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (student_id) DO UPDATE
		SET space = EXCLUDED.space, embedding = EXCLUDED.embedding, updated_at = NOW()
		RETURNING updated_at
	`

	vec := pgvector.NewVector(enc.Embedding)
	if err := s.pool.QueryRow(ctx, query, enc.StudentID, enc.Space, vec).Scan(&enc.UpdatedAt); err != nil {
		return fmt.Errorf("put encoding: %w", err)
	}

	return nil
}

func (s *EncodingStore) Get(ctx context.Context, studentID uuid.UUID) (*domain.FaceEncoding, error) {
	query := `
		SELECT student_id, space, embedding, updated_at
		FROM face_encodings
		WHERE student_id = $1
	`

	var enc domain.FaceEncoding
	var vec pgvector.Vector

	err := s.pool.QueryRow(ctx, query, studentID).Scan(
		&enc.StudentID,
		&enc.Space,
		&vec,
		&enc.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEncodingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get encoding: %w", err)
	}

	enc.Embedding = vec.Slice()
	return &enc, nil
}

// All returns a point-in-time snapshot of every encoding in the given
// space. The single SELECT gives a consistent view: no identity can
// appear with a torn vector.
func (s *EncodingStore) All(ctx context.Context, space string) ([]domain.FaceEncoding, error) {
	query := `
		SELECT student_id, space, embedding, updated_at
		FROM face_encodings
		WHERE space = $1
		ORDER BY student_id
	`

	rows, err := s.pool.Query(ctx, query, space)
	if err != nil {
		return nil, fmt.Errorf("list encodings: %w", err)
	}
	defer rows.Close()

	var encodings []domain.FaceEncoding
	for rows.Next() {
		var enc domain.FaceEncoding
		var vec pgvector.Vector
		if err := rows.Scan(&enc.StudentID, &enc.Space, &vec, &enc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan encoding: %w", err)
		}
		enc.Embedding = vec.Slice()
		encodings = append(encodings, enc)
	}

	return encodings, rows.Err()
}
