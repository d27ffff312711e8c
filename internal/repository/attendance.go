package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campusworks/facemark/internal/domain"
)

// AttendanceLedger persists attendance records. The unique constraint
// on (student_id, date) is the storage-level backstop for the
// one-record-per-student-per-day invariant; the service layer's
// check-then-insert rides on it.
type AttendanceLedger struct {
	pool PgxPool
}

func NewAttendanceLedger(pool PgxPool) *AttendanceLedger {
	return &AttendanceLedger{pool: pool}
}

// Insert writes a new record. A unique violation means another writer
// created the (student, date) record first and surfaces as
// domain.ErrStorageConflict.
func (l *AttendanceLedger) Insert(ctx context.Context, rec *domain.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records (id, student_id, date, status, method, marked_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	err := l.pool.QueryRow(ctx, query,
		rec.ID,
		rec.StudentID,
		rec.Date,
		rec.Status,
		rec.Method,
		rec.MarkedBy,
	).Scan(&rec.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrStorageConflict
		}
		return fmt.Errorf("insert attendance record: %w", err)
	}

	return nil
}

// GetByStudentAndDate returns the record for the pair, or nil when none
// exists (absence of a record is not an error here).
func (l *AttendanceLedger) GetByStudentAndDate(ctx context.Context, studentID uuid.UUID, date time.Time) (*domain.AttendanceRecord, error) {
	query := `
		SELECT id, student_id, date, status, method, marked_by, created_at
		FROM attendance_records
		WHERE student_id = $1 AND date = $2
	`

	var rec domain.AttendanceRecord
	err := l.pool.QueryRow(ctx, query, studentID, date).Scan(
		&rec.ID,
		&rec.StudentID,
		&rec.Date,
		&rec.Status,
		&rec.Method,
		&rec.MarkedBy,
		&rec.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance record: %w", err)
	}

	return &rec, nil
}

// Summarize computes the per-month Present percentage using integer
// division. Months with zero records produce no row at all.
func (l *AttendanceLedger) Summarize(ctx context.Context, studentID uuid.UUID) ([]domain.PeriodSummary, error) {
	query := `
		SELECT to_char(date, 'YYYY-MM') AS period,
		       (COUNT(*) FILTER (WHERE status = 'Present') * 100 / COUNT(*))::int AS percent
		FROM attendance_records
		WHERE student_id = $1
		GROUP BY 1
		ORDER BY 1
	`

	rows, err := l.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("summarize attendance: %w", err)
	}
	defer rows.Close()

	var summaries []domain.PeriodSummary
	for rows.Next() {
		var s domain.PeriodSummary
		if err := rows.Scan(&s.Period, &s.Percent); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// ExportAll returns every record joined with student display fields in
// a stable order, so repeated exports with no intervening writes are
// byte-identical.
func (l *AttendanceLedger) ExportAll(ctx context.Context) ([]domain.ExportRow, error) {
	query := `
		SELECT s.student_id, s.name, a.date, a.status, a.method
		FROM attendance_records a
		JOIN students s ON s.id = a.student_id
		ORDER BY a.date, s.student_id, a.created_at
	`

	rows, err := l.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("export attendance: %w", err)
	}
	defer rows.Close()

	var out []domain.ExportRow
	for rows.Next() {
		var r domain.ExportRow
		if err := rows.Scan(&r.StudentID, &r.StudentName, &r.Date, &r.Status, &r.Method); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}
