package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/campusworks/facemark/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repositories use. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// StudentRepositoryInterface defines operations for student data access
type StudentRepositoryInterface interface {
	Create(ctx context.Context, student *domain.Student) error
	GetByStudentID(ctx context.Context, studentID string) (*domain.Student, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Student, error)
	Update(ctx context.Context, student *domain.Student) error
	List(ctx context.Context) ([]domain.Student, error)
}

// EncodingStoreInterface owns the student -> face encoding mapping
type EncodingStoreInterface interface {
	Put(ctx context.Context, enc *domain.FaceEncoding) error
	Get(ctx context.Context, studentID uuid.UUID) (*domain.FaceEncoding, error)
	All(ctx context.Context, space string) ([]domain.FaceEncoding, error)
}

// AttendanceLedgerInterface owns attendance records. Insert returns
// domain.ErrStorageConflict when a concurrent writer won the
// (student, date) unique constraint.
type AttendanceLedgerInterface interface {
	Insert(ctx context.Context, rec *domain.AttendanceRecord) error
	GetByStudentAndDate(ctx context.Context, studentID uuid.UUID, date time.Time) (*domain.AttendanceRecord, error)
	Summarize(ctx context.Context, studentID uuid.UUID) ([]domain.PeriodSummary, error)
	ExportAll(ctx context.Context) ([]domain.ExportRow, error)
}

// TeacherRepositoryInterface defines operations for teacher accounts
type TeacherRepositoryInterface interface {
	GetByEmail(ctx context.Context, email string) (*domain.Teacher, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Teacher, error)
	EnsureDefault(ctx context.Context, teacher *domain.Teacher) (bool, error)
}

// AccessLogRepositoryInterface records face-login attempts
type AccessLogRepositoryInterface interface {
	Create(ctx context.Context, entry *domain.AccessLogEntry) error
}
