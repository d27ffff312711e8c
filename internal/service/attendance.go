package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/campusworks/facemark/internal/audit"
	"github.com/campusworks/facemark/internal/domain"
)

type StudentRepositoryInterface interface {
	Create(ctx context.Context, student *domain.Student) error
	GetByStudentID(ctx context.Context, studentID string) (*domain.Student, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Student, error)
	Update(ctx context.Context, student *domain.Student) error
	List(ctx context.Context) ([]domain.Student, error)
}

type AttendanceLedgerInterface interface {
	Insert(ctx context.Context, rec *domain.AttendanceRecord) error
	GetByStudentAndDate(ctx context.Context, studentID uuid.UUID, date time.Time) (*domain.AttendanceRecord, error)
	Summarize(ctx context.Context, studentID uuid.UUID) ([]domain.PeriodSummary, error)
	ExportAll(ctx context.Context) ([]domain.ExportRow, error)
}

// AttendanceService owns the marking semantics: at most one record per
// (student, date), with losing concurrent writers converging on the
// same AlreadyMarked outcome the winner's record produces.
type AttendanceService struct {
	students StudentRepositoryInterface
	ledger   AttendanceLedgerInterface
	auditLog audit.Logger
	now      func() time.Time
}

func NewAttendanceService(students StudentRepositoryInterface, ledger AttendanceLedgerInterface) *AttendanceService {
	return &AttendanceService{
		students: students,
		ledger:   ledger,
		auditLog: &audit.NoOpLogger{},
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *AttendanceService) WithClock(now func() time.Time) *AttendanceService {
	s.now = now
	return s
}

// WithAudit routes manual-mark and export events to the given audit log.
func (s *AttendanceService) WithAudit(logger audit.Logger) *AttendanceService {
	s.auditLog = logger
	return s
}

// Mark records attendance for today. The check-then-insert races with
// other writers; a lost race is retried once and then reported as
// AlreadyMarked, never as an error.
func (s *AttendanceService) Mark(ctx context.Context, studentID uuid.UUID, status domain.AttendanceStatus, method domain.AttendanceMethod, markedBy *uuid.UUID) (domain.MarkOutcome, error) {
	if !status.Valid() {
		return domain.MarkOutcome{}, domain.ErrValidationFailed.WithError(fmt.Errorf("unknown status %q", status))
	}

	date := domain.DateOf(s.now())

	existing, err := s.ledger.GetByStudentAndDate(ctx, studentID, date)
	if err != nil {
		return domain.MarkOutcome{}, err
	}
	if existing != nil {
		return domain.MarkOutcome{Record: existing, AlreadyMarked: true}, nil
	}

	rec := &domain.AttendanceRecord{
		StudentID: studentID,
		Date:      date,
		Status:    status,
		Method:    method,
		MarkedBy:  markedBy,
	}

	err = s.ledger.Insert(ctx, rec)
	if err == nil {
		return domain.MarkOutcome{Record: rec}, nil
	}
	if !errors.Is(err, domain.ErrStorageConflict) {
		return domain.MarkOutcome{}, err
	}

	// A concurrent writer won the unique constraint. Their record is
	// the authoritative one for the day.
	winner, err := s.ledger.GetByStudentAndDate(ctx, studentID, date)
	if err != nil {
		return domain.MarkOutcome{}, err
	}
	if winner != nil {
		return domain.MarkOutcome{Record: winner, AlreadyMarked: true}, nil
	}

	// Conflict but no visible record: retry the insert once before
	// giving up.
	rec.ID = uuid.Nil
	err = s.ledger.Insert(ctx, rec)
	if err == nil {
		return domain.MarkOutcome{Record: rec}, nil
	}
	if errors.Is(err, domain.ErrStorageConflict) {
		winner, err := s.ledger.GetByStudentAndDate(ctx, studentID, date)
		if err != nil {
			return domain.MarkOutcome{}, err
		}
		if winner != nil {
			return domain.MarkOutcome{Record: winner, AlreadyMarked: true}, nil
		}
		// The day is taken even though the winning record is not yet
		// visible to us. Converge on AlreadyMarked rather than surface
		// a transient conflict to the caller.
		return domain.MarkOutcome{AlreadyMarked: true}, nil
	}
	return domain.MarkOutcome{}, err
}

// MarkManually resolves the external student id and records a
// teacher-entered mark.
func (s *AttendanceService) MarkManually(ctx context.Context, externalID string, status domain.AttendanceStatus, teacherID uuid.UUID) (domain.MarkOutcome, error) {
	student, err := s.students.GetByStudentID(ctx, externalID)
	if err != nil {
		return domain.MarkOutcome{}, err
	}

	outcome, err := s.Mark(ctx, student.ID, status, domain.MethodManual, &teacherID)
	if err != nil {
		return domain.MarkOutcome{}, err
	}

	_ = s.auditLog.Log(ctx, audit.Event{
		EventType: audit.EventAttendanceMarked,
		StudentID: student.StudentID,
		TeacherID: teacherID.String(),
		Success:   true,
		Metadata: map[string]string{
			"status":         string(status),
			"already_marked": fmt.Sprintf("%t", outcome.AlreadyMarked),
		},
	})
	return outcome, nil
}

// Summary returns the per-month Present percentage for a student,
// oldest month first. Months with no records are omitted.
func (s *AttendanceService) Summary(ctx context.Context, externalID string) ([]domain.PeriodSummary, error) {
	student, err := s.students.GetByStudentID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return s.ledger.Summarize(ctx, student.ID)
}

// ExportCSV streams every attendance record as CSV. Row order is
// stable (date, student_id, created_at), so two exports with no
// intervening writes are byte-identical.
func (s *AttendanceService) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.ledger.ExportAll(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"student_id", "student_name", "date", "status", "method"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.StudentID,
			row.StudentName,
			row.Date.Format("2006-01-02"),
			string(row.Status),
			string(row.Method),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	_ = s.auditLog.Log(ctx, audit.Event{
		EventType: audit.EventAttendanceExport,
		Success:   true,
		Metadata:  map[string]string{"rows": fmt.Sprintf("%d", len(rows))},
	})
	return nil
}
