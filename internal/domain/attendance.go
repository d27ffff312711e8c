package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus is the recorded state for a day.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusAbsent  AttendanceStatus = "Absent"
	StatusLate    AttendanceStatus = "Late"
)

// Valid reports whether the status is one of the known values.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// AttendanceMethod records how a mark was produced.
type AttendanceMethod string

const (
	MethodFace   AttendanceMethod = "Face"
	MethodManual AttendanceMethod = "Manual"
)

// AttendanceRecord is one (student, date) attendance entry. At most one
// record may exist per pair; records are append-only within a day.
type AttendanceRecord struct {
	ID        uuid.UUID        `json:"id"`
	StudentID uuid.UUID        `json:"student_id"`
	Date      time.Time        `json:"date"`
	Status    AttendanceStatus `json:"status"`
	Method    AttendanceMethod `json:"method"`
	MarkedBy  *uuid.UUID       `json:"marked_by,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// MarkOutcome is the result of a mark attempt. AlreadyMarked is an
// idempotent outcome, not an error: the record for the pair exists and
// no change was made.
type MarkOutcome struct {
	Record        *AttendanceRecord `json:"record,omitempty"`
	AlreadyMarked bool              `json:"already_marked"`
}

// PeriodSummary is one row of a per-student attendance summary: the
// percentage of Present records within a calendar month. Months with no
// records at all are never reported.
type PeriodSummary struct {
	Period  string `json:"period"`
	Percent int    `json:"percent"`
}

// ExportRow is one flattened line of the attendance export, joining
// student display fields with record fields.
type ExportRow struct {
	StudentID   string
	StudentName string
	Date        time.Time
	Status      AttendanceStatus
	Method      AttendanceMethod
}

// AccessLogEntry is one face-login attempt, kept for auditing
// regardless of outcome.
type AccessLogEntry struct {
	ID        uuid.UUID  `json:"id"`
	StudentID *uuid.UUID `json:"student_id,omitempty"`
	Outcome   string     `json:"outcome"`
	Score     float64    `json:"score,omitempty"`
	IPAddress string     `json:"ip_address,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// DateOf returns the calendar date of t, normalized to UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
