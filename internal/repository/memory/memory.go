// Package memory provides in-memory implementations of the encoding
// store and attendance ledger. They back unit tests and local
// development without a database, and carry the same conflict
// semantics as the Postgres implementations.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusworks/facemark/internal/domain"
)

type EncodingStore struct {
	mu    sync.RWMutex
	space string
	byID  map[uuid.UUID]domain.FaceEncoding
}

func NewEncodingStore() *EncodingStore {
	return &EncodingStore{byID: make(map[uuid.UUID]domain.FaceEncoding)}
}

func (s *EncodingStore) Put(ctx context.Context, enc *domain.FaceEncoding) error {
	if len(enc.Embedding) == 0 {
		return domain.ErrValidationFailed.WithError(errors.New("empty embedding"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.space != "" && s.space != enc.Space {
		return domain.ErrSpaceMismatch
	}
	s.space = enc.Space

	stored := *enc
	stored.Embedding = append([]float32(nil), enc.Embedding...)
	stored.UpdatedAt = time.Now()
	s.byID[enc.StudentID] = stored
	enc.UpdatedAt = stored.UpdatedAt

	return nil
}

func (s *EncodingStore) Get(ctx context.Context, studentID uuid.UUID) (*domain.FaceEncoding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enc, ok := s.byID[studentID]
	if !ok {
		return nil, domain.ErrEncodingNotFound
	}

	out := enc
	out.Embedding = append([]float32(nil), enc.Embedding...)
	return &out, nil
}

// All returns a snapshot copy taken under the read lock; callers can
// match against it without holding up writers.
func (s *EncodingStore) All(ctx context.Context, space string) ([]domain.FaceEncoding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.FaceEncoding
	for _, enc := range s.byID {
		if enc.Space != space {
			continue
		}
		c := enc
		c.Embedding = append([]float32(nil), enc.Embedding...)
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].StudentID.String() < out[j].StudentID.String()
	})
	return out, nil
}

type ledgerKey struct {
	studentID uuid.UUID
	date      time.Time
}

type studentInfo struct {
	externalID string
	name       string
}

// AttendanceLedger keeps records in a map keyed by (student, date).
// The mutex makes check-then-insert linearizable, mirroring what the
// unique constraint gives the Postgres ledger.
type AttendanceLedger struct {
	mu       sync.Mutex
	records  map[ledgerKey]domain.AttendanceRecord
	students map[uuid.UUID]studentInfo
}

func NewAttendanceLedger() *AttendanceLedger {
	return &AttendanceLedger{
		records:  make(map[ledgerKey]domain.AttendanceRecord),
		students: make(map[uuid.UUID]studentInfo),
	}
}

// SetStudent registers display fields used by ExportAll.
func (l *AttendanceLedger) SetStudent(id uuid.UUID, externalID, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.students[id] = studentInfo{externalID: externalID, name: name}
}

func (l *AttendanceLedger) Insert(ctx context.Context, rec *domain.AttendanceRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ledgerKey{studentID: rec.StudentID, date: domain.DateOf(rec.Date)}
	if _, exists := l.records[key]; exists {
		return domain.ErrStorageConflict
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()

	stored := *rec
	stored.Date = key.date
	l.records[key] = stored

	return nil
}

func (l *AttendanceLedger) GetByStudentAndDate(ctx context.Context, studentID uuid.UUID, date time.Time) (*domain.AttendanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[ledgerKey{studentID: studentID, date: domain.DateOf(date)}]
	if !ok {
		return nil, nil
	}

	out := rec
	return &out, nil
}

func (l *AttendanceLedger) Summarize(ctx context.Context, studentID uuid.UUID) ([]domain.PeriodSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	type tally struct{ present, total int }
	months := make(map[string]*tally)

	for key, rec := range l.records {
		if key.studentID != studentID {
			continue
		}
		period := key.date.Format("2006-01")
		t, ok := months[period]
		if !ok {
			t = &tally{}
			months[period] = t
		}
		t.total++
		if rec.Status == domain.StatusPresent {
			t.present++
		}
	}

	periods := make([]string, 0, len(months))
	for p := range months {
		periods = append(periods, p)
	}
	sort.Strings(periods)

	out := make([]domain.PeriodSummary, 0, len(periods))
	for _, p := range periods {
		t := months[p]
		out = append(out, domain.PeriodSummary{
			Period:  p,
			Percent: t.present * 100 / t.total,
		})
	}
	return out, nil
}

func (l *AttendanceLedger) ExportAll(ctx context.Context) ([]domain.ExportRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	type keyedRow struct {
		row       domain.ExportRow
		createdAt time.Time
	}

	rows := make([]keyedRow, 0, len(l.records))
	for key, rec := range l.records {
		info, ok := l.students[key.studentID]
		if !ok {
			return nil, fmt.Errorf("export: unknown student %s", key.studentID)
		}
		rows = append(rows, keyedRow{
			row: domain.ExportRow{
				StudentID:   info.externalID,
				StudentName: info.name,
				Date:        key.date,
				Status:      rec.Status,
				Method:      rec.Method,
			},
			createdAt: rec.CreatedAt,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.row.Date.Equal(b.row.Date) {
			return a.row.Date.Before(b.row.Date)
		}
		if a.row.StudentID != b.row.StudentID {
			return a.row.StudentID < b.row.StudentID
		}
		return a.createdAt.Before(b.createdAt)
	})

	out := make([]domain.ExportRow, len(rows))
	for i, r := range rows {
		out[i] = r.row
	}
	return out, nil
}
