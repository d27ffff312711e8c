package service

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusworks/facemark/internal/audit"
	"github.com/campusworks/facemark/internal/domain"
	"github.com/campusworks/facemark/internal/extractor"
	"github.com/campusworks/facemark/internal/matcher"
)

type EncodingStoreInterface interface {
	Put(ctx context.Context, enc *domain.FaceEncoding) error
	Get(ctx context.Context, studentID uuid.UUID) (*domain.FaceEncoding, error)
	All(ctx context.Context, space string) ([]domain.FaceEncoding, error)
}

type AccessLogRepositoryInterface interface {
	Create(ctx context.Context, entry *domain.AccessLogEntry) error
}

// FaceLoginResult is a successful identification plus the attendance
// outcome it produced.
type FaceLoginResult struct {
	Student       *domain.Student
	Score         float64
	Record        *domain.AttendanceRecord
	AlreadyMarked bool
}

// FaceLoginService identifies a student from a face photo and marks
// today's attendance. Matching runs against a snapshot of the encoding
// store; enrollments that land mid-request are picked up next login.
type FaceLoginService struct {
	extractor  extractor.Extractor
	encodings  EncodingStoreInterface
	students   StudentRepositoryInterface
	attendance *AttendanceService
	accessLogs AccessLogRepositoryInterface
	auditLog   audit.Logger
	matcher    *matcher.Matcher

	// indexMin is the enrollment count at which login pre-selects
	// candidates through the HNSW index. 0 disables the index.
	indexMin int

	mu        sync.Mutex
	index     *matcher.Index
	indexed   int
	indexedAt time.Time
}

func NewFaceLoginService(
	ext extractor.Extractor,
	encodings EncodingStoreInterface,
	students StudentRepositoryInterface,
	attendance *AttendanceService,
	accessLogs AccessLogRepositoryInterface,
	auditLog audit.Logger,
	m *matcher.Matcher,
	indexMin int,
) *FaceLoginService {
	return &FaceLoginService{
		extractor:  ext,
		encodings:  encodings,
		students:   students,
		attendance: attendance,
		accessLogs: accessLogs,
		auditLog:   auditLog,
		matcher:    m,
		indexMin:   indexMin,
	}
}

// Login extracts a probe vector from the photo, matches it against all
// enrolled encodings and marks the matched student Present for today.
func (s *FaceLoginService) Login(ctx context.Context, img image.Image, ip string) (*FaceLoginResult, error) {
	probe, err := s.extractor.Extract(ctx, img)
	if err != nil {
		return nil, err
	}

	space := s.extractor.Space()
	encs, err := s.encodings.All(ctx, space.Name)
	if err != nil {
		return nil, err
	}

	candidates := make([]matcher.Candidate, len(encs))
	var latest time.Time
	for i, enc := range encs {
		candidates[i] = matcher.Candidate{StudentID: enc.StudentID, Embedding: enc.Embedding}
		if enc.UpdatedAt.After(latest) {
			latest = enc.UpdatedAt
		}
	}

	var match matcher.Match
	var ok bool
	if s.indexMin > 0 && len(candidates) >= s.indexMin {
		match, ok = s.matcher.MatchIndexed(probe, s.candidateIndex(candidates, latest))
	} else {
		match, ok = s.matcher.Match(probe, candidates)
	}

	if !ok {
		s.logAttempt(ctx, &domain.AccessLogEntry{Outcome: "no_match", IPAddress: ip})
		_ = s.auditLog.Log(ctx, audit.Event{
			EventType: audit.EventFaceLoginRejected,
			Extractor: space.Name,
			Success:   false,
			Error:     "no qualifying match",
			IPAddress: ip,
		})
		return nil, domain.ErrNoMatch
	}

	student, err := s.students.GetByID(ctx, match.StudentID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.attendance.Mark(ctx, student.ID, domain.StatusPresent, domain.MethodFace, nil)
	if err != nil {
		return nil, err
	}

	s.logAttempt(ctx, &domain.AccessLogEntry{
		StudentID: &student.ID,
		Outcome:   "matched",
		Score:     match.Score,
		IPAddress: ip,
	})
	_ = s.auditLog.Log(ctx, audit.Event{
		EventType: audit.EventFaceLoginMatched,
		StudentID: student.StudentID,
		Extractor: space.Name,
		Success:   true,
		IPAddress: ip,
	})

	return &FaceLoginResult{
		Student:       student,
		Score:         match.Score,
		Record:        outcome.Record,
		AlreadyMarked: outcome.AlreadyMarked,
	}, nil
}

// candidateIndex returns the cached pre-selection index, rebuilding it
// when the snapshot moved: a changed count or a newer encoding
// timestamp both invalidate it, so re-enrollments that replace a
// vector in place are picked up too. The index only narrows the
// candidate set; exact rescoring inside the matcher keeps the
// threshold and tie rules authoritative.
func (s *FaceLoginService) candidateIndex(candidates []matcher.Candidate, latest time.Time) *matcher.Index {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil || s.indexed != len(candidates) || !s.indexedAt.Equal(latest) {
		s.index = matcher.NewIndex(s.matcher.Metric(), candidates)
		s.indexed = len(candidates)
		s.indexedAt = latest
	}
	return s.index
}

// logAttempt records the attempt. The login outcome is already
// determined at this point; a failed log write does not change it.
func (s *FaceLoginService) logAttempt(ctx context.Context, entry *domain.AccessLogEntry) {
	_ = s.accessLogs.Create(ctx, entry)
}
