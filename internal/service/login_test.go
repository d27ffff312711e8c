package service

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/facemark/internal/audit"
	"github.com/campusworks/facemark/internal/domain"
	"github.com/campusworks/facemark/internal/extractor"
	"github.com/campusworks/facemark/internal/matcher"
)

var testSpace = extractor.Space{
	Name:             "histogram-rgb8",
	Dim:              3,
	Metric:           matcher.MetricCosine,
	DefaultThreshold: 0.85,
}

func testPhoto() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func newFaceLoginService(
	ext *MockExtractor,
	encodings *MockEncodingStore,
	students *MockStudentRepository,
	ledger *MockAttendanceLedger,
	accessLogs *MockAccessLogRepository,
	indexMin int,
) *FaceLoginService {
	attendance := NewAttendanceService(students, ledger).
		WithClock(fixedClock(time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)))
	m := matcher.New(testSpace.Metric, testSpace.DefaultThreshold)
	return NewFaceLoginService(ext, encodings, students, attendance, accessLogs, &audit.NoOpLogger{}, m, indexMin)
}

func TestFaceLoginService_Login_MatchMarksPresent(t *testing.T) {
	studentID := uuid.New()
	otherID := uuid.New()

	ext := new(MockExtractor)
	ext.On("Space").Return(testSpace)
	ext.On("Extract", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)

	encodings := new(MockEncodingStore)
	encodings.On("All", mock.Anything, "histogram-rgb8").Return([]domain.FaceEncoding{
		{StudentID: studentID, Space: "histogram-rgb8", Embedding: []float32{1, 0, 0}},
		{StudentID: otherID, Space: "histogram-rgb8", Embedding: []float32{0, 1, 0}},
	}, nil)

	students := new(MockStudentRepository)
	students.On("GetByID", mock.Anything, studentID).
		Return(&domain.Student{ID: studentID, StudentID: "S1001", Name: "Alice Wong"}, nil)

	ledger := new(MockAttendanceLedger)
	ledger.On("GetByStudentAndDate", mock.Anything, studentID, mock.Anything).Return(nil, nil)
	ledger.On("Insert", mock.Anything, mock.MatchedBy(func(rec *domain.AttendanceRecord) bool {
		return rec.Status == domain.StatusPresent && rec.Method == domain.MethodFace && rec.MarkedBy == nil
	})).Return(nil)

	accessLogs := new(MockAccessLogRepository)
	accessLogs.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.AccessLogEntry) bool {
		return e.Outcome == "matched" && e.StudentID != nil && *e.StudentID == studentID
	})).Return(nil)

	svc := newFaceLoginService(ext, encodings, students, ledger, accessLogs, 0)
	result, err := svc.Login(context.Background(), testPhoto(), "10.0.0.5")

	require.NoError(t, err)
	assert.Equal(t, "S1001", result.Student.StudentID)
	assert.False(t, result.AlreadyMarked)
	assert.InDelta(t, 1.0, result.Score, 0.001)
	ledger.AssertExpectations(t)
	accessLogs.AssertExpectations(t)
}

func TestFaceLoginService_Login_SecondLoginSameDay(t *testing.T) {
	studentID := uuid.New()
	existing := &domain.AttendanceRecord{
		ID:        uuid.New(),
		StudentID: studentID,
		Date:      time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Status:    domain.StatusPresent,
		Method:    domain.MethodFace,
	}

	ext := new(MockExtractor)
	ext.On("Space").Return(testSpace)
	ext.On("Extract", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)

	encodings := new(MockEncodingStore)
	encodings.On("All", mock.Anything, "histogram-rgb8").Return([]domain.FaceEncoding{
		{StudentID: studentID, Space: "histogram-rgb8", Embedding: []float32{1, 0, 0}},
	}, nil)

	students := new(MockStudentRepository)
	students.On("GetByID", mock.Anything, studentID).
		Return(&domain.Student{ID: studentID, StudentID: "S1001"}, nil)

	ledger := new(MockAttendanceLedger)
	ledger.On("GetByStudentAndDate", mock.Anything, studentID, mock.Anything).Return(existing, nil)

	accessLogs := new(MockAccessLogRepository)
	accessLogs.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := newFaceLoginService(ext, encodings, students, ledger, accessLogs, 0)
	result, err := svc.Login(context.Background(), testPhoto(), "")

	require.NoError(t, err)
	assert.True(t, result.AlreadyMarked)
	assert.Equal(t, existing.ID, result.Record.ID)
	ledger.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestFaceLoginService_Login_NoMatch(t *testing.T) {
	ext := new(MockExtractor)
	ext.On("Space").Return(testSpace)
	ext.On("Extract", mock.Anything, mock.Anything).Return([]float32{0, 0, 1}, nil)

	encodings := new(MockEncodingStore)
	encodings.On("All", mock.Anything, "histogram-rgb8").Return([]domain.FaceEncoding{
		{StudentID: uuid.New(), Space: "histogram-rgb8", Embedding: []float32{1, 0, 0}},
	}, nil)

	accessLogs := new(MockAccessLogRepository)
	accessLogs.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.AccessLogEntry) bool {
		return e.Outcome == "no_match" && e.StudentID == nil
	})).Return(nil)

	svc := newFaceLoginService(ext, encodings, new(MockStudentRepository), new(MockAttendanceLedger), accessLogs, 0)
	_, err := svc.Login(context.Background(), testPhoto(), "10.0.0.5")

	assert.ErrorIs(t, err, domain.ErrNoMatch)
	accessLogs.AssertExpectations(t)
}

func TestFaceLoginService_Login_EmptyStore(t *testing.T) {
	ext := new(MockExtractor)
	ext.On("Space").Return(testSpace)
	ext.On("Extract", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)

	encodings := new(MockEncodingStore)
	encodings.On("All", mock.Anything, "histogram-rgb8").Return([]domain.FaceEncoding{}, nil)

	accessLogs := new(MockAccessLogRepository)
	accessLogs.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := newFaceLoginService(ext, encodings, new(MockStudentRepository), new(MockAttendanceLedger), accessLogs, 0)
	_, err := svc.Login(context.Background(), testPhoto(), "")

	assert.ErrorIs(t, err, domain.ErrNoMatch)
}

func TestFaceLoginService_Login_NoFaceDetected(t *testing.T) {
	ext := new(MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Return(nil, domain.ErrNoFaceDetected)

	svc := newFaceLoginService(ext, new(MockEncodingStore), new(MockStudentRepository), new(MockAttendanceLedger), new(MockAccessLogRepository), 0)
	_, err := svc.Login(context.Background(), testPhoto(), "")

	assert.ErrorIs(t, err, domain.ErrNoFaceDetected)
}

func TestFaceLoginService_Login_AccessLogFailureDoesNotFailLogin(t *testing.T) {
	studentID := uuid.New()

	ext := new(MockExtractor)
	ext.On("Space").Return(testSpace)
	ext.On("Extract", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)

	encodings := new(MockEncodingStore)
	encodings.On("All", mock.Anything, "histogram-rgb8").Return([]domain.FaceEncoding{
		{StudentID: studentID, Space: "histogram-rgb8", Embedding: []float32{1, 0, 0}},
	}, nil)

	students := new(MockStudentRepository)
	students.On("GetByID", mock.Anything, studentID).
		Return(&domain.Student{ID: studentID, StudentID: "S1001"}, nil)

	ledger := new(MockAttendanceLedger)
	ledger.On("GetByStudentAndDate", mock.Anything, studentID, mock.Anything).Return(nil, nil)
	ledger.On("Insert", mock.Anything, mock.Anything).Return(nil)

	accessLogs := new(MockAccessLogRepository)
	accessLogs.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	svc := newFaceLoginService(ext, encodings, students, ledger, accessLogs, 0)
	result, err := svc.Login(context.Background(), testPhoto(), "")

	require.NoError(t, err)
	assert.Equal(t, "S1001", result.Student.StudentID)
}

func TestFaceLoginService_Login_UsesIndexAboveCutover(t *testing.T) {
	// With indexMin of 2 and two enrollments, login must go through the
	// index path and still land on the exact nearest student.
	target := uuid.New()
	other := uuid.New()

	ext := new(MockExtractor)
	ext.On("Space").Return(testSpace)
	ext.On("Extract", mock.Anything, mock.Anything).Return([]float32{0.9, 0.1, 0}, nil)

	encodings := new(MockEncodingStore)
	encodings.On("All", mock.Anything, "histogram-rgb8").Return([]domain.FaceEncoding{
		{StudentID: target, Space: "histogram-rgb8", Embedding: []float32{1, 0, 0}},
		{StudentID: other, Space: "histogram-rgb8", Embedding: []float32{0, 1, 0}},
	}, nil)

	students := new(MockStudentRepository)
	students.On("GetByID", mock.Anything, target).
		Return(&domain.Student{ID: target, StudentID: "S1001"}, nil)

	ledger := new(MockAttendanceLedger)
	ledger.On("GetByStudentAndDate", mock.Anything, target, mock.Anything).Return(nil, nil)
	ledger.On("Insert", mock.Anything, mock.Anything).Return(nil)

	accessLogs := new(MockAccessLogRepository)
	accessLogs.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := newFaceLoginService(ext, encodings, students, ledger, accessLogs, 2)

	result, err := svc.Login(context.Background(), testPhoto(), "")
	require.NoError(t, err)
	assert.Equal(t, "S1001", result.Student.StudentID)

	// Second login reuses the cached index.
	ledger2 := new(MockAttendanceLedger)
	existing := &domain.AttendanceRecord{ID: uuid.New(), StudentID: target, Status: domain.StatusPresent}
	ledger2.On("GetByStudentAndDate", mock.Anything, target, mock.Anything).Return(existing, nil)
	svc.attendance = NewAttendanceService(students, ledger2).
		WithClock(fixedClock(time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)))

	result, err = svc.Login(context.Background(), testPhoto(), "")
	require.NoError(t, err)
	assert.True(t, result.AlreadyMarked)
}

func TestFaceLoginService_Login_IndexRefreshesOnReEnrollment(t *testing.T) {
	// Re-enrolling replaces a vector in place, so the candidate count
	// stays the same. The cached index must still pick up the newer
	// encoding, keyed off its updated timestamp.
	target := uuid.New()
	other := uuid.New()

	t0 := time.Date(2026, 3, 9, 7, 0, 0, 0, time.UTC)
	before := []domain.FaceEncoding{
		{StudentID: target, Space: "histogram-rgb8", Embedding: []float32{0, 1, 0}, UpdatedAt: t0},
		{StudentID: other, Space: "histogram-rgb8", Embedding: []float32{0, 0, 1}, UpdatedAt: t0},
	}
	after := []domain.FaceEncoding{
		{StudentID: target, Space: "histogram-rgb8", Embedding: []float32{1, 0, 0}, UpdatedAt: t0.Add(time.Hour)},
		{StudentID: other, Space: "histogram-rgb8", Embedding: []float32{0, 0, 1}, UpdatedAt: t0},
	}

	ext := new(MockExtractor)
	ext.On("Space").Return(testSpace)
	ext.On("Extract", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)

	encodings := new(MockEncodingStore)
	encodings.On("All", mock.Anything, "histogram-rgb8").Return(before, nil).Once()
	encodings.On("All", mock.Anything, "histogram-rgb8").Return(after, nil)

	students := new(MockStudentRepository)
	students.On("GetByID", mock.Anything, target).
		Return(&domain.Student{ID: target, StudentID: "S1001"}, nil)

	ledger := new(MockAttendanceLedger)
	ledger.On("GetByStudentAndDate", mock.Anything, target, mock.Anything).Return(nil, nil)
	ledger.On("Insert", mock.Anything, mock.Anything).Return(nil)

	accessLogs := new(MockAccessLogRepository)
	accessLogs.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := newFaceLoginService(ext, encodings, students, ledger, accessLogs, 2)

	// First login builds the index over the old vectors; the probe
	// matches nobody yet.
	_, err := svc.Login(context.Background(), testPhoto(), "")
	assert.ErrorIs(t, err, domain.ErrNoMatch)

	// After re-enrollment the same probe matches the replaced vector.
	result, err := svc.Login(context.Background(), testPhoto(), "")
	require.NoError(t, err)
	assert.Equal(t, "S1001", result.Student.StudentID)
}
