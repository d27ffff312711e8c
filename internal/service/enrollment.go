package service

import (
	"context"
	"errors"
	"image"
	"strconv"

	"github.com/campusworks/facemark/internal/audit"
	"github.com/campusworks/facemark/internal/domain"
	"github.com/campusworks/facemark/internal/extractor"
)

// EnrollmentResult reports a student creation. FaceEnrolled is false
// when the photo held no extractable face; the student record still
// exists and can be re-enrolled later with a better photo.
type EnrollmentResult struct {
	Student      *domain.Student
	FaceEnrolled bool
	Warning      string
}

// EnrollmentService manages student records and their face encodings.
type EnrollmentService struct {
	students  StudentRepositoryInterface
	encodings EncodingStoreInterface
	extractor extractor.Extractor
	auditLog  audit.Logger
}

func NewEnrollmentService(
	students StudentRepositoryInterface,
	encodings EncodingStoreInterface,
	ext extractor.Extractor,
	auditLog audit.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		students:  students,
		encodings: encodings,
		extractor: ext,
		auditLog:  auditLog,
	}
}

// Enroll creates the student and, when a photo is given, stores their
// face encoding. A photo without a detectable face downgrades to a
// warning: the student exists, only the encoding is missing.
func (s *EnrollmentService) Enroll(ctx context.Context, student *domain.Student, photo image.Image) (*EnrollmentResult, error) {
	if err := student.Validate(); err != nil {
		return nil, err
	}

	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}

	result := &EnrollmentResult{Student: student}

	if photo != nil {
		err := s.putEncoding(ctx, student, photo)
		switch {
		case err == nil:
			result.FaceEnrolled = true
			student.Enrolled = true
		case errors.Is(err, domain.ErrNoFaceDetected):
			result.Warning = "no face detected in photo; student created without face encoding"
		default:
			return nil, err
		}
	}

	_ = s.auditLog.Log(ctx, audit.Event{
		EventType: audit.EventStudentEnrolled,
		StudentID: student.StudentID,
		Extractor: s.extractor.Space().Name,
		Success:   true,
		Metadata:  map[string]string{"face_enrolled": strconv.FormatBool(result.FaceEnrolled)},
	})

	return result, nil
}

// Update changes display fields and, when a photo is given, replaces
// the stored encoding wholesale.
func (s *EnrollmentService) Update(ctx context.Context, externalID string, apply func(*domain.Student), photo image.Image) (*EnrollmentResult, error) {
	student, err := s.students.GetByStudentID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	apply(student)
	if err := student.Validate(); err != nil {
		return nil, err
	}
	if err := s.students.Update(ctx, student); err != nil {
		return nil, err
	}

	result := &EnrollmentResult{Student: student, FaceEnrolled: student.Enrolled}

	if photo != nil {
		err := s.putEncoding(ctx, student, photo)
		switch {
		case err == nil:
			result.FaceEnrolled = true
			student.Enrolled = true
		case errors.Is(err, domain.ErrNoFaceDetected):
			result.Warning = "no face detected in photo; existing encoding left unchanged"
		default:
			return nil, err
		}
	}

	_ = s.auditLog.Log(ctx, audit.Event{
		EventType: audit.EventStudentUpdated,
		StudentID: student.StudentID,
		Success:   true,
	})

	return result, nil
}

func (s *EnrollmentService) Get(ctx context.Context, externalID string) (*domain.Student, error) {
	return s.students.GetByStudentID(ctx, externalID)
}

func (s *EnrollmentService) List(ctx context.Context) ([]domain.Student, error) {
	return s.students.List(ctx)
}

func (s *EnrollmentService) putEncoding(ctx context.Context, student *domain.Student, photo image.Image) error {
	vec, err := s.extractor.Extract(ctx, photo)
	if err != nil {
		return err
	}

	return s.encodings.Put(ctx, &domain.FaceEncoding{
		StudentID: student.ID,
		Space:     s.extractor.Space().Name,
		Embedding: vec,
	})
}
