package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by Code, so a sentinel carrying a wrapped cause
// (WithError) still satisfies errors.Is against the bare sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

func errMissingField(name string) error {
	return fmt.Errorf("%s is required", name)
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing credentials",
		StatusCode: 401,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Email or password is incorrect",
		StatusCode: 401,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	// ErrInvalidImage covers malformed or corrupt image bytes; it is a
	// client-input error, distinct from a valid image with no face.
	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	// ErrNoMatch means a face was extracted but no enrolled student is
	// within the match threshold. Callers surface this differently from
	// NO_FACE_DETECTED ("face not recognized" vs "retake photo").
	ErrNoMatch = &AppError{
		Code:       "NO_MATCH",
		Message:    "Face not recognized",
		StatusCode: 404,
	}

	ErrStudentNotFound = &AppError{
		Code:       "STUDENT_NOT_FOUND",
		Message:    "Student not found",
		StatusCode: 404,
	}

	ErrStudentExists = &AppError{
		Code:       "STUDENT_ALREADY_EXISTS",
		Message:    "Student already registered with this student_id",
		StatusCode: 409,
	}

	ErrEncodingNotFound = &AppError{
		Code:       "ENCODING_NOT_FOUND",
		Message:    "No face encoding stored for this student",
		StatusCode: 404,
	}

	// ErrSpaceMismatch guards against mixing vectors from different
	// extractor strategies in one store. Vectors from different spaces
	// have different semantics and thresholds and must never be compared.
	ErrSpaceMismatch = &AppError{
		Code:       "ENCODING_SPACE_MISMATCH",
		Message:    "Stored encodings use a different extractor space",
		StatusCode: 409,
	}

	ErrTeacherNotFound = &AppError{
		Code:       "TEACHER_NOT_FOUND",
		Message:    "Teacher not found",
		StatusCode: 404,
	}

	// ErrStorageConflict signals concurrent-write contention during a
	// mark. The ledger retries the check-then-insert once before
	// treating the loss as AlreadyMarked.
	ErrStorageConflict = &AppError{
		Code:       "STORAGE_CONFLICT",
		Message:    "Concurrent write conflict",
		StatusCode: 409,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}
)
