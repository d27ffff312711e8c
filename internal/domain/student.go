package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Student is an enrolled person. StudentID is the externally assigned
// identifier (roll number) and is immutable after enrollment; Name and
// Class may change.
type Student struct {
	ID        uuid.UUID `json:"id"`
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	Class     string    `json:"class,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Enrolled  bool      `json:"face_enrolled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields required at enrollment time.
func (s *Student) Validate() error {
	if strings.TrimSpace(s.StudentID) == "" {
		return ErrValidationFailed.WithError(errMissingField("student_id"))
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrValidationFailed.WithError(errMissingField("name"))
	}
	return nil
}

// Teacher is a staff account allowed to manage students and issue
// manual attendance marks.
type Teacher struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// FaceEncoding is the stored feature vector for one student. A student
// has at most one active encoding; re-enrollment replaces it wholesale.
// Space names the extractor vector space the embedding lives in;
// embeddings from different spaces are never comparable.
type FaceEncoding struct {
	StudentID uuid.UUID `json:"student_id"`
	Space     string    `json:"space"`
	Embedding []float32 `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}
