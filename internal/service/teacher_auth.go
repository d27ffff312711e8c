package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/campusworks/facemark/internal/auth"
	"github.com/campusworks/facemark/internal/domain"
)

type TeacherRepositoryInterface interface {
	GetByEmail(ctx context.Context, email string) (*domain.Teacher, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Teacher, error)
}

// TeacherAuthService handles email/password login for teachers.
type TeacherAuthService struct {
	teachers TeacherRepositoryInterface
	jwt      *auth.JWTService
}

func NewTeacherAuthService(teachers TeacherRepositoryInterface, jwt *auth.JWTService) *TeacherAuthService {
	return &TeacherAuthService{teachers: teachers, jwt: jwt}
}

// Login verifies credentials and issues a session token. An unknown
// email and a wrong password produce the same error.
func (s *TeacherAuthService) Login(ctx context.Context, email, password string) (string, *domain.Teacher, error) {
	teacher, err := s.teachers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrTeacherNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !auth.CheckPassword(teacher.PasswordHash, password) {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(teacher.ID, teacher.Email, teacher.Role)
	if err != nil {
		return "", nil, domain.ErrInternal.WithError(err)
	}

	return token, teacher, nil
}
