package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campusworks/facemark/internal/domain"
)

// TeacherAuthService interface for the login service
type TeacherAuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.Teacher, error)
}

// AuthHandler handles teacher session endpoints
type AuthHandler struct {
	service TeacherAuthService
	logger  *slog.Logger
}

func NewAuthHandler(service TeacherAuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Login POST /v1/auth/login - exchange teacher credentials for a session token
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return domain.ErrValidationFailed.WithError(errors.New("email and password are required"))
	}

	token, teacher, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(LoginResponse{
		Token: token,
		Email: teacher.Email,
		Name:  teacher.Name,
		Role:  teacher.Role,
	})
}
