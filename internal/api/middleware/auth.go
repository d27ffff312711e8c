package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/campusworks/facemark/internal/auth"
	"github.com/campusworks/facemark/internal/domain"
)

const (
	// LocalTeacherID is the key to retrieve the authenticated teacher id from context
	LocalTeacherID = "teacher_id"
	// LocalTeacherRole is the key to retrieve the teacher role from context
	LocalTeacherRole = "teacher_role"
)

// TeacherAuthDependencies contains dependencies for teacher authentication
type TeacherAuthDependencies struct {
	JWTService *auth.JWTService
	Logger     *slog.Logger
}

// TeacherAuth validates the Bearer session token issued at login and
// stores the teacher identity in the request context.
func TeacherAuth(deps TeacherAuthDependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			deps.Logger.Debug("missing authorization header")
			return domain.ErrUnauthorized
		}

		claims, err := deps.JWTService.ValidateToken(token)
		if err != nil {
			deps.Logger.Warn("invalid session token", "error", err)
			return domain.ErrUnauthorized
		}

		c.Locals(LocalTeacherID, claims.TeacherID)
		c.Locals(LocalTeacherRole, claims.Role)

		return c.Next()
	}
}

// GetTeacherID returns the authenticated teacher id from the context.
func GetTeacherID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(LocalTeacherID).(uuid.UUID)
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return id, nil
}

func extractBearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
