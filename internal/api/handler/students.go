package handler

import (
	"context"
	"image"
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campusworks/facemark/internal/domain"
	"github.com/campusworks/facemark/internal/imaging"
	"github.com/campusworks/facemark/internal/service"
)

// EnrollmentService interface for student management
type EnrollmentService interface {
	Enroll(ctx context.Context, student *domain.Student, photo image.Image) (*service.EnrollmentResult, error)
	Update(ctx context.Context, externalID string, apply func(*domain.Student), photo image.Image) (*service.EnrollmentResult, error)
	Get(ctx context.Context, externalID string) (*domain.Student, error)
	List(ctx context.Context) ([]domain.Student, error)
}

// StudentHandler handles student enrollment and management
type StudentHandler struct {
	service EnrollmentService
	logger  *slog.Logger
}

func NewStudentHandler(service EnrollmentService, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{service: service, logger: logger}
}

type StudentResponse struct {
	Student *domain.Student `json:"student"`
	Warning string          `json:"warning,omitempty"`
}

// Create POST /v1/students - register a student, optionally with a face photo
func (h *StudentHandler) Create(c *fiber.Ctx) error {
	student := &domain.Student{
		StudentID: strings.TrimSpace(c.FormValue("student_id")),
		Name:      strings.TrimSpace(c.FormValue("name")),
		Class:     strings.TrimSpace(c.FormValue("class")),
		Email:     strings.TrimSpace(c.FormValue("email")),
		Phone:     strings.TrimSpace(c.FormValue("phone")),
	}

	photo, err := formPhoto(c)
	if err != nil {
		return err
	}

	result, err := h.service.Enroll(c.Context(), student, photo)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(StudentResponse{
		Student: result.Student,
		Warning: result.Warning,
	})
}

// Update PUT /v1/students/:student_id - update display fields and
// optionally replace the face encoding with a new photo
func (h *StudentHandler) Update(c *fiber.Ctx) error {
	externalID := c.Params("student_id")

	photo, err := formPhoto(c)
	if err != nil {
		return err
	}

	result, err := h.service.Update(c.Context(), externalID, func(s *domain.Student) {
		if v := strings.TrimSpace(c.FormValue("name")); v != "" {
			s.Name = v
		}
		if v := strings.TrimSpace(c.FormValue("class")); v != "" {
			s.Class = v
		}
		if v := strings.TrimSpace(c.FormValue("email")); v != "" {
			s.Email = v
		}
		if v := strings.TrimSpace(c.FormValue("phone")); v != "" {
			s.Phone = v
		}
	}, photo)
	if err != nil {
		return err
	}

	return c.JSON(StudentResponse{
		Student: result.Student,
		Warning: result.Warning,
	})
}

// Get GET /v1/students/:student_id
func (h *StudentHandler) Get(c *fiber.Ctx) error {
	student, err := h.service.Get(c.Context(), c.Params("student_id"))
	if err != nil {
		return err
	}
	return c.JSON(StudentResponse{Student: student})
}

// List GET /v1/students
func (h *StudentHandler) List(c *fiber.Ctx) error {
	students, err := h.service.List(c.Context())
	if err != nil {
		return err
	}
	if students == nil {
		students = []domain.Student{}
	}
	return c.JSON(fiber.Map{"students": students})
}

// formPhoto extracts the optional "photo" multipart file. A missing
// file is not an error; a present but undecodable one is.
func formPhoto(c *fiber.Ctx) (image.Image, error) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return nil, nil
	}

	if fileHeader.Size > imaging.MaxImageSize {
		return nil, domain.ErrInvalidImage
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, imaging.MaxImageSize+1))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imaging.Decode(data)
}
