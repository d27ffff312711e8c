package handler

import (
	"context"
	"image"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/campusworks/facemark/internal/api/middleware"
	"github.com/campusworks/facemark/internal/domain"
	"github.com/campusworks/facemark/internal/imaging"
	"github.com/campusworks/facemark/internal/service"
)

// FaceLoginService interface for the face attendance endpoint
type FaceLoginService interface {
	Login(ctx context.Context, img image.Image, ip string) (*service.FaceLoginResult, error)
}

// AttendanceService interface for manual marks, summaries and export
type AttendanceService interface {
	MarkManually(ctx context.Context, externalID string, status domain.AttendanceStatus, teacherID uuid.UUID) (domain.MarkOutcome, error)
	Summary(ctx context.Context, externalID string) ([]domain.PeriodSummary, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

// AttendanceHandler handles attendance marking and reporting
type AttendanceHandler struct {
	faceLogin  FaceLoginService
	attendance AttendanceService
	logger     *slog.Logger
}

func NewAttendanceHandler(faceLogin FaceLoginService, attendance AttendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{faceLogin: faceLogin, attendance: attendance, logger: logger}
}

type FaceLoginRequest struct {
	Image string `json:"image"`
}

type FaceLoginResponse struct {
	Student       *domain.Student          `json:"student"`
	Score         float64                  `json:"score"`
	Record        *domain.AttendanceRecord `json:"record"`
	AlreadyMarked bool                     `json:"already_marked"`
}

// FaceLogin POST /v1/attendance/face - identify a student from a photo
// and mark today's attendance
func (h *AttendanceHandler) FaceLogin(c *fiber.Ctx) error {
	var req FaceLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if strings.TrimSpace(req.Image) == "" {
		return domain.ErrValidationFailed
	}

	img, err := imaging.DecodeDataURL(req.Image)
	if err != nil {
		return err
	}

	result, err := h.faceLogin.Login(c.Context(), img, c.IP())
	if err != nil {
		return err
	}

	return c.JSON(FaceLoginResponse{
		Student:       result.Student,
		Score:         result.Score,
		Record:        result.Record,
		AlreadyMarked: result.AlreadyMarked,
	})
}

type ManualMarkRequest struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
}

type MarkResponse struct {
	Record        *domain.AttendanceRecord `json:"record"`
	AlreadyMarked bool                     `json:"already_marked"`
}

// ManualMark POST /v1/attendance/manual - a teacher marks a student by ID
func (h *AttendanceHandler) ManualMark(c *fiber.Ctx) error {
	teacherID, err := middleware.GetTeacherID(c)
	if err != nil {
		return err
	}

	var req ManualMarkRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if strings.TrimSpace(req.StudentID) == "" {
		return domain.ErrValidationFailed
	}

	outcome, err := h.attendance.MarkManually(c.Context(), req.StudentID, domain.AttendanceStatus(req.Status), teacherID)
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if outcome.AlreadyMarked {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(MarkResponse{
		Record:        outcome.Record,
		AlreadyMarked: outcome.AlreadyMarked,
	})
}

// Summary GET /v1/students/:student_id/summary - monthly attendance percentages
func (h *AttendanceHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.attendance.Summary(c.Context(), c.Params("student_id"))
	if err != nil {
		return err
	}
	if summary == nil {
		summary = []domain.PeriodSummary{}
	}
	return c.JSON(fiber.Map{"summary": summary})
}

// Export GET /v1/attendance/export - full attendance history as CSV
func (h *AttendanceHandler) Export(c *fiber.Ctx) error {
	filename := "attendance-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)

	return h.attendance.ExportCSV(c.Context(), c.Response().BodyWriter())
}
