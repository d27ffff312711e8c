package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusworks/facemark/internal/api/handler"
	"github.com/campusworks/facemark/internal/api/middleware"
	"github.com/campusworks/facemark/internal/audit"
	"github.com/campusworks/facemark/internal/auth"
	"github.com/campusworks/facemark/internal/config"
	"github.com/campusworks/facemark/internal/extractor"
	"github.com/campusworks/facemark/internal/face"
	"github.com/campusworks/facemark/internal/matcher"
	"github.com/campusworks/facemark/internal/repository"
	"github.com/campusworks/facemark/internal/service"
)

type Dependencies struct {
	StudentRepo *repository.StudentRepository
	Encodings   *repository.EncodingStore
	Ledger      *repository.AttendanceLedger
	TeacherRepo *repository.TeacherRepository
	AccessLogs  *repository.AccessLogRepository
	Extractor   extractor.Extractor
	AuditLog    audit.Logger
	Config      *config.Config
	DB          *pgxpool.Pool
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Facemark API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check endpoints (no auth required)
	var pinger handler.Pinger
	if r.deps != nil && r.deps.DB != nil {
		pinger = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(pinger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	cfg := r.deps.Config
	v1 := r.app.Group("/v1")

	// Matching: threshold 0 defers to the extractor space default.
	space := r.deps.Extractor.Space()
	m := matcher.New(space.Metric, face.Threshold(cfg, space))

	// Services
	attendanceService := service.NewAttendanceService(r.deps.StudentRepo, r.deps.Ledger).
		WithAudit(r.deps.AuditLog)
	enrollmentService := service.NewEnrollmentService(r.deps.StudentRepo, r.deps.Encodings, r.deps.Extractor, r.deps.AuditLog)
	faceLoginService := service.NewFaceLoginService(
		r.deps.Extractor,
		r.deps.Encodings,
		r.deps.StudentRepo,
		attendanceService,
		r.deps.AccessLogs,
		r.deps.AuditLog,
		m,
		cfg.MatchIndexMin,
	)

	jwtService := auth.NewJWTService(cfg.JWTSecret, "facemark-api", cfg.SessionTTL)
	teacherAuthService := service.NewTeacherAuthService(r.deps.TeacherRepo, jwtService)

	// Handlers
	authHandler := handler.NewAuthHandler(teacherAuthService, r.logger)
	studentHandler := handler.NewStudentHandler(enrollmentService, r.logger)
	attendanceHandler := handler.NewAttendanceHandler(faceLoginService, attendanceService, r.logger)

	// Teacher session middleware
	teacherAuth := middleware.TeacherAuth(middleware.TeacherAuthDependencies{
		JWTService: jwtService,
		Logger:     r.logger,
	})

	// Face login is unauthenticated and rate limited per client IP.
	r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max:    cfg.FaceLoginRateMax,
		Window: cfg.FaceLoginRateWindow,
	})
	v1.Post("/attendance/face", r.rateLimiter.Handler(), attendanceHandler.FaceLogin)

	// Teacher auth
	v1.Post("/auth/login", authHandler.Login)

	// Student management (teacher session required)
	v1.Post("/students", teacherAuth, studentHandler.Create)
	v1.Get("/students", teacherAuth, studentHandler.List)
	v1.Get("/students/:student_id", teacherAuth, studentHandler.Get)
	v1.Put("/students/:student_id", teacherAuth, studentHandler.Update)
	v1.Get("/students/:student_id/summary", teacherAuth, attendanceHandler.Summary)

	// Attendance management (teacher session required)
	v1.Post("/attendance/manual", teacherAuth, attendanceHandler.ManualMark)
	v1.Get("/attendance/export", teacherAuth, attendanceHandler.Export)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

// ShutdownWithContext stops the rate limiter and drains in-flight
// requests until the context expires, then forces the close.
func (r *Router) ShutdownWithContext(ctx context.Context) error {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
	return r.app.ShutdownWithContext(ctx)
}
