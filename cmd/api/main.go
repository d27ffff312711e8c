package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusworks/facemark/internal/api"
	"github.com/campusworks/facemark/internal/audit"
	"github.com/campusworks/facemark/internal/config"
	"github.com/campusworks/facemark/internal/database"
	"github.com/campusworks/facemark/internal/face"
	"github.com/campusworks/facemark/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Facemark API",
		slog.String("environment", cfg.Environment),
		slog.String("extractor", cfg.Extractor),
		slog.Int("port", cfg.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database pool
	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Repositories
	studentRepo := repository.NewStudentRepository(pool)
	encodingStore := repository.NewEncodingStore(pool)
	ledger := repository.NewAttendanceLedger(pool)
	teacherRepo := repository.NewTeacherRepository(pool)
	accessLogRepo := repository.NewAccessLogRepository(pool)

	// Startup bootstrap: default teacher and optional sample data
	if err := database.Bootstrap(ctx, cfg, teacherRepo, studentRepo, logger); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	// Feature extractor, chosen once for the process lifetime
	ext, err := face.NewExtractor(cfg)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		StudentRepo: studentRepo,
		Encodings:   encodingStore,
		Ledger:      ledger,
		TeacherRepo: teacherRepo,
		AccessLogs:  accessLogRepo,
		Extractor:   ext,
		AuditLog:    audit.NewSlogLogger(logger),
		Config:      cfg,
		DB:          pool,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}
	logger.Info("server stopped")

	return nil
}
