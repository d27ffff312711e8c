package database

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/campusworks/facemark/internal/auth"
	"github.com/campusworks/facemark/internal/config"
	"github.com/campusworks/facemark/internal/domain"
	"github.com/campusworks/facemark/internal/repository"
)

// Bootstrap runs the idempotent startup provisioning: the default
// teacher account and, when enabled, a handful of sample students for
// development. Safe to run on every start.
func Bootstrap(ctx context.Context, cfg *config.Config, teachers *repository.TeacherRepository, students *repository.StudentRepository, logger *slog.Logger) error {
	if err := ensureDefaultTeacher(ctx, cfg, teachers, logger); err != nil {
		return err
	}

	if cfg.SeedSampleStudents {
		if err := seedSampleStudents(ctx, students, logger); err != nil {
			return err
		}
	}

	return nil
}

func ensureDefaultTeacher(ctx context.Context, cfg *config.Config, teachers *repository.TeacherRepository, logger *slog.Logger) error {
	password := cfg.BootstrapTeacherPassword
	generated := false
	if password == "" {
		var err error
		password, err = randomPassword()
		if err != nil {
			return fmt.Errorf("generate bootstrap password: %w", err)
		}
		generated = true
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	created, err := teachers.EnsureDefault(ctx, &domain.Teacher{
		Email:        cfg.BootstrapTeacherEmail,
		Name:         cfg.BootstrapTeacherName,
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}

	if created {
		if generated {
			// Printed once at first boot; there is no other way to
			// recover a generated credential.
			logger.Warn("created default teacher with generated password",
				slog.String("email", cfg.BootstrapTeacherEmail),
				slog.String("password", password),
			)
		} else {
			logger.Info("created default teacher",
				slog.String("email", cfg.BootstrapTeacherEmail),
			)
		}
	}

	return nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func seedSampleStudents(ctx context.Context, students *repository.StudentRepository, logger *slog.Logger) error {
	samples := []domain.Student{
		{StudentID: "S101", Name: "Ali Khan", Class: "CSE-2"},
		{StudentID: "S102", Name: "Meera Sharma", Class: "CSE-2"},
		{StudentID: "S103", Name: "Rohit Verma", Class: "CSE-2"},
	}

	for i := range samples {
		err := students.Create(ctx, &samples[i])
		if errors.Is(err, domain.ErrStudentExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed sample student %s: %w", samples[i].StudentID, err)
		}
		logger.Info("seeded sample student", slog.String("student_id", samples[i].StudentID))
	}

	return nil
}
