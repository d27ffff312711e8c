package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Extractor strategy. Chosen once at startup; encodings carry the
	// strategy's space name so stores are never mixed across strategies.
	Extractor   string `envconfig:"EXTRACTOR" default:"histogram"`
	DeepFaceURL string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`

	// MatchThreshold of 0 means "use the extractor's default". The
	// value is metric-dependent and does not transfer between
	// extractor strategies.
	MatchThreshold float64 `envconfig:"MATCH_THRESHOLD" default:"0"`

	// MatchIndexMin is the enrollment count at which face login starts
	// pre-selecting candidates through the HNSW index. 0 disables the
	// index entirely.
	MatchIndexMin int `envconfig:"MATCH_INDEX_MIN" default:"2000"`

	// Sessions
	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"12h"`

	// Startup bootstrap (idempotent; replaces first-request magic)
	BootstrapTeacherEmail    string `envconfig:"BOOTSTRAP_TEACHER_EMAIL" default:"teacher@example.com"`
	BootstrapTeacherName     string `envconfig:"BOOTSTRAP_TEACHER_NAME" default:"Default Teacher"`
	BootstrapTeacherPassword string `envconfig:"BOOTSTRAP_TEACHER_PASSWORD"`
	SeedSampleStudents       bool   `envconfig:"SEED_SAMPLE_STUDENTS" default:"false"`

	// Face login rate limiting (per client IP)
	FaceLoginRateMax    int           `envconfig:"FACE_LOGIN_RATE_MAX" default:"30"`
	FaceLoginRateWindow time.Duration `envconfig:"FACE_LOGIN_RATE_WINDOW" default:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
