package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/geocoder89/contacts/internal/observability"
	"github.com/joho/godotenv"
)

type Config struct {
	Env   string `env:"APP_ENV" envDefault:"dev"`
	Port  int    `env:"PORT" envDefault:"8080"`
	Store string `env:"STORE" envDefault:"postgres"`

	DBURL      string `env:"DATABASE_URL"`
	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"contacts"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"contacts"`
	DBName     string `env:"DB_NAME" envDefault:"contacts"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`

	LogLevel string `env:"LOG_LEVEL"`

	JWTSecret string `env:"JWT_SECRET"`
	BaseURL   string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	AvatarsDir     string `env:"AVATARS_DIR" envDefault:"public/avatars"`
	UploadTmpDir   string `env:"UPLOAD_TMP_DIR" envDefault:"tmp"`
	AvatarSize     int    `env:"AVATAR_SIZE" envDefault:"250"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`

	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"contacts"`

	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFrom       string `env:"MAIL_FROM" envDefault:"no-reply@contacts.local"`

	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`

	CORSOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	AuthRateLimit  int           `env:"AUTH_RATE_LIMIT" envDefault:"20"`
	AuthRateWindow time.Duration `env:"AUTH_RATE_WINDOW" envDefault:"1m"`
	MaxBodyBytes   int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	WorkerConcurrency int `env:"WORKER_CONCURRENCY" envDefault:"4"`
	WorkerHealthPort  int `env:"WORKER_HEALTH_PORT" envDefault:"8081"`
	WorkerMaxAttempts int `env:"WORKER_MAX_ATTEMPTS" envDefault:"5"`
}

const devSecret = "dev-only-secret-change-me"

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = cfg.buildDBURL()
	}

	if cfg.JWTSecret == "" {
		if cfg.Env != "dev" {
			return Config{}, errors.New("JWT_SECRET is required")
		}
		cfg.JWTSecret = devSecret
	}

	if cfg.OTelSampleRatio < 0 || cfg.OTelSampleRatio > 1 {
		return Config{}, fmt.Errorf("OTEL_SAMPLE_RATIO must be within [0,1], got %v", cfg.OTelSampleRatio)
	}

	if cfg.Store != "postgres" && cfg.Store != "memory" {
		return Config{}, fmt.Errorf("STORE must be postgres or memory, got %q", cfg.Store)
	}

	return cfg, nil
}

func (c Config) buildDBURL() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) Tracing(service string) observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.OTelEnabled,
		ServiceName: service,
		Env:         c.Env,
		Endpoint:    c.OTelEndpoint,
		SampleRatio: c.OTelSampleRatio,
	}
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
