package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// NATS (optional, events are dropped when empty)
	NATSURL string

	// JWT
	JWTSecret string

	// Marketplace
	CommissionRate     float64
	PendingRequestTTL  time.Duration
	AcceptedRequestTTL time.Duration
	SendRequestLimit   int
	WorkerCount        int

	// Bootstrap admin
	AdminEmail    string
	AdminPassword string

	// SMTP
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Logging and tracing
	LogFile      string
	LogLevel     string
	OTELEnabled  bool
	OTELEndpoint string

	// Frontend
	FrontendURL string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Env:                getEnvOrDefault("ENV", "development"),
		DatabaseURL:        mustGetEnv("DATABASE_URL"),
		RedisURL:           mustGetEnv("REDIS_URL"),
		NATSURL:            getEnvOrDefault("NATS_URL", ""),
		JWTSecret:          mustGetEnv("JWT_SECRET"),
		CommissionRate:     getEnvAsFloatOrDefault("COMMISSION_RATE", 0.25),
		PendingRequestTTL:  getEnvAsDurationOrDefault("PENDING_REQUEST_TTL", 15*time.Minute),
		AcceptedRequestTTL: getEnvAsDurationOrDefault("ACCEPTED_REQUEST_TTL", 10*time.Minute),
		SendRequestLimit:   getEnvAsIntOrDefault("SEND_REQUEST_LIMIT", 5),
		WorkerCount:        getEnvAsIntOrDefault("WORKER_COUNT", 3),
		AdminEmail:         getEnvOrDefault("ADMIN_EMAIL", ""),
		AdminPassword:      getEnvOrDefault("ADMIN_PASSWORD", ""),
		SMTPHost:           getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:           getEnvAsIntOrDefault("SMTP_PORT", 587),
		SMTPUser:           getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:           getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:           getEnvOrDefault("SMTP_FROM", "noreply@psychicline.app"),
		LogFile:            getEnvOrDefault("LOG_FILE", "logs/app.log"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		OTELEnabled:        getEnvOrDefault("OTEL_ENABLED", "") == "true",
		OTELEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.CommissionRate < 0 || cfg.CommissionRate > 1 {
		panic(fmt.Sprintf("COMMISSION_RATE must be between 0 and 1, got %v", cfg.CommissionRate))
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
