package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"library-backend/internal/infrastructure/database"
)

const defaultJWTSecret = "change-me-in-production"

// Config holds the application configuration populated from environment variables.
type Config struct {
	App      AppConfig
	Database *database.DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	MinIO    MinIOConfig
	Worker   WorkerConfig
	CORS     CORSConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret    string
	Issuer    string
	SignupTTL time.Duration
	LoginTTL  time.Duration
}

type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	MaxPhotoMB int
}

// WorkerConfig drives the asynq worker and scheduler.
type WorkerConfig struct {
	Concurrency         int
	CleanupCron         string
	ReadNotificationTTL time.Duration
	HealthAddr          string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads every section and validates the result.
func Load() (*Config, error) {
	dbCfg, err := LoadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	signupTTL, err := getEnvDuration("JWT_SIGNUP_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	loginTTL, err := getEnvDuration("JWT_LOGIN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	notificationTTL, err := getEnvDuration("WORKER_READ_NOTIFICATION_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Library API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: dbCfg,
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", defaultJWTSecret),
			Issuer:    getEnv("JWT_ISSUER", "library-backend"),
			SignupTTL: signupTTL,
			LoginTTL:  loginTTL,
		},
		MinIO: MinIOConfig{
			Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:     getEnv("MINIO_BUCKET", "library"),
			UseSSL:     getEnvBool("MINIO_USE_SSL", false),
			MaxPhotoMB: getEnvInt("MINIO_MAX_PHOTO_MB", 5),
		},
		Worker: WorkerConfig{
			Concurrency:         getEnvInt("WORKER_CONCURRENCY", 10),
			CleanupCron:         getEnv("WORKER_CLEANUP_CRON", "0 3 * * *"),
			ReadNotificationTTL: notificationTTL,
			HealthAddr:          getEnv("WORKER_HEALTH_ADDR", ":9999"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks invariants that must hold before anything connects.
func (c *Config) Validate() error {
	if c.App.Port == "" {
		return fmt.Errorf("APP_PORT must not be empty")
	}
	if c.JWT.SignupTTL <= 0 || c.JWT.LoginTTL <= 0 {
		return fmt.Errorf("JWT token lifetimes must be positive")
	}
	if c.MinIO.MaxPhotoMB <= 0 {
		return fmt.Errorf("MINIO_MAX_PHOTO_MB must be positive")
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
