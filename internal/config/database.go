package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"library-backend/internal/infrastructure/database"
)

// LoadDatabaseConfig reads the Postgres section. DATABASE_URL, when set,
// supplies the connection fields and the DB_* pool settings still apply.
func LoadDatabaseConfig() (*database.DBConfig, error) {
	cfg := &database.DBConfig{
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       getEnvInt("DB_PORT", 5432),
		Username:   getEnv("DB_USER", "library"),
		Password:   getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "library"),
		SSLMode:    getEnv("DB_SSLMODE", "disable"),
		MaxConns:   int32(getEnvInt("DB_MAX_CONNECTIONS", 25)),
		MinConns:   int32(getEnvInt("DB_MIN_CONNECTIONS", 5)),
		MaxRetries: getEnvInt("DB_MAX_RETRIES", 5),
	}

	if raw := getEnv("DATABASE_URL", ""); raw != "" {
		if err := applyDatabaseURL(cfg, raw); err != nil {
			return nil, err
		}
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"DB_MAX_CONN_LIFETIME", 5 * time.Minute, &cfg.MaxConnLifetime},
		{"DB_MAX_CONN_IDLE_TIME", time.Minute, &cfg.MaxConnIdleTime},
		{"DB_HEALTH_CHECK_PERIOD", time.Minute, &cfg.HealthCheckPeriod},
		{"DB_RETRY_DELAY", time.Second, &cfg.RetryDelay},
		{"DB_CONNECT_TIMEOUT", 10 * time.Second, &cfg.ConnectTimeout},
	}
	for _, d := range durations {
		v, err := getEnvDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dest = v
	}

	if cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNECTIONS (%d) exceeds DB_MAX_CONNECTIONS (%d)", cfg.MinConns, cfg.MaxConns)
	}
	return cfg, nil
}

// applyDatabaseURL overrides connection fields from a postgres:// URL.
func applyDatabaseURL(cfg *database.DBConfig, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("invalid DATABASE_URL: unsupported scheme %q", u.Scheme)
	}

	if host := u.Hostname(); host != "" {
		cfg.Host = host
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid DATABASE_URL port: %w", err)
		}
		cfg.Port = port
	}
	if u.User != nil {
		cfg.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			cfg.Password = pw
		}
	}
	if name := u.Path; len(name) > 1 {
		cfg.DBName = name[1:]
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		cfg.SSLMode = mode
	}
	return nil
}
