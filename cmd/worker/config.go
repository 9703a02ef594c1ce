package main

import (
	"github.com/joho/godotenv"

	"library-backend/internal/config"
	"library-backend/pkg/logger"
)

// loadConfig reads the shared application config; the worker uses the
// Worker, Redis, Database and MinIO sections.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	return cfg, nil
}
