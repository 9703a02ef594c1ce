package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"library-backend/internal/config"
	"library-backend/internal/infrastructure/queue"
	"library-backend/pkg/container"
)

// asynqScheduler wraps queue.Scheduler with additional functionality
type asynqScheduler struct {
	*queue.Scheduler
}

func setupScheduler(cfg *config.Config) (*asynqScheduler, error) {
	scheduler := queue.NewScheduler(container.RedisOpt(cfg.Redis), cfg.Worker)
	if err := scheduler.RegisterJobs(); err != nil {
		return nil, fmt.Errorf("register periodic jobs: %w", err)
	}
	return &asynqScheduler{Scheduler: scheduler}, nil
}

func (s *asynqScheduler) Start() error {
	log.Info().Msg("[Scheduler] starting")
	return s.Scheduler.Start()
}

func (s *asynqScheduler) Shutdown() {
	log.Info().Msg("[Scheduler] shutting down")
	s.Scheduler.Shutdown()
	log.Info().Msg("[Scheduler] stopped")
}
