package queue

import (
	"time"

	"library-backend/internal/config"
	"library-backend/internal/shared"
	"library-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	cfg       config.WorkerConfig
}

func NewScheduler(redis asynq.RedisClientOpt, cfg config.WorkerConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redis,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{scheduler: scheduler, cfg: cfg}
}

// RegisterJobs registers every periodic task.
func (s *Scheduler) RegisterJobs() error {
	return s.registerCleanupReadNotificationsJob()
}

func (s *Scheduler) registerCleanupReadNotificationsJob() error {
	payload, err := json.Marshal(shared.CleanupReadNotificationsPayload{
		RetentionHours: int(s.cfg.ReadNotificationTTL.Hours()),
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeCleanupReadNotifications, payload)

	_, err = s.scheduler.Register(
		s.cfg.CleanupCron,
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register CleanupReadNotifications job", err)
		return err
	}

	logger.Info("Registered CleanupReadNotifications", map[string]interface{}{
		"cron":            s.cfg.CleanupCron,
		"retention_hours": int(s.cfg.ReadNotificationTTL.Hours()),
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
