package queue

import (
	"context"
	"fmt"
	"time"

	"library-backend/internal/shared"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Enqueuer is the subset of *asynq.Client used by Dispatcher.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher turns domain requests into asynq tasks.
type Dispatcher struct {
	client Enqueuer
}

func NewDispatcher(client Enqueuer) *Dispatcher {
	return &Dispatcher{client: client}
}

// DeletePhoto schedules removal of a stored photo. Empty keys are ignored.
func (d *Dispatcher) DeletePhoto(ctx context.Context, key, reason string) error {
	if key == "" {
		return nil
	}

	payload, err := json.Marshal(shared.DeletePhotoPayload{Key: key, Reason: reason})
	if err != nil {
		return fmt.Errorf("marshal delete photo payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeDeletePhoto, payload)
	info, err := d.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", shared.TypeDeletePhoto, err)
	}

	log.Info().
		Str("task_id", info.ID).
		Str("key", key).
		Str("reason", reason).
		Msg("photo deletion enqueued")
	return nil
}
