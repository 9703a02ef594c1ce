package job

import (
	"context"
	"fmt"

	"library-backend/internal/shared"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PhotoRemover deletes a stored object by key.
type PhotoRemover interface {
	Remove(ctx context.Context, key string) error
}

// DeletePhotoHandler removes photos that no record references anymore.
type DeletePhotoHandler struct {
	photos PhotoRemover
}

func NewDeletePhotoHandler(photos PhotoRemover) *DeletePhotoHandler {
	return &DeletePhotoHandler{photos: photos}
}

func (h *DeletePhotoHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.DeletePhotoPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal DeletePhoto payload")
		// Malformed payloads will never succeed.
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	if payload.Key == "" {
		return nil
	}

	if err := h.photos.Remove(ctx, payload.Key); err != nil {
		log.Error().
			Err(err).
			Str("key", payload.Key).
			Msg("Failed to delete photo")
		return fmt.Errorf("delete photo: %w", err)
	}

	log.Info().
		Str("key", payload.Key).
		Str("reason", payload.Reason).
		Msg("Photo deleted")
	return nil
}
