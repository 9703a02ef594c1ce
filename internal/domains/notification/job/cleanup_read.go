package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"library-backend/internal/shared"
	"library-backend/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReadCleaner is the notification service slice the job needs.
type ReadCleaner interface {
	CleanupRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CleanupReadHandler deletes notifications read longer ago than the
// retention window.
type CleanupReadHandler struct {
	notifications ReadCleaner
	retention     time.Duration
}

func NewCleanupReadHandler(notifications ReadCleaner, retention time.Duration) *CleanupReadHandler {
	return &CleanupReadHandler{notifications: notifications, retention: retention}
}

func (h *CleanupReadHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.CleanupReadNotificationsPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("Failed to unmarshal cleanup payload, using configured retention", err)
		}
	}

	olderThan := h.retention
	if payload.RetentionHours > 0 {
		olderThan = time.Duration(payload.RetentionHours) * time.Hour
	}

	deleted, err := h.notifications.CleanupRead(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("cleanup read notifications: %w", err)
	}

	logger.Info("Completed CleanupReadNotifications job", map[string]interface{}{
		"older_than":    olderThan.String(),
		"deleted_count": deleted,
	})
	return nil
}
