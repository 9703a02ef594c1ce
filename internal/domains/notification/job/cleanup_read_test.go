package job

import (
	"context"
	stdjson "encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/shared"
)

type fakeCleaner struct {
	olderThan time.Duration
	err       error
}

func (f *fakeCleaner) CleanupRead(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 3, f.err
}

func TestCleanupReadHandler(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    time.Duration
	}{
		{name: "payload retention", payload: mustJSON(t, shared.CleanupReadNotificationsPayload{RetentionHours: 48}), want: 48 * time.Hour},
		{name: "empty payload", payload: nil, want: 30 * 24 * time.Hour},
		{name: "zero hours", payload: mustJSON(t, shared.CleanupReadNotificationsPayload{}), want: 30 * 24 * time.Hour},
		{name: "malformed payload", payload: []byte("{"), want: 30 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaner := &fakeCleaner{}
			h := NewCleanupReadHandler(cleaner, 30*24*time.Hour)

			err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeCleanupReadNotifications, tt.payload))

			require.NoError(t, err)
			assert.Equal(t, tt.want, cleaner.olderThan)
		})
	}
}

func TestCleanupReadHandler_PropagatesError(t *testing.T) {
	h := NewCleanupReadHandler(&fakeCleaner{err: errors.New("db down")}, time.Hour)

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeCleanupReadNotifications, nil))

	assert.ErrorContains(t, err, "db down")
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := stdjson.Marshal(v)
	require.NoError(t, err)
	return b
}
