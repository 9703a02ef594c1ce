package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/notification/model"
)

type Repository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, statuses []model.Status) ([]model.Notification, error)
	// MarkRead fails with ErrNotificationNotFound unless the row belongs to userID.
	MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error
	// UpdateStatus fails with ErrNotWaiting when the stored status is not from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.Status) error
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
