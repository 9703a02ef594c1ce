package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/delivery/model"
)

type Repository interface {
	// Create fails with ErrDuplicateDelivery when the notification already has one.
	Create(ctx context.Context, d *model.Delivery) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Delivery, error)
	// MarkDelivered fails with ErrAlreadyDelivered unless the row is on the way.
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) (*model.Delivery, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Delivery, error)
}
