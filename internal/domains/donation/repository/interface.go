package repository

import (
	"context"

	"library-backend/internal/domains/donation/model"
)

type Repository interface {
	Create(ctx context.Context, d *model.Donation) error
	GetByID(ctx context.Context, id int64) (*model.Donation, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Donation, error)
	// Transition fails with ErrNotPending when the stored status is not from.
	Transition(ctx context.Context, id int64, from, to model.Status, bookID *int64) (*model.Donation, error)
	List(ctx context.Context, req model.ListRequest) ([]model.Donation, int, error)
	Delete(ctx context.Context, id int64) error
}
