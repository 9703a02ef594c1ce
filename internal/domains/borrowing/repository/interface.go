package repository

import (
	"context"
	"time"

	"library-backend/internal/domains/borrowing/model"
)

type Repository interface {
	Create(ctx context.Context, b *model.Borrowing) error
	GetByID(ctx context.Context, id string) (*model.Borrowing, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*model.Borrowing, error)
	// Transition moves a borrowing from one status to another and fails with
	// ErrNotPending when the stored status no longer matches from.
	Transition(ctx context.Context, id string, from, to model.Status, returnDate *time.Time) (*model.Borrowing, error)
	List(ctx context.Context, req model.ListRequest) ([]model.BorrowingDetail, int, error)
}
