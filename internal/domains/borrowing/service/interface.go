package service

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/borrowing/model"
	notification "library-backend/internal/domains/notification/model"
)

type ServiceInterface interface {
	RequestBorrow(ctx context.Context, userID uuid.UUID, req model.BorrowRequest) (*model.Borrowing, error)
	AcceptBorrow(ctx context.Context, id string) (*model.Borrowing, error)
	RejectBorrow(ctx context.Context, id string) (*model.Borrowing, error)
	ReturnBook(ctx context.Context, userID uuid.UUID, id string) (*model.Borrowing, *notification.Notification, error)

	GetBorrowing(ctx context.Context, id string) (*model.Borrowing, error)
	ListBorrowings(ctx context.Context, req model.ListRequest) (*model.ListResponse, error)
	History(ctx context.Context, userID uuid.UUID, req model.ListRequest) (*model.ListResponse, error)
}

// Notifier persists notifications inside the caller's transaction.
type Notifier interface {
	Emit(ctx context.Context, e notification.Event) (*notification.Notification, error)
}
