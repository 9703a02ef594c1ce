package repository

import (
	"context"

	"library-backend/internal/domains/book/model"
)

// LedgerRepository holds the count mutations. Every method runs on the
// transaction carried by ctx when there is one.
type LedgerRepository interface {
	// UpsertByTuple inserts a book with qty copies, or adds qty to both
	// counts of the existing book with the same tuple. inserted reports
	// which path was taken.
	UpsertByTuple(ctx context.Context, t model.Tuple, qty int, photoKey *string) (book *model.Book, inserted bool, err error)

	// DecrementAvailable takes one copy. It fails with ErrBookNotFound or
	// ErrBookNotAvailable and never drives the count below zero.
	DecrementAvailable(ctx context.Context, bookID int64) (*model.Book, error)

	// IncrementAvailable gives one copy back, clamped at total_copies.
	// clamped is true when the count was already full.
	IncrementAvailable(ctx context.Context, bookID int64) (book *model.Book, clamped bool, err error)

	CreateMovement(ctx context.Context, m *model.Movement) error
	ListMovements(ctx context.Context, bookID int64, limit int) ([]model.Movement, error)
}

// CatalogRepository covers book metadata.
type CatalogRepository interface {
	GetByID(ctx context.Context, bookID int64) (*model.Book, error)
	GetByIDForUpdate(ctx context.Context, bookID int64) (*model.Book, error)
	List(ctx context.Context, req model.ListBooksRequest) ([]model.Book, int, error)
	Update(ctx context.Context, b *model.Book) error
	UpdatePhoto(ctx context.Context, bookID int64, key string) error
	Delete(ctx context.Context, bookID int64) error
	HasActiveBorrowings(ctx context.Context, bookID int64) (bool, error)
	// PhotoReferenced reports whether a donation or a book still points at key.
	PhotoReferenced(ctx context.Context, key string) (bool, error)
	Categories(ctx context.Context) ([]model.CategorySummary, error)
}

type Repository interface {
	LedgerRepository
	CatalogRepository
}
