package service

import (
	"context"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/infrastructure/storage"
)

// Ledger is the only way other domains change copy counts.
type Ledger interface {
	// FindOrCreateBook adds one copy of the tuple, creating the book when
	// it does not exist yet.
	FindOrCreateBook(ctx context.Context, t model.Tuple, photoKey *string, ref model.Reference) (*model.Book, error)
	AddCopies(ctx context.Context, t model.Tuple, qty int, photoKey *string, ref model.Reference) (*model.Book, error)
	DecrementAvailable(ctx context.Context, bookID int64, ref model.Reference) (*model.Book, error)
	IncrementAvailable(ctx context.Context, bookID int64, ref model.Reference) (*model.Book, error)
	// RecordReceipt logs a physical arrival without touching the counts.
	RecordReceipt(ctx context.Context, bookID int64, ref model.Reference) error
}

// BookReader is the read side other domains use for snapshots.
type BookReader interface {
	GetBookByID(ctx context.Context, bookID int64) (*model.Book, error)
}

type ServiceInterface interface {
	BookReader
	ListBooks(ctx context.Context, req model.ListBooksRequest) (*model.ListBooksResponse, error)
	GetBook(ctx context.Context, bookID int64) (*model.BookResponse, error)
	CreateBook(ctx context.Context, req model.CreateBookRequest, photo []byte) (*model.BookResponse, error)
	UpdateBook(ctx context.Context, bookID int64, req model.UpdateBookRequest) (*model.BookResponse, error)
	DeleteBook(ctx context.Context, bookID int64) error
	UploadPhoto(ctx context.Context, bookID int64, photo []byte) (*model.BookResponse, error)
	OpenPhoto(ctx context.Context, bookID int64) (*storage.Object, error)
	ListMovements(ctx context.Context, bookID int64, limit int) ([]model.Movement, error)
	Categories(ctx context.Context) ([]model.CategorySummary, error)
}

// PhotoJobs schedules background photo work.
type PhotoJobs interface {
	DeletePhoto(ctx context.Context, key, reason string) error
}
