package service

import (
	"context"
	"errors"
	"fmt"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/domains/book/repository"
	"library-backend/internal/infrastructure/storage"
	"library-backend/internal/shared/apperror"
	"library-backend/pkg/cache"
	"library-backend/pkg/database"
	"library-backend/pkg/logger"
)

const defaultMovementLimit = 50

// BookService implements the catalog on top of the ledger.
type BookService struct {
	repo   repository.Repository
	ledger Ledger
	tx     database.Transactor
	cache  cache.Cache
	photos storage.PhotoStore
	jobs   PhotoJobs
}

func NewService(
	repo repository.Repository,
	ledger Ledger,
	tx database.Transactor,
	cache cache.Cache,
	photos storage.PhotoStore,
	jobs PhotoJobs,
) *BookService {
	return &BookService{
		repo:   repo,
		ledger: ledger,
		tx:     tx,
		cache:  cache,
		photos: photos,
		jobs:   jobs,
	}
}

func (s *BookService) ListBooks(ctx context.Context, req model.ListBooksRequest) (*model.ListBooksResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperror.NewValidation(err)
	}

	books, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &model.ListBooksResponse{
		Books: make([]model.BookResponse, 0, len(books)),
		Total: total,
		Page:  req.Page,
		Limit: req.Limit,
	}
	for i := range books {
		resp.Books = append(resp.Books, books[i].ToResponse())
	}
	return resp, nil
}

// GetBook is read-through cached; ledger mutations evict the entry.
func (s *BookService) GetBook(ctx context.Context, bookID int64) (*model.BookResponse, error) {
	key := detailCacheKey(bookID)

	var cached model.BookResponse
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		logger.Error("book cache read failed", err)
	} else if found {
		return &cached, nil
	}

	b, err := s.repo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	resp := b.ToResponse()
	if err := s.cache.Set(ctx, key, resp, detailCacheTTL); err != nil {
		logger.Error("book cache write failed", err)
	}
	return &resp, nil
}

func (s *BookService) GetBookByID(ctx context.Context, bookID int64) (*model.Book, error) {
	return s.repo.GetByID(ctx, bookID)
}

// CreateBook goes through the ledger, so an existing tuple gets its
// counts incremented instead of a duplicate row.
func (s *BookService) CreateBook(ctx context.Context, req model.CreateBookRequest, photo []byte) (*model.BookResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.NewValidation(err)
	}

	var photoKey *string
	if len(photo) > 0 {
		key, err := s.savePhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		photoKey = &key
	}

	b, err := s.ledger.AddCopies(ctx, req.Tuple(), req.Quantity(), photoKey, model.Reference{
		Type: model.RefCatalog,
		Note: "added by librarian",
	})
	if err != nil {
		if photoKey != nil {
			s.dropPhoto(ctx, *photoKey, "book create failed")
		}
		return nil, err
	}

	resp := b.ToResponse()
	return &resp, nil
}

func (s *BookService) UpdateBook(ctx context.Context, bookID int64, req model.UpdateBookRequest) (*model.BookResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.NewValidation(err)
	}

	b, err := database.WithinTxResult(ctx, s.tx, func(ctx context.Context) (*model.Book, error) {
		b, err := s.repo.GetByIDForUpdate(ctx, bookID)
		if err != nil {
			return nil, err
		}
		if b.Version != req.Version {
			return nil, model.ErrVersionConflict
		}

		req.Apply(b)

		delta := 0
		if req.TotalCopies != nil {
			if *req.TotalCopies < b.LentOut() {
				return nil, model.ErrTotalBelowLentOut
			}
			delta = *req.TotalCopies - b.TotalCopies
			b.TotalCopies += delta
			b.AvailableCopies += delta
		}

		if err := s.repo.Update(ctx, b); err != nil {
			return nil, err
		}

		if delta != 0 {
			err := s.repo.CreateMovement(ctx, &model.Movement{
				BookID:         b.BookID,
				Type:           model.MovementAdjustment,
				QuantityDelta:  delta,
				AvailableAfter: b.AvailableCopies,
				TotalAfter:     b.TotalCopies,
				ReferenceType:  model.RefCatalog,
				Note:           "total copies adjusted",
			})
			if err != nil {
				return nil, err
			}
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, bookID)
	resp := b.ToResponse()
	return &resp, nil
}

// DeleteBook refuses while a pending or active borrowing references the book.
// Closed borrowings keep their history with the book reference cleared. The
// photo is only dropped once no donation or other book shares it.
func (s *BookService) DeleteBook(ctx context.Context, bookID int64) error {
	var photoKey string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, bookID)
		if err != nil {
			return err
		}

		active, err := s.repo.HasActiveBorrowings(ctx, bookID)
		if err != nil {
			return err
		}
		if active {
			return model.ErrBookInUse
		}

		if err := s.repo.Delete(ctx, bookID); err != nil {
			return err
		}
		if b.PhotoKey == nil {
			return nil
		}
		inUse, err := s.repo.PhotoReferenced(ctx, *b.PhotoKey)
		if err != nil {
			return err
		}
		if !inUse {
			photoKey = *b.PhotoKey
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, bookID)
	s.dropPhoto(ctx, photoKey, "book deleted")
	logger.Info("book deleted", map[string]interface{}{"book_id": bookID})
	return nil
}

func (s *BookService) UploadPhoto(ctx context.Context, bookID int64, photo []byte) (*model.BookResponse, error) {
	b, err := s.repo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	key, err := s.savePhoto(ctx, photo)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePhoto(ctx, bookID, key); err != nil {
		s.dropPhoto(ctx, key, "book photo update failed")
		return nil, err
	}

	if b.PhotoKey != nil {
		s.dropPhoto(ctx, *b.PhotoKey, "book photo replaced")
	}
	s.invalidate(ctx, bookID)

	b.PhotoKey = &key
	resp := b.ToResponse()
	return &resp, nil
}

func (s *BookService) OpenPhoto(ctx context.Context, bookID int64) (*storage.Object, error) {
	b, err := s.repo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if b.PhotoKey == nil || *b.PhotoKey == "" {
		return nil, model.ErrPhotoNotFound
	}

	obj, err := s.photos.Open(ctx, *b.PhotoKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, model.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("open book photo: %w", err)
	}
	return obj, nil
}

func (s *BookService) ListMovements(ctx context.Context, bookID int64, limit int) ([]model.Movement, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultMovementLimit
	}
	if _, err := s.repo.GetByID(ctx, bookID); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, bookID, limit)
}

// Categories summarizes the catalog per category. The summary is cached
// and evicted together with any book detail entry.
func (s *BookService) Categories(ctx context.Context) ([]model.CategorySummary, error) {
	var cached []model.CategorySummary
	if found, err := s.cache.Get(ctx, categoriesCacheKey, &cached); err != nil {
		logger.Error("category cache read failed", err)
	} else if found {
		return cached, nil
	}

	summary, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, categoriesCacheKey, summary, categoriesCacheTTL); err != nil {
		logger.Error("category cache write failed", err)
	}
	return summary, nil
}

// ================================================
// HELPERS
// ================================================

func (s *BookService) savePhoto(ctx context.Context, photo []byte) (string, error) {
	key, err := s.photos.Save(ctx, storage.FolderBooks, photo)
	if err != nil {
		var invalid *storage.InvalidPhotoError
		if errors.As(err, &invalid) {
			return "", model.ErrInvalidPhoto
		}
		return "", err
	}
	return key, nil
}

// dropPhoto schedules deletion; a failed enqueue only leaves an orphan object.
func (s *BookService) dropPhoto(ctx context.Context, key, reason string) {
	if key == "" {
		return
	}
	if err := s.jobs.DeletePhoto(ctx, key, reason); err != nil {
		logger.Error("failed to enqueue photo deletion", err)
	}
}

func (s *BookService) invalidate(ctx context.Context, bookID int64) {
	database.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.cache.Delete(ctx, detailCacheKey(bookID), categoriesCacheKey); err != nil {
			logger.Error("failed to invalidate book cache", err)
		}
	})
}
