package service

import (
	"context"
	"fmt"
	"time"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/domains/book/repository"
	"library-backend/pkg/cache"
	"library-backend/pkg/database"
	"library-backend/pkg/logger"
)

const (
	detailCacheTTL     = 5 * time.Minute
	categoriesCacheTTL = 10 * time.Minute
	categoriesCacheKey = "book:categories"
)

func detailCacheKey(bookID int64) string {
	return fmt.Sprintf("book:detail:%d", bookID)
}

// LedgerService applies count changes and writes the matching movement row
// in the same transaction. A call made inside an open transaction joins it.
type LedgerService struct {
	repo  repository.Repository
	tx    database.Transactor
	cache cache.Cache
}

func NewLedgerService(repo repository.Repository, tx database.Transactor, cache cache.Cache) *LedgerService {
	return &LedgerService{repo: repo, tx: tx, cache: cache}
}

func (s *LedgerService) FindOrCreateBook(ctx context.Context, t model.Tuple, photoKey *string, ref model.Reference) (*model.Book, error) {
	return s.AddCopies(ctx, t, 1, photoKey, ref)
}

func (s *LedgerService) AddCopies(ctx context.Context, t model.Tuple, qty int, photoKey *string, ref model.Reference) (*model.Book, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("add copies: quantity must be positive, got %d", qty)
	}
	t = t.Normalize()

	return database.WithinTxResult(ctx, s.tx, func(ctx context.Context) (*model.Book, error) {
		b, inserted, err := s.repo.UpsertByTuple(ctx, t, qty, photoKey)
		if err != nil {
			return nil, err
		}
		if err := s.record(ctx, b, ref.MovementOr(model.MovementIntake), qty, ref); err != nil {
			return nil, err
		}

		logger.Info("book intake", map[string]interface{}{
			"book_id":   b.BookID,
			"inserted":  inserted,
			"quantity":  qty,
			"available": b.AvailableCopies,
			"total":     b.TotalCopies,
			"ref_type":  ref.Type,
			"ref_id":    ref.ID,
		})
		s.invalidate(ctx, b.BookID)
		return b, nil
	})
}

func (s *LedgerService) DecrementAvailable(ctx context.Context, bookID int64, ref model.Reference) (*model.Book, error) {
	return database.WithinTxResult(ctx, s.tx, func(ctx context.Context) (*model.Book, error) {
		b, err := s.repo.DecrementAvailable(ctx, bookID)
		if err != nil {
			return nil, err
		}
		if err := s.record(ctx, b, ref.MovementOr(model.MovementBorrowReserve), -1, ref); err != nil {
			return nil, err
		}
		s.invalidate(ctx, bookID)
		return b, nil
	})
}

// IncrementAvailable never exceeds total_copies. A clamped increment is
// logged and audited with a zero delta.
func (s *LedgerService) IncrementAvailable(ctx context.Context, bookID int64, ref model.Reference) (*model.Book, error) {
	return database.WithinTxResult(ctx, s.tx, func(ctx context.Context) (*model.Book, error) {
		b, clamped, err := s.repo.IncrementAvailable(ctx, bookID)
		if err != nil {
			return nil, err
		}

		delta := 1
		if clamped {
			delta = 0
			logger.Warn("available copies already at total", map[string]interface{}{
				"book_id": bookID,
				"total":   b.TotalCopies,
				"ref_id":  ref.ID,
			})
		}

		if err := s.record(ctx, b, ref.MovementOr(model.MovementReturn), delta, ref); err != nil {
			return nil, err
		}
		s.invalidate(ctx, bookID)
		return b, nil
	})
}

func (s *LedgerService) RecordReceipt(ctx context.Context, bookID int64, ref model.Reference) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, bookID)
		if err != nil {
			return err
		}
		return s.record(ctx, b, model.MovementDeliveryReceived, 0, ref)
	})
}

func (s *LedgerService) record(ctx context.Context, b *model.Book, typ model.MovementType, delta int, ref model.Reference) error {
	return s.repo.CreateMovement(ctx, &model.Movement{
		BookID:         b.BookID,
		Type:           typ,
		QuantityDelta:  delta,
		AvailableAfter: b.AvailableCopies,
		TotalAfter:     b.TotalCopies,
		ReferenceType:  ref.Type,
		ReferenceID:    ref.ID,
		Note:           ref.Note,
	})
}

// invalidate evicts once the surrounding transaction commits.
func (s *LedgerService) invalidate(ctx context.Context, bookID int64) {
	if s.cache == nil {
		return
	}
	database.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.cache.Delete(ctx, detailCacheKey(bookID), categoriesCacheKey); err != nil {
			logger.Error("failed to invalidate book cache", err)
		}
	})
}
