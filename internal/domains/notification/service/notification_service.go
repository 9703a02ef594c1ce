package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	bookmodel "library-backend/internal/domains/book/model"
	borrowingmodel "library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/notification/model"
	"library-backend/internal/domains/notification/repository"
	"library-backend/internal/shared/apperror"
	"library-backend/pkg/cache"
	"library-backend/pkg/database"
	"library-backend/pkg/logger"
)

const listCacheTTL = 2 * time.Minute

// Statuses shown in a user's inbox.
var inboxStatuses = []model.Status{model.StatusWaiting, model.StatusRejected}

func inboxCacheKey(userID uuid.UUID) string {
	return "notifications:user:" + userID.String()
}

type BorrowingReader interface {
	GetBorrowing(ctx context.Context, id string) (*borrowingmodel.Borrowing, error)
}

type BookReader interface {
	GetBookByID(ctx context.Context, bookID int64) (*bookmodel.Book, error)
}

type ServiceInterface interface {
	Emit(ctx context.Context, e model.Event) (*model.Notification, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	SendOverdue(ctx context.Context, borrowingID string) (*model.Notification, error)
	// ClaimForDelivery moves a waiting notification owned by userID to filledin.
	ClaimForDelivery(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error)
	CleanupRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

type NotificationService struct {
	repo       repository.Repository
	cache      cache.Cache
	borrowings BorrowingReader
	books      BookReader
	now        func() time.Time
}

func NewService(repo repository.Repository, cache cache.Cache, borrowings BorrowingReader, books BookReader) *NotificationService {
	return &NotificationService{
		repo:       repo,
		cache:      cache,
		borrowings: borrowings,
		books:      books,
		now:        time.Now,
	}
}

// Emit stores a notification on the transaction carried by ctx.
func (s *NotificationService) Emit(ctx context.Context, e model.Event) (*model.Notification, error) {
	if e.UserID == uuid.Nil || e.Message == "" || !e.Type.IsValid() {
		return nil, fmt.Errorf("emit notification: incomplete event %+v", e)
	}

	n := e.ToNotification(s.now())
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	s.invalidate(ctx, e.UserID)
	logger.Info("notification emitted", map[string]interface{}{
		"notification_id": n.ID.String(),
		"user_id":         e.UserID.String(),
		"type":            string(e.Type),
		"status":          string(e.Status),
	})
	return n, nil
}

// ListForUser returns waiting and rejected notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	key := inboxCacheKey(userID)

	var cached []model.Notification
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		logger.Error("notification cache read failed", err)
	} else if found {
		return cached, nil
	}

	items, err := s.repo.ListByUser(ctx, userID, inboxStatuses)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, items, listCacheTTL); err != nil {
		logger.Error("notification cache write failed", err)
	}
	return items, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, userID, id, s.now()); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// SendOverdue is triggered by a librarian; nothing schedules it.
func (s *NotificationService) SendOverdue(ctx context.Context, borrowingID string) (*model.Notification, error) {
	if borrowingID == "" {
		return nil, apperror.Validationf("borrowing_id is required")
	}

	b, err := s.borrowings.GetBorrowing(ctx, borrowingID)
	if err != nil {
		return nil, err
	}
	if !b.IsOverdue(s.now()) {
		return nil, model.ErrNotOverdue
	}

	book, err := s.books.GetBookByID(ctx, b.BookID)
	if err != nil {
		return nil, err
	}

	return s.Emit(ctx, model.Event{
		UserID:      b.UserID,
		Message:     model.OverdueMessage(book.Title),
		Status:      model.StatusWaiting,
		Type:        model.TypeReturn,
		ReferenceID: b.BorrowingID,
		Book:        model.SnapshotOf(book),
	})
}

func (s *NotificationService) ClaimForDelivery(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error) {
	n, err := s.repo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, model.ErrNotificationNotFound
	}
	if n.Status != model.StatusWaiting {
		return nil, model.ErrNotWaiting
	}

	if err := s.repo.UpdateStatus(ctx, id, model.StatusWaiting, model.StatusFilledIn); err != nil {
		return nil, err
	}
	n.Status = model.StatusFilledIn
	s.invalidate(ctx, userID)
	return n, nil
}

// CleanupRead deletes notifications read more than olderThan ago.
func (s *NotificationService) CleanupRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan)
	n, err := s.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := s.cache.DeletePattern(ctx, "notifications:user:*"); err != nil {
			logger.Error("notification cache purge failed", err)
		}
	}
	return n, nil
}

// invalidate runs after the caller's transaction commits, or at once
// when there is none.
func (s *NotificationService) invalidate(ctx context.Context, userID uuid.UUID) {
	database.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.cache.Delete(ctx, inboxCacheKey(userID)); err != nil {
			logger.Error("failed to invalidate notification cache", err)
		}
	})
}
