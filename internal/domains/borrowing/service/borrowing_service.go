package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	bookmodel "library-backend/internal/domains/book/model"
	bookservice "library-backend/internal/domains/book/service"
	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/borrowing/repository"
	notification "library-backend/internal/domains/notification/model"
	"library-backend/internal/shared/apperror"
	"library-backend/pkg/database"
	"library-backend/pkg/logger"
)

// BorrowingService runs the pending -> borrowed|rejected, borrowed -> returned
// state machine. A copy is reserved when the request is made, so accepting
// never touches the ledger and rejecting or returning gives the copy back.
type BorrowingService struct {
	repo     repository.Repository
	ledger   bookservice.Ledger
	books    bookservice.BookReader
	notifier Notifier
	tx       database.Transactor
	now      func() time.Time
}

func NewService(
	repo repository.Repository,
	ledger bookservice.Ledger,
	books bookservice.BookReader,
	notifier Notifier,
	tx database.Transactor,
) *BorrowingService {
	return &BorrowingService{
		repo:     repo,
		ledger:   ledger,
		books:    books,
		notifier: notifier,
		tx:       tx,
		now:      time.Now,
	}
}

func (s *BorrowingService) RequestBorrow(ctx context.Context, userID uuid.UUID, req model.BorrowRequest) (*model.Borrowing, error) {
	now := s.now()
	if err := req.Validate(now); err != nil {
		return nil, apperror.NewValidation(err)
	}

	b := &model.Borrowing{
		BorrowingID: model.NewID(now),
		BookID:      req.BookID,
		UserID:      userID,
		BorrowDate:  now,
		DueDate:     *req.DueDate,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Decrement and insert commit together: a failed decrement leaves no record.
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.ledger.DecrementAvailable(ctx, req.BookID, bookmodel.Reference{
			Type: bookmodel.RefBorrowing,
			ID:   b.BorrowingID,
		}); err != nil {
			return err
		}
		return s.repo.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("borrow requested", map[string]interface{}{
		"borrowing_id": b.BorrowingID,
		"book_id":      b.BookID,
		"user_id":      userID.String(),
	})
	return b, nil
}

func (s *BorrowingService) AcceptBorrow(ctx context.Context, id string) (*model.Borrowing, error) {
	return database.WithinTxResult(ctx, s.tx, func(ctx context.Context) (*model.Borrowing, error) {
		b, err := s.lockPending(ctx, id)
		if err != nil {
			return nil, err
		}

		updated, err := s.repo.Transition(ctx, id, model.StatusPending, model.StatusBorrowed, nil)
		if err != nil {
			return nil, err
		}

		book, err := s.books.GetBookByID(ctx, b.BookID)
		if err != nil {
			return nil, err
		}
		if _, err := s.notifier.Emit(ctx, notification.Event{
			UserID:      b.UserID,
			Message:     `Your borrow request for "` + book.Title + `" has been accepted.`,
			Status:      notification.StatusWaiting,
			Type:        notification.TypeBorrow,
			ReferenceID: id,
			Book:        snapshot(book),
		}); err != nil {
			return nil, err
		}

		s.logTransition(updated, model.StatusPending)
		return updated, nil
	})
}

func (s *BorrowingService) RejectBorrow(ctx context.Context, id string) (*model.Borrowing, error) {
	return database.WithinTxResult(ctx, s.tx, func(ctx context.Context) (*model.Borrowing, error) {
		b, err := s.lockPending(ctx, id)
		if err != nil {
			return nil, err
		}

		updated, err := s.repo.Transition(ctx, id, model.StatusPending, model.StatusRejected, nil)
		if err != nil {
			return nil, err
		}

		book, err := s.ledger.IncrementAvailable(ctx, b.BookID, bookmodel.Reference{
			Type:     bookmodel.RefBorrowing,
			ID:       id,
			Movement: bookmodel.MovementBorrowRelease,
		})
		if err != nil {
			return nil, err
		}
		if _, err := s.notifier.Emit(ctx, notification.Event{
			UserID:      b.UserID,
			Message:     `Your borrow request for "` + book.Title + `" has been rejected.`,
			Status:      notification.StatusRejected,
			Type:        notification.TypeBorrow,
			ReferenceID: id,
			Book:        snapshot(book),
		}); err != nil {
			return nil, err
		}

		s.logTransition(updated, model.StatusPending)
		return updated, nil
	})
}

// ReturnBook is only valid from borrowed. Another user's borrowing is
// reported as missing.
func (s *BorrowingService) ReturnBook(ctx context.Context, userID uuid.UUID, id string) (*model.Borrowing, *notification.Notification, error) {
	var (
		updated *model.Borrowing
		notice  *notification.Notification
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return model.ErrBorrowingNotFound
		}

		switch b.Status {
		case model.StatusReturned:
			return model.ErrAlreadyReturned
		case model.StatusPending, model.StatusRejected:
			return model.ErrNotBorrowed
		}

		returnedAt := s.now()
		updated, err = s.repo.Transition(ctx, id, model.StatusBorrowed, model.StatusReturned, &returnedAt)
		if err != nil {
			return err
		}

		book, err := s.ledger.IncrementAvailable(ctx, b.BookID, bookmodel.Reference{
			Type: bookmodel.RefBorrowing,
			ID:   id,
		})
		if err != nil {
			return err
		}

		notice, err = s.notifier.Emit(ctx, notification.Event{
			UserID:      b.UserID,
			Message:     `Please fill in the delivery information to return "` + book.Title + `".`,
			Status:      notification.StatusWaiting,
			Type:        notification.TypeReturn,
			ReferenceID: id,
			Book:        snapshot(book),
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logTransition(updated, model.StatusBorrowed)
	return updated, notice, nil
}

func (s *BorrowingService) GetBorrowing(ctx context.Context, id string) (*model.Borrowing, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *BorrowingService) ListBorrowings(ctx context.Context, req model.ListRequest) (*model.ListResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperror.NewValidation(err)
	}
	req.Now = s.now()

	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	return &model.ListResponse{Borrowings: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *BorrowingService) History(ctx context.Context, userID uuid.UUID, req model.ListRequest) (*model.ListResponse, error) {
	req.UserID = &userID
	return s.ListBorrowings(ctx, req)
}

// lockPending loads the borrowing under a row lock and checks it is pending.
func (s *BorrowingService) lockPending(ctx context.Context, id string) (*model.Borrowing, error) {
	b, err := s.repo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.StatusPending {
		return nil, model.ErrNotPending
	}
	return b, nil
}

func (s *BorrowingService) logTransition(b *model.Borrowing, from model.Status) {
	logger.Info("borrowing transitioned", map[string]interface{}{
		"borrowing_id": b.BorrowingID,
		"book_id":      b.BookID,
		"from":         string(from),
		"to":           string(b.Status),
	})
}

func snapshot(b *bookmodel.Book) notification.BookSnapshot {
	return notification.SnapshotOf(b)
}
