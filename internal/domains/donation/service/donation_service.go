package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	bookmodel "library-backend/internal/domains/book/model"
	bookservice "library-backend/internal/domains/book/service"
	"library-backend/internal/domains/donation/model"
	"library-backend/internal/domains/donation/repository"
	notification "library-backend/internal/domains/notification/model"
	"library-backend/internal/infrastructure/storage"
	"library-backend/internal/shared/apperror"
	"library-backend/pkg/database"
	"library-backend/pkg/logger"
)

type ServiceInterface interface {
	Submit(ctx context.Context, userID uuid.UUID, req model.SubmitRequest, photo []byte) (*model.Donation, error)
	Accept(ctx context.Context, id int64) (*model.Donation, error)
	Reject(ctx context.Context, id int64) (*model.Donation, error)

	Get(ctx context.Context, id int64) (*model.Donation, error)
	List(ctx context.Context, req model.ListRequest) (*model.ListResponse, error)
	History(ctx context.Context, userID uuid.UUID, req model.ListRequest) (*model.ListResponse, error)
	Delete(ctx context.Context, id int64) error
	OpenPhoto(ctx context.Context, id int64) (*storage.Object, error)
}

type Notifier interface {
	Emit(ctx context.Context, e notification.Event) (*notification.Notification, error)
}

type PhotoJobs interface {
	DeletePhoto(ctx context.Context, key, reason string) error
}

// DonationService runs pending -> accepted|rejected. Inventory changes only
// on acceptance.
type DonationService struct {
	repo     repository.Repository
	ledger   bookservice.Ledger
	books    bookservice.BookReader
	notifier Notifier
	tx       database.Transactor
	photos   storage.PhotoStore
	jobs     PhotoJobs
}

func NewService(
	repo repository.Repository,
	ledger bookservice.Ledger,
	books bookservice.BookReader,
	notifier Notifier,
	tx database.Transactor,
	photos storage.PhotoStore,
	jobs PhotoJobs,
) *DonationService {
	return &DonationService{
		repo:     repo,
		ledger:   ledger,
		books:    books,
		notifier: notifier,
		tx:       tx,
		photos:   photos,
		jobs:     jobs,
	}
}

func (s *DonationService) Submit(ctx context.Context, userID uuid.UUID, req model.SubmitRequest, photo []byte) (*model.Donation, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.NewValidation(err)
	}
	if len(photo) == 0 {
		return nil, model.ErrPhotoRequired
	}

	key, err := s.photos.Save(ctx, storage.FolderDonations, photo)
	if err != nil {
		var invalid *storage.InvalidPhotoError
		if errors.As(err, &invalid) {
			return nil, model.ErrInvalidPhoto
		}
		return nil, err
	}

	d := &model.Donation{
		UserID:          userID,
		BookTitle:       req.BookTitle,
		BookAuthor:      req.BookAuthor,
		Condition:       req.Condition,
		Category:        req.Category,
		PublicationYear: req.PublicationYear,
		PhotoKey:        key,
		Status:          model.StatusPending,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		s.dropPhoto(ctx, key, "donation insert failed")
		return nil, err
	}

	logger.Info("donation submitted", map[string]interface{}{
		"donation_id": d.DonationID,
		"user_id":     userID.String(),
	})
	return d, nil
}

// Accept folds the donation into the catalog: a new book with one copy, or
// one more copy of an existing tuple.
func (s *DonationService) Accept(ctx context.Context, id int64) (*model.Donation, error) {
	return database.WithinTxResult(ctx, s.tx, func(ctx context.Context) (*model.Donation, error) {
		d, err := s.lockPending(ctx, id)
		if err != nil {
			return nil, err
		}

		photo := d.PhotoKey
		book, err := s.ledger.FindOrCreateBook(ctx, d.Tuple(), &photo, bookmodel.Reference{
			Type:     bookmodel.RefDonation,
			ID:       strconv.FormatInt(id, 10),
			Movement: bookmodel.MovementDonationIntake,
		})
		if err != nil {
			return nil, err
		}

		updated, err := s.repo.Transition(ctx, id, model.StatusPending, model.StatusAccepted, &book.BookID)
		if err != nil {
			return nil, err
		}

		if _, err := s.notifier.Emit(ctx, notification.Event{
			UserID:      d.UserID,
			Message:     fmt.Sprintf("Your donation of %q has been accepted. Thank you!", d.BookTitle),
			Status:      notification.StatusWaiting,
			Type:        notification.TypeDonation,
			ReferenceID: strconv.FormatInt(id, 10),
			Book:        notification.SnapshotOf(book),
		}); err != nil {
			return nil, err
		}

		logger.Info("donation accepted", map[string]interface{}{
			"donation_id": id,
			"book_id":     book.BookID,
			"total":       book.TotalCopies,
		})
		return updated, nil
	})
}

func (s *DonationService) Reject(ctx context.Context, id int64) (*model.Donation, error) {
	return database.WithinTxResult(ctx, s.tx, func(ctx context.Context) (*model.Donation, error) {
		d, err := s.lockPending(ctx, id)
		if err != nil {
			return nil, err
		}

		updated, err := s.repo.Transition(ctx, id, model.StatusPending, model.StatusRejected, nil)
		if err != nil {
			return nil, err
		}

		photo := d.PhotoURL()
		if _, err := s.notifier.Emit(ctx, notification.Event{
			UserID:      d.UserID,
			Message:     fmt.Sprintf("Your donation of %q has been rejected.", d.BookTitle),
			Status:      notification.StatusRejected,
			Type:        notification.TypeDonation,
			ReferenceID: strconv.FormatInt(id, 10),
			Book: notification.BookSnapshot{
				Name:        d.BookTitle,
				Author:      d.BookAuthor,
				Category:    d.Category,
				PublishYear: d.PublicationYear,
				Photo:       &photo,
			},
		}); err != nil {
			return nil, err
		}

		logger.Info("donation rejected", map[string]interface{}{"donation_id": id})
		return updated, nil
	})
}

func (s *DonationService) Get(ctx context.Context, id int64) (*model.Donation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DonationService) List(ctx context.Context, req model.ListRequest) (*model.ListResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperror.NewValidation(err)
	}

	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &model.ListResponse{
		Donations: make([]model.DonationResponse, 0, len(items)),
		Total:     total,
		Page:      req.Page,
		Limit:     req.Limit,
	}
	for i := range items {
		resp.Donations = append(resp.Donations, items[i].ToResponse())
	}
	return resp, nil
}

func (s *DonationService) History(ctx context.Context, userID uuid.UUID, req model.ListRequest) (*model.ListResponse, error) {
	req.UserID = &userID
	return s.List(ctx, req)
}

// Delete removes a decided donation. The photo is kept while an accepted
// book still uses it.
func (s *DonationService) Delete(ctx context.Context, id int64) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d.Status == model.StatusPending {
		return model.ErrStillPending
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if !s.photoInUse(ctx, d) {
		s.dropPhoto(ctx, d.PhotoKey, "donation deleted")
	}
	logger.Info("donation deleted", map[string]interface{}{"donation_id": id})
	return nil
}

func (s *DonationService) OpenPhoto(ctx context.Context, id int64) (*storage.Object, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	obj, err := s.photos.Open(ctx, d.PhotoKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, model.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("open donation photo: %w", err)
	}
	return obj, nil
}

func (s *DonationService) lockPending(ctx context.Context, id int64) (*model.Donation, error) {
	d, err := s.repo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != model.StatusPending {
		return nil, model.ErrNotPending
	}
	return d, nil
}

func (s *DonationService) photoInUse(ctx context.Context, d *model.Donation) bool {
	if d.BookID == nil {
		return false
	}
	book, err := s.books.GetBookByID(ctx, *d.BookID)
	if err != nil {
		return !errors.Is(err, bookmodel.ErrBookNotFound)
	}
	return book.PhotoKey != nil && *book.PhotoKey == d.PhotoKey
}

func (s *DonationService) dropPhoto(ctx context.Context, key, reason string) {
	if err := s.jobs.DeletePhoto(ctx, key, reason); err != nil {
		logger.Error("failed to enqueue photo deletion", err)
	}
}
