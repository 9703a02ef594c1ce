package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	bookmodel "library-backend/internal/domains/book/model"
	borrowingmodel "library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/delivery/model"
	"library-backend/internal/domains/delivery/repository"
	donationmodel "library-backend/internal/domains/donation/model"
	notification "library-backend/internal/domains/notification/model"
	"library-backend/internal/shared/apperror"
	"library-backend/pkg/database"
	"library-backend/pkg/logger"
)

type ServiceInterface interface {
	CreateFromNotification(ctx context.Context, userID uuid.UUID, req model.CreateRequest) (*model.Delivery, error)
	Confirm(ctx context.Context, id uuid.UUID) (*model.Delivery, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Delivery, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Delivery, error)
}

type NotificationClaimer interface {
	ClaimForDelivery(ctx context.Context, userID, id uuid.UUID) (*notification.Notification, error)
}

// ReceiptLedger logs arrivals; counts were settled by the state machines.
type ReceiptLedger interface {
	RecordReceipt(ctx context.Context, bookID int64, ref bookmodel.Reference) error
}

type BorrowingReader interface {
	GetBorrowing(ctx context.Context, id string) (*borrowingmodel.Borrowing, error)
}

type DonationReader interface {
	Get(ctx context.Context, id int64) (*donationmodel.Donation, error)
}

type DeliveryService struct {
	repo          repository.Repository
	notifications NotificationClaimer
	ledger        ReceiptLedger
	borrowings    BorrowingReader
	donations     DonationReader
	tx            database.Transactor
	now           func() time.Time
}

func NewService(
	repo repository.Repository,
	notifications NotificationClaimer,
	ledger ReceiptLedger,
	borrowings BorrowingReader,
	donations DonationReader,
	tx database.Transactor,
) *DeliveryService {
	return &DeliveryService{
		repo:          repo,
		notifications: notifications,
		ledger:        ledger,
		borrowings:    borrowings,
		donations:     donations,
		tx:            tx,
		now:           time.Now,
	}
}

// CreateFromNotification claims a waiting notification and schedules the
// pickup in one transaction.
func (s *DeliveryService) CreateFromNotification(ctx context.Context, userID uuid.UUID, req model.CreateRequest) (*model.Delivery, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.NewValidation(err)
	}

	return database.WithinTxResult(ctx, s.tx, func(ctx context.Context) (*model.Delivery, error) {
		n, err := s.notifications.ClaimForDelivery(ctx, userID, req.NotificationID)
		if err != nil {
			return nil, err
		}

		d := &model.Delivery{
			ID:             uuid.New(),
			UserID:         userID,
			NotificationID: n.ID,
			Name:           req.Name,
			Address:        req.Address,
			PhoneNumber:    req.PhoneNumber,
			PreferredDate:  *req.PreferredDate,
			Latitude:       *req.Latitude,
			Longitude:      *req.Longitude,
			Status:         model.StatusOnTheWay,
			Type:           n.Type,
			ReferenceID:    n.ReferenceID,
			Book:           n.Book,
		}
		if err := s.repo.Create(ctx, d); err != nil {
			return nil, err
		}

		logger.Info("delivery scheduled", map[string]interface{}{
			"delivery_id":     d.ID.String(),
			"notification_id": n.ID.String(),
			"type":            string(d.Type),
		})
		return d, nil
	})
}

// Confirm marks the delivery as arrived. Returned and donated copies get a
// delivery_received movement; the counts are left alone.
func (s *DeliveryService) Confirm(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	return database.WithinTxResult(ctx, s.tx, func(ctx context.Context) (*model.Delivery, error) {
		d, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if d.Status == model.StatusDelivered {
			return nil, model.ErrAlreadyDelivered
		}

		updated, err := s.repo.MarkDelivered(ctx, id, s.now())
		if err != nil {
			return nil, err
		}

		if updated.CarriesBook() {
			bookID, ok, err := s.bookFor(ctx, updated)
			if err != nil {
				return nil, err
			}
			if ok {
				if err := s.ledger.RecordReceipt(ctx, bookID, bookmodel.Reference{
					Type: bookmodel.RefDelivery,
					ID:   updated.ID.String(),
					Note: string(updated.Type),
				}); err != nil {
					return nil, err
				}
			} else {
				logger.Warn("delivered item has no catalog book", map[string]interface{}{
					"delivery_id":  updated.ID.String(),
					"reference_id": updated.ReferenceID,
				})
			}
		}

		logger.Info("delivery confirmed", map[string]interface{}{"delivery_id": id.String()})
		return updated, nil
	})
}

func (s *DeliveryService) Get(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DeliveryService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Delivery, error) {
	return s.repo.ListByUser(ctx, userID)
}

// bookFor resolves the catalog book behind the notification reference.
func (s *DeliveryService) bookFor(ctx context.Context, d *model.Delivery) (int64, bool, error) {
	if d.ReferenceID == "" {
		return 0, false, nil
	}

	switch d.Type {
	case notification.TypeReturn:
		b, err := s.borrowings.GetBorrowing(ctx, d.ReferenceID)
		if err != nil {
			return 0, false, err
		}
		return b.BookID, true, nil
	case notification.TypeDonation:
		donationID, err := strconv.ParseInt(d.ReferenceID, 10, 64)
		if err != nil {
			return 0, false, nil
		}
		don, err := s.donations.Get(ctx, donationID)
		if err != nil {
			return 0, false, err
		}
		if don.BookID == nil {
			return 0, false, nil
		}
		return *don.BookID, true, nil
	}
	return 0, false, nil
}
