package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/studyroom/model"
	"library-backend/internal/domains/studyroom/repository"
	"library-backend/internal/shared/apperror"
	"library-backend/pkg/database"
	"library-backend/pkg/logger"
)

type ServiceInterface interface {
	ListRooms(ctx context.Context, status model.Status) ([]model.Room, error)
	GetRoom(ctx context.Context, id int64) (*model.Room, error)
	CreateRoom(ctx context.Context, req model.CreateRoomRequest) (*model.Room, error)
	UpdateRoom(ctx context.Context, id int64, req model.UpdateRoomRequest) (*model.Room, error)
	DeleteRoom(ctx context.Context, id int64) error

	BookRoom(ctx context.Context, userID uuid.UUID, req model.BookRoomRequest) (*model.BookRoomResponse, error)
	ReleaseRoom(ctx context.Context, id int64) (*model.Room, error)
	ListBookings(ctx context.Context, req model.BookingListRequest) (*model.BookingListResponse, error)
}

// StudyRoomService keeps one active booking per room: a room flips
// available -> booked together with the booking insert and goes back
// only when a librarian releases it.
type StudyRoomService struct {
	repo repository.Repository
	tx   database.Transactor
	now  func() time.Time
}

func NewService(repo repository.Repository, tx database.Transactor) *StudyRoomService {
	return &StudyRoomService{repo: repo, tx: tx, now: time.Now}
}

func (s *StudyRoomService) ListRooms(ctx context.Context, status model.Status) ([]model.Room, error) {
	if status != "" && !status.IsValid() {
		return nil, apperror.Validationf("status must be available or booked")
	}
	return s.repo.List(ctx, status)
}

func (s *StudyRoomService) GetRoom(ctx context.Context, id int64) (*model.Room, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *StudyRoomService) CreateRoom(ctx context.Context, req model.CreateRoomRequest) (*model.Room, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.NewValidation(err)
	}
	room := &model.Room{RoomID: req.RoomID, Capacity: req.Capacity, Status: req.Status}
	if room.Status == "" {
		room.Status = model.StatusAvailable
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, err
	}

	logger.Info("study room created", map[string]interface{}{"room_id": room.RoomID, "capacity": room.Capacity})
	return room, nil
}

func (s *StudyRoomService) UpdateRoom(ctx context.Context, id int64, req model.UpdateRoomRequest) (*model.Room, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.NewValidation(err)
	}
	if req.Empty() {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.Update(ctx, id, req)
}

// DeleteRoom refuses a room that is currently booked.
func (s *StudyRoomService) DeleteRoom(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		room, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if room.Status == model.StatusBooked {
			return model.ErrRoomBooked
		}
		return s.repo.Delete(ctx, id)
	})
}

func (s *StudyRoomService) BookRoom(ctx context.Context, userID uuid.UUID, req model.BookRoomRequest) (*model.BookRoomResponse, error) {
	now := s.now()
	if err := req.Validate(now); err != nil {
		return nil, apperror.NewValidation(err)
	}

	resp, err := database.WithinTxResult(ctx, s.tx, func(ctx context.Context) (*model.BookRoomResponse, error) {
		room, err := s.repo.SetStatus(ctx, req.RoomID, model.StatusAvailable, model.StatusBooked)
		if err != nil {
			if errors.Is(err, model.ErrRoomNotFound) {
				return nil, s.explainMiss(ctx, req.RoomID, model.ErrRoomBooked)
			}
			return nil, err
		}

		booking := &model.Booking{
			BookingID:   model.NewBookingID(now),
			RoomID:      room.RoomID,
			UserID:      userID,
			BookingDate: *req.BookingDate,
		}
		if err := s.repo.CreateBooking(ctx, booking); err != nil {
			return nil, err
		}
		return &model.BookRoomResponse{Room: room, Booking: booking}, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("study room booked", map[string]interface{}{
		"room_id":    resp.Room.RoomID,
		"booking_id": resp.Booking.BookingID,
		"user_id":    userID.String(),
	})
	return resp, nil
}

func (s *StudyRoomService) ReleaseRoom(ctx context.Context, id int64) (*model.Room, error) {
	room, err := s.repo.SetStatus(ctx, id, model.StatusBooked, model.StatusAvailable)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			return nil, s.explainMiss(ctx, id, model.ErrRoomNotBooked)
		}
		return nil, err
	}

	logger.Info("study room released", map[string]interface{}{"room_id": id})
	return room, nil
}

// explainMiss tells a missing room apart from one in the wrong status
// after a conditional status update matched nothing.
func (s *StudyRoomService) explainMiss(ctx context.Context, id int64, wrongStatus error) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return wrongStatus
}

func (s *StudyRoomService) ListBookings(ctx context.Context, req model.BookingListRequest) (*model.BookingListResponse, error) {
	req.Normalize()
	bookings, total, err := s.repo.ListBookings(ctx, req)
	if err != nil {
		return nil, err
	}
	return &model.BookingListResponse{Bookings: bookings, Total: total, Page: req.Page, Limit: req.Limit}, nil
}
