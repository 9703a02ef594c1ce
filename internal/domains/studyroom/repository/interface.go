package repository

import (
	"context"

	"library-backend/internal/domains/studyroom/model"
)

type Repository interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id int64) (*model.Room, error)
	// List returns rooms ordered by id; an empty status lists all rooms.
	List(ctx context.Context, status model.Status) ([]model.Room, error)
	Update(ctx context.Context, id int64, req model.UpdateRoomRequest) (*model.Room, error)
	Delete(ctx context.Context, id int64) error

	// SetStatus moves a room from one status to another and returns
	// ErrRoomNotFound when no room with that id currently holds from.
	SetStatus(ctx context.Context, id int64, from, to model.Status) (*model.Room, error)

	CreateBooking(ctx context.Context, b *model.Booking) error
	ListBookings(ctx context.Context, req model.BookingListRequest) ([]model.BookingDetail, int, error)
}
