// Package studyroomtest provides an in-memory study room repository.
package studyroomtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/studyroom/model"
	"library-backend/internal/domains/studyroom/repository"
)

var _ repository.Repository = (*Repository)(nil)

type Repository struct {
	mu       sync.Mutex
	rooms    map[int64]*model.Room
	bookings []model.Booking
	// Usernames feeds BookingDetail.Username by user id.
	Usernames map[uuid.UUID]string
}

func NewRepository() *Repository {
	return &Repository{rooms: map[int64]*model.Room{}, Usernames: map[uuid.UUID]string{}}
}

func (r *Repository) Bookings() []model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Booking(nil), r.bookings...)
}

func (r *Repository) Create(_ context.Context, room *model.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room.RoomID]; ok {
		return model.ErrRoomExists
	}
	room.CreatedAt = time.Now()
	room.UpdatedAt = room.CreatedAt
	cp := *room
	r.rooms[room.RoomID] = &cp
	return nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (r *Repository) List(_ context.Context, status model.Status) ([]model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Room{}
	for _, room := range r.rooms {
		if status == "" || room.Status == status {
			out = append(out, *room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out, nil
}

func (r *Repository) Update(_ context.Context, id int64, req model.UpdateRoomRequest) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Status != nil {
		room.Status = *req.Status
	}
	room.UpdatedAt = time.Now()
	cp := *room
	return &cp, nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[id]; !ok {
		return model.ErrRoomNotFound
	}
	delete(r.rooms, id)
	kept := r.bookings[:0]
	for _, b := range r.bookings {
		if b.RoomID != id {
			kept = append(kept, b)
		}
	}
	r.bookings = kept
	return nil
}

func (r *Repository) SetStatus(_ context.Context, id int64, from, to model.Status) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok || room.Status != from {
		return nil, model.ErrRoomNotFound
	}
	room.Status = to
	room.UpdatedAt = time.Now()
	cp := *room
	return &cp, nil
}

func (r *Repository) CreateBooking(_ context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[b.RoomID]; !ok {
		return model.ErrRoomNotFound
	}
	b.CreatedAt = time.Now()
	r.bookings = append(r.bookings, *b)
	return nil
}

func (r *Repository) ListBookings(_ context.Context, req model.BookingListRequest) ([]model.BookingDetail, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.BookingDetail
	for _, b := range r.bookings {
		if req.RoomID != nil && b.RoomID != *req.RoomID {
			continue
		}
		all = append(all, model.BookingDetail{Booking: b, Username: r.Usernames[b.UserID]})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].BookingDate.Equal(all[j].BookingDate) {
			return all[i].BookingID > all[j].BookingID
		}
		return all[i].BookingDate.After(all[j].BookingDate)
	})

	total := len(all)
	start := min(req.Offset(), total)
	end := min(start+req.Limit, total)
	return all[start:end], total, nil
}
