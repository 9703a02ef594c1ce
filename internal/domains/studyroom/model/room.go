package model

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusBooked    Status = "booked"
)

func (s Status) IsValid() bool {
	return s == StatusAvailable || s == StatusBooked
}

// Room ids are assigned by the librarian, matching the number on the door.
type Room struct {
	RoomID    int64     `json:"room_id"`
	Capacity  int       `json:"capacity"`
	Status    Status    `json:"room_status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Booking struct {
	BookingID   string    `json:"booking_id"`
	RoomID      int64     `json:"room_id"`
	UserID      uuid.UUID `json:"user_id"`
	BookingDate time.Time `json:"booking_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookingDetail is a booking with the requester's username, as shown to librarians.
type BookingDetail struct {
	Booking
	Username string `json:"username"`
}

func NewBookingID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
