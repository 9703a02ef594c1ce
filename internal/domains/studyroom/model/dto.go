package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	jsoniter "github.com/json-iterator/go"

	"library-backend/internal/shared"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type CreateRoomRequest struct {
	RoomID   int64  `json:"room_id"`
	Capacity int    `json:"capacity"`
	Status   Status `json:"room_status"`
}

func (r CreateRoomRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RoomID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Capacity, validation.Required, validation.Min(1), validation.Max(500)),
		validation.Field(&r.Status, validation.In(StatusAvailable, StatusBooked)),
	)
}

// UpdateRoomRequest changes only the fields that are present.
type UpdateRoomRequest struct {
	Capacity *int    `json:"capacity"`
	Status   *Status `json:"room_status"`
}

func (r UpdateRoomRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Capacity, validation.NilOrNotEmpty, validation.Min(1), validation.Max(500)),
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.In(StatusAvailable, StatusBooked)),
	)
}

func (r UpdateRoomRequest) Empty() bool {
	return r.Capacity == nil && r.Status == nil
}

type BookRoomRequest struct {
	RoomID      int64      `json:"room_id"`
	BookingDate *time.Time `json:"booking_date"`
}

// UnmarshalJSON takes booking_date as RFC 3339 or YYYY-MM-DD.
func (r *BookRoomRequest) UnmarshalJSON(data []byte) error {
	type alias BookRoomRequest
	var raw struct {
		alias
		BookingDate *string `json:"booking_date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := shared.OptionalDateTime(raw.BookingDate, false)
	if err != nil {
		return err
	}
	*r = BookRoomRequest(raw.alias)
	r.BookingDate = date
	return nil
}

// Validate accepts any booking date from the start of today onward.
func (r BookRoomRequest) Validate(now time.Time) error {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return validation.ValidateStruct(&r,
		validation.Field(&r.RoomID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.BookingDate, validation.Required, validation.By(func(v interface{}) error {
			d, _ := v.(*time.Time)
			if d != nil && d.Before(startOfDay) {
				return validation.NewError("validation_booking_date_past", "must not be in the past")
			}
			return nil
		})),
	)
}

type ListRequest struct {
	Status Status `form:"status"`
}

type BookingListRequest struct {
	RoomID *int64 `form:"room_id"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

func (r *BookingListRequest) Normalize() {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.Limit <= 0 {
		r.Limit = 20
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
}

func (r BookingListRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

type BookingListResponse struct {
	Bookings []BookingDetail `json:"bookings"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

type BookRoomResponse struct {
	Room    *Room    `json:"room"`
	Booking *Booking `json:"booking"`
}
