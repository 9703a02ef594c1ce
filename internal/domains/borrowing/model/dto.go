package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"library-backend/internal/shared"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BorrowRequest is the body of POST /borrow.
type BorrowRequest struct {
	BookID  int64      `json:"book_id"`
	DueDate *time.Time `json:"due_date"`
}

// UnmarshalJSON takes due_date as RFC 3339 or YYYY-MM-DD. A bare date means
// the end of that day, so a book due today is not already overdue.
func (r *BorrowRequest) UnmarshalJSON(data []byte) error {
	type alias BorrowRequest
	var raw struct {
		alias
		DueDate *string `json:"due_date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	due, err := shared.OptionalDateTime(raw.DueDate, true)
	if err != nil {
		return err
	}
	*r = BorrowRequest(raw.alias)
	r.DueDate = due
	return nil
}

// Validate checks presence and that the due date is not in the past.
func (r BorrowRequest) Validate(now time.Time) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.DueDate, validation.Required, validation.By(func(v interface{}) error {
			due, _ := v.(*time.Time)
			if due != nil && due.Before(now) {
				return validation.NewError("validation_due_date_past", "must not be in the past")
			}
			return nil
		})),
	)
}

// ListRequest filters GET /borrowings and the history endpoints.
type ListRequest struct {
	Status  Status `form:"status"`
	Overdue bool   `form:"overdue"`
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`

	UserID *uuid.UUID `form:"-"`
	Now    time.Time  `form:"-"`
}

func (r *ListRequest) Normalize() {
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

func (r ListRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

func (r ListRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.When(r.Status != "", validation.By(func(v interface{}) error {
			if s, _ := v.(Status); !s.IsValid() {
				return validation.NewError("validation_status", "must be pending, borrowed, rejected or returned")
			}
			return nil
		}))),
	)
}

type ListResponse struct {
	Borrowings []BorrowingDetail `json:"borrowings"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}
