package model

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusBorrowed Status = "borrowed"
	StatusRejected Status = "rejected"
	StatusReturned Status = "returned"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusBorrowed, StatusRejected, StatusReturned:
		return true
	}
	return false
}

// IsActive reports whether the borrowing still holds a copy.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusBorrowed
}

type Borrowing struct {
	BorrowingID string     `json:"borrowing_id"`
	BookID      int64      `json:"book_id"`
	UserID      uuid.UUID  `json:"user_id"`
	BorrowDate  time.Time  `json:"borrow_date"`
	DueDate     time.Time  `json:"due_date"`
	ReturnDate  *time.Time `json:"return_date"`
	Status      Status     `json:"borrowing_status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsOverdue is true for a borrowed copy past its due date.
func (b *Borrowing) IsOverdue(now time.Time) bool {
	return b.Status == StatusBorrowed && b.DueDate.Before(now)
}

// BorrowingDetail is a borrowing joined with its book for listings.
type BorrowingDetail struct {
	Borrowing
	BookTitle  string `json:"book_title"`
	BookAuthor string `json:"book_author"`
	Overdue    bool   `json:"overdue"`
}

// NewID returns a time ordered, randomly suffixed borrowing id.
func NewID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
