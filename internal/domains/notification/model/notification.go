package model

import (
	"time"

	"github.com/google/uuid"

	bookmodel "library-backend/internal/domains/book/model"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusFilledIn Status = "filledin"
	StatusRejected Status = "rejected"
)

type Type string

const (
	TypeBorrow   Type = "borrow"
	TypeDonation Type = "donation"
	TypeReturn   Type = "return"
)

func (t Type) IsValid() bool {
	return t == TypeBorrow || t == TypeDonation || t == TypeReturn
}

// BookSnapshot is copied into notifications and deliveries so they render
// without joining the catalog.
type BookSnapshot struct {
	Name        string  `json:"book_name"`
	Author      string  `json:"author"`
	Category    string  `json:"category"`
	PublishYear int     `json:"publish_year"`
	Photo       *string `json:"book_photo,omitempty"`
}

type Notification struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Message     string       `json:"message"`
	Status      Status       `json:"status"`
	Type        Type         `json:"type"`
	ReferenceID string       `json:"reference_id,omitempty"`
	Book        BookSnapshot `json:"book"`
	IsRead      bool         `json:"is_read"`
	ReadAt      *time.Time   `json:"read_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Event is what the borrowing and donation state machines emit.
type Event struct {
	UserID      uuid.UUID
	Message     string
	Status      Status
	Type        Type
	ReferenceID string
	Book        BookSnapshot
}

func (e Event) ToNotification(now time.Time) *Notification {
	return &Notification{
		ID:          uuid.New(),
		UserID:      e.UserID,
		Message:     e.Message,
		Status:      e.Status,
		Type:        e.Type,
		ReferenceID: e.ReferenceID,
		Book:        e.Book,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// OverdueMessage is sent by SendOverdue.
func OverdueMessage(title string) string {
	return `Your borrowed book "` + title + `" is overdue. Please return it as soon as possible.`
}

// SnapshotOf copies the display fields of a catalog book.
func SnapshotOf(b *bookmodel.Book) BookSnapshot {
	snap := BookSnapshot{
		Name:        b.Title,
		Author:      b.Author,
		Category:    b.Category,
		PublishYear: b.PublicationYear,
	}
	if b.PhotoKey != nil && *b.PhotoKey != "" {
		photo := bookmodel.PhotoPath(b.BookID)
		snap.Photo = &photo
	}
	return snap
}
