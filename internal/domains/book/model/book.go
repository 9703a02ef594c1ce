package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is derived from the copy counts and never stored.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBorrowed  Status = "borrowed"
)

func (s Status) IsValid() bool {
	return s == StatusAvailable || s == StatusBorrowed
}

// Book is one conceptual title with its physical copy counts.
// Invariant: 0 <= AvailableCopies <= TotalCopies.
type Book struct {
	BookID          int64     `json:"book_id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Category        string    `json:"category"`
	PublicationYear int       `json:"publication_year"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	PhotoKey        *string   `json:"book_photo,omitempty"`
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (b *Book) Status() Status {
	if b.AvailableCopies > 0 {
		return StatusAvailable
	}
	return StatusBorrowed
}

// LentOut is the number of copies currently reserved or borrowed.
func (b *Book) LentOut() int {
	return b.TotalCopies - b.AvailableCopies
}

func (b *Book) Tuple() Tuple {
	return Tuple{
		Title:           b.Title,
		Author:          b.Author,
		Category:        b.Category,
		PublicationYear: b.PublicationYear,
	}
}

// CategorySummary aggregates the catalog per category.
type CategorySummary struct {
	Category        string `json:"category"`
	Titles          int    `json:"titles"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

// Tuple identifies a conceptual book. Two intakes with the same tuple
// increment one record instead of creating a second one.
type Tuple struct {
	Title           string
	Author          string
	Category        string
	PublicationYear int
}

// Normalize trims surrounding whitespace so " Dune" and "Dune" collapse.
func (t Tuple) Normalize() Tuple {
	return Tuple{
		Title:           strings.TrimSpace(t.Title),
		Author:          strings.TrimSpace(t.Author),
		Category:        strings.TrimSpace(t.Category),
		PublicationYear: t.PublicationYear,
	}
}

// ================================================
// LEDGER MOVEMENTS
// ================================================

type MovementType string

const (
	MovementIntake           MovementType = "intake"
	MovementDonationIntake   MovementType = "donation_intake"
	MovementBorrowReserve    MovementType = "borrow_reserve"
	MovementBorrowRelease    MovementType = "borrow_release"
	MovementReturn           MovementType = "return"
	MovementAdjustment       MovementType = "adjustment"
	MovementDeliveryReceived MovementType = "delivery_received"
)

// Movement is an append-only audit row for every ledger change.
type Movement struct {
	ID             uuid.UUID    `json:"id"`
	BookID         int64        `json:"book_id"`
	Type           MovementType `json:"movement_type"`
	QuantityDelta  int          `json:"quantity_delta"`
	AvailableAfter int          `json:"available_after"`
	TotalAfter     int          `json:"total_after"`
	ReferenceType  string       `json:"reference_type,omitempty"`
	ReferenceID    string       `json:"reference_id,omitempty"`
	Note           string       `json:"note,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Reference types recorded on movements.
const (
	RefBorrowing = "borrowing"
	RefDonation  = "donation"
	RefDelivery  = "delivery"
	RefCatalog   = "catalog"
)

// Reference names the record that caused a ledger change.
type Reference struct {
	Type     string
	ID       string
	Note     string
	Movement MovementType // optional override of the default movement type
}

func (r Reference) MovementOr(def MovementType) MovementType {
	if r.Movement != "" {
		return r.Movement
	}
	return def
}
