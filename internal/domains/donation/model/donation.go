package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	bookmodel "library-backend/internal/domains/book/model"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusRejected
}

type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionGood Condition = "good"
	ConditionWorn Condition = "worn"
)

type Donation struct {
	DonationID      int64     `json:"donation_id"`
	UserID          uuid.UUID `json:"user_id"`
	BookTitle       string    `json:"book_title"`
	BookAuthor      string    `json:"book_author"`
	Condition       Condition `json:"book_condition"`
	Category        string    `json:"category"`
	PublicationYear int       `json:"publication_year"`
	PhotoKey        string    `json:"-"`
	Status          Status    `json:"donation_status"`
	BookID          *int64    `json:"book_id,omitempty"`
	DonationDate    time.Time `json:"donation_date"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PhotoURL is the API path that streams the donation photo.
func (d *Donation) PhotoURL() string {
	return fmt.Sprintf("/api/v1/donations/%d/photo", d.DonationID)
}

// Tuple is the catalog identity the donation folds into on acceptance.
func (d *Donation) Tuple() bookmodel.Tuple {
	return bookmodel.Tuple{
		Title:           d.BookTitle,
		Author:          d.BookAuthor,
		Category:        d.Category,
		PublicationYear: d.PublicationYear,
	}.Normalize()
}

type DonationResponse struct {
	*Donation
	Photo string `json:"book_photo"`
}

func (d *Donation) ToResponse() DonationResponse {
	return DonationResponse{Donation: d, Photo: d.PhotoURL()}
}
