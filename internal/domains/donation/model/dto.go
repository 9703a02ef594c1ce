package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// SubmitRequest is the multipart form of POST /donate; the photo travels
// as a separate file field.
type SubmitRequest struct {
	BookTitle       string    `form:"book_title" json:"book_title"`
	BookAuthor      string    `form:"book_author" json:"book_author"`
	Condition       Condition `form:"book_condition" json:"book_condition"`
	Category        string    `form:"category" json:"category"`
	PublicationYear int       `form:"publication_year" json:"publication_year"`
}

func (r SubmitRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookTitle, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.BookAuthor, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Condition, validation.Required, validation.In(ConditionNew, ConditionGood, ConditionWorn)),
		validation.Field(&r.Category, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.PublicationYear, validation.Required, validation.Min(1000), validation.Max(time.Now().Year()+1)),
	)
}

type ListRequest struct {
	Status Status `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`

	UserID *uuid.UUID `form:"-"`
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
		validation.Field(&r.Status, validation.In(StatusPending, StatusAccepted, StatusRejected)),
	)
}

type ListResponse struct {
	Donations []DonationResponse `json:"donations"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	Limit     int                `json:"limit"`
}
