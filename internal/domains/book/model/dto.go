package model

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	minPublicationYear = 1000
	maxTotalCopies     = 10000
)

func maxPublicationYear() int {
	return time.Now().Year() + 1
}

// CreateBookRequest adds copies of a book to the catalog. An existing
// (title, author, category, year) tuple gets its counts incremented.
type CreateBookRequest struct {
	Title           string `json:"title" form:"title"`
	Author          string `json:"author" form:"author"`
	Category        string `json:"category" form:"category"`
	PublicationYear int    `json:"publication_year" form:"publication_year"`
	Copies          int    `json:"total_copies" form:"total_copies"`
}

func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Author, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Category, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.PublicationYear, validation.Required, validation.Min(minPublicationYear), validation.Max(maxPublicationYear())),
		validation.Field(&r.Copies, validation.Min(0), validation.Max(maxTotalCopies)),
	)
}

func (r CreateBookRequest) Tuple() Tuple {
	return Tuple{
		Title:           r.Title,
		Author:          r.Author,
		Category:        r.Category,
		PublicationYear: r.PublicationYear,
	}.Normalize()
}

// Quantity defaults to one copy.
func (r CreateBookRequest) Quantity() int {
	if r.Copies <= 0 {
		return 1
	}
	return r.Copies
}

// UpdateBookRequest patches metadata. Version is required for optimistic locking.
type UpdateBookRequest struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	Category        *string `json:"category"`
	PublicationYear *int    `json:"publication_year"`
	TotalCopies     *int    `json:"total_copies"`
	Version         int     `json:"version"`
}

func (r UpdateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Author, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Category, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.PublicationYear, validation.NilOrNotEmpty, validation.Min(minPublicationYear), validation.Max(maxPublicationYear())),
		validation.Field(&r.TotalCopies, validation.Min(0), validation.Max(maxTotalCopies)),
		validation.Field(&r.Version, validation.Required, validation.Min(1)),
	)
}

// Apply copies the set fields onto b.
func (r UpdateBookRequest) Apply(b *Book) {
	if r.Title != nil {
		b.Title = *r.Title
	}
	if r.Author != nil {
		b.Author = *r.Author
	}
	if r.Category != nil {
		b.Category = *r.Category
	}
	if r.PublicationYear != nil {
		b.PublicationYear = *r.PublicationYear
	}
	t := b.Tuple().Normalize()
	b.Title, b.Author, b.Category = t.Title, t.Author, t.Category
}

// ListBooksRequest filters the catalog.
type ListBooksRequest struct {
	Search   string `form:"search"`
	Author   string `form:"author"`
	Category string `form:"category"`
	Status   Status `form:"status"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

func (r *ListBooksRequest) Normalize() {
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

func (r ListBooksRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

func (r ListBooksRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.When(r.Status != "", validation.By(func(v interface{}) error {
			if s, _ := v.(Status); !s.IsValid() {
				return fmt.Errorf("must be available or borrowed")
			}
			return nil
		}))),
		validation.Field(&r.Search, validation.Length(0, 100)),
	)
}

// BookResponse is the API representation of a book.
type BookResponse struct {
	BookID          int64     `json:"book_id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Category        string    `json:"category"`
	PublicationYear int       `json:"publication_year"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	Status          Status    `json:"book_status"`
	PhotoURL        string    `json:"book_photo,omitempty"`
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PhotoPath is the API path that streams a book photo.
func PhotoPath(bookID int64) string {
	return fmt.Sprintf("/api/v1/books/%d/photo", bookID)
}

func (b *Book) ToResponse() BookResponse {
	resp := BookResponse{
		BookID:          b.BookID,
		Title:           b.Title,
		Author:          b.Author,
		Category:        b.Category,
		PublicationYear: b.PublicationYear,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		Status:          b.Status(),
		Version:         b.Version,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.PhotoKey != nil && *b.PhotoKey != "" {
		resp.PhotoURL = PhotoPath(b.BookID)
	}
	return resp
}

type ListBooksResponse struct {
	Books []BookResponse `json:"books"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
