// Package booktest provides an in-memory book repository with the same
// count semantics as the postgres implementation.
package booktest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/domains/book/repository"
)

var _ repository.Repository = (*Repository)(nil)

type Repository struct {
	mu        sync.Mutex
	nextID    int64
	books     map[int64]*model.Book
	movements []model.Movement
	// ActiveBorrowings marks books HasActiveBorrowings reports as busy.
	ActiveBorrowings map[int64]bool
	// DonationPhotos are photo keys held by donations.
	DonationPhotos map[string]bool
}

func NewRepository() *Repository {
	return &Repository{
		nextID:           1,
		books:            map[int64]*model.Book{},
		ActiveBorrowings: map[int64]bool{},
		DonationPhotos:   map[string]bool{},
	}
}

// Seed stores b as is, keeping its BookID.
func (r *Repository) Seed(b model.Book) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.Version == 0 {
		b.Version = 1
	}
	r.books[b.BookID] = &b
	if b.BookID >= r.nextID {
		r.nextID = b.BookID + 1
	}
}

// Book returns a copy of the stored book.
func (r *Repository) Book(id int64) (model.Book, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return model.Book{}, false
	}
	return *b, true
}

func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.books)
}

// Movements returns every recorded movement in insertion order.
func (r *Repository) Movements() []model.Movement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Movement(nil), r.movements...)
}

func (r *Repository) UpsertByTuple(_ context.Context, t model.Tuple, qty int, photoKey *string) (*model.Book, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.books {
		if b.Tuple() == t {
			b.TotalCopies += qty
			b.AvailableCopies += qty
			if photoKey != nil {
				b.PhotoKey = photoKey
			}
			b.UpdatedAt = time.Now()
			cp := *b
			return &cp, false, nil
		}
	}

	now := time.Now()
	b := &model.Book{
		BookID:          r.nextID,
		Title:           t.Title,
		Author:          t.Author,
		Category:        t.Category,
		PublicationYear: t.PublicationYear,
		TotalCopies:     qty,
		AvailableCopies: qty,
		PhotoKey:        photoKey,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.nextID++
	r.books[b.BookID] = b
	cp := *b
	return &cp, true, nil
}

func (r *Repository) DecrementAvailable(_ context.Context, bookID int64) (*model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[bookID]
	if !ok {
		return nil, model.ErrBookNotFound
	}
	if b.AvailableCopies <= 0 {
		return nil, model.ErrBookNotAvailable
	}
	b.AvailableCopies--
	cp := *b
	return &cp, nil
}

func (r *Repository) IncrementAvailable(_ context.Context, bookID int64) (*model.Book, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[bookID]
	if !ok {
		return nil, false, model.ErrBookNotFound
	}
	clamped := b.AvailableCopies >= b.TotalCopies
	if !clamped {
		b.AvailableCopies++
	}
	cp := *b
	return &cp, clamped, nil
}

func (r *Repository) CreateMovement(_ context.Context, m *model.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *Repository) ListMovements(_ context.Context, bookID int64, limit int) ([]model.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Movement, 0)
	for i := len(r.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if r.movements[i].BookID == bookID {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}

func (r *Repository) GetByID(_ context.Context, bookID int64) (*model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[bookID]
	if !ok {
		return nil, model.ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *Repository) GetByIDForUpdate(ctx context.Context, bookID int64) (*model.Book, error) {
	return r.GetByID(ctx, bookID)
}

func (r *Repository) List(_ context.Context, req model.ListBooksRequest) ([]model.Book, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]model.Book, 0)
	for _, b := range r.books {
		if req.Search != "" &&
			!containsFold(b.Title, req.Search) && !containsFold(b.Author, req.Search) {
			continue
		}
		if req.Author != "" && !containsFold(b.Author, req.Author) {
			continue
		}
		if req.Category != "" && b.Category != req.Category {
			continue
		}
		if req.Status != "" && b.Status() != req.Status {
			continue
		}
		matched = append(matched, *b)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].BookID < matched[j].BookID })

	total := len(matched)
	start := req.Offset()
	if start > total {
		start = total
	}
	end := start + req.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *Repository) Update(_ context.Context, b *model.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.books[b.BookID]
	if !ok || cur.Version != b.Version {
		return model.ErrVersionConflict
	}
	for id, other := range r.books {
		if id != b.BookID && other.Tuple() == b.Tuple() {
			return model.ErrDuplicateBook
		}
	}
	if b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies {
		return model.ErrTotalBelowLentOut
	}

	b.Version++
	b.UpdatedAt = time.Now()
	cp := *b
	r.books[b.BookID] = &cp
	return nil
}

func (r *Repository) UpdatePhoto(_ context.Context, bookID int64, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[bookID]
	if !ok {
		return model.ErrBookNotFound
	}
	b.PhotoKey = &key
	return nil
}

func (r *Repository) Delete(_ context.Context, bookID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[bookID]; !ok {
		return model.ErrBookNotFound
	}
	delete(r.books, bookID)
	return nil
}

func (r *Repository) HasActiveBorrowings(_ context.Context, bookID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ActiveBorrowings[bookID], nil
}

func (r *Repository) PhotoReferenced(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DonationPhotos[key] {
		return true, nil
	}
	for _, b := range r.books {
		if b.PhotoKey != nil && *b.PhotoKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) Categories(_ context.Context) ([]model.CategorySummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName := map[string]*model.CategorySummary{}
	for _, b := range r.books {
		c, ok := byName[b.Category]
		if !ok {
			c = &model.CategorySummary{Category: b.Category}
			byName[b.Category] = c
		}
		c.Titles++
		c.TotalCopies += b.TotalCopies
		c.AvailableCopies += b.AvailableCopies
	}

	out := make([]model.CategorySummary, 0, len(byName))
	for _, c := range byName {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
