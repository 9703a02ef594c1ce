// Package borrowingtest provides an in-memory borrowing repository.
package borrowingtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/borrowing/repository"
)

var _ repository.Repository = (*Repository)(nil)

type Repository struct {
	mu    sync.Mutex
	items map[string]*model.Borrowing
	// Titles feeds BorrowingDetail.BookTitle by book id.
	Titles map[int64]string
}

func NewRepository() *Repository {
	return &Repository{items: map[string]*model.Borrowing{}, Titles: map[int64]string{}}
}

func (r *Repository) Seed(b model.Borrowing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[b.BorrowingID] = &b
}

func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Repository) Create(_ context.Context, b *model.Borrowing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.items[b.BorrowingID] = &cp
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*model.Borrowing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil, model.ErrBorrowingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *Repository) GetByIDForUpdate(ctx context.Context, id string) (*model.Borrowing, error) {
	return r.GetByID(ctx, id)
}

func (r *Repository) Transition(_ context.Context, id string, from, to model.Status, returnDate *time.Time) (*model.Borrowing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok || b.Status != from {
		return nil, model.ErrNotPending
	}
	b.Status = to
	if returnDate != nil {
		b.ReturnDate = returnDate
	}
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *Repository) List(_ context.Context, req model.ListRequest) ([]model.BorrowingDetail, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]model.BorrowingDetail, 0)
	for _, b := range r.items {
		if req.Status != "" && b.Status != req.Status {
			continue
		}
		if req.UserID != nil && b.UserID != *req.UserID {
			continue
		}
		if req.Overdue && !b.IsOverdue(req.Now) {
			continue
		}
		matched = append(matched, model.BorrowingDetail{
			Borrowing: *b,
			BookTitle: r.Titles[b.BookID],
			Overdue:   b.IsOverdue(req.Now),
		})
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].BorrowDate.After(matched[j].BorrowDate) })

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
