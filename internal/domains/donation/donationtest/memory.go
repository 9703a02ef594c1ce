// Package donationtest provides an in-memory donation repository.
package donationtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"library-backend/internal/domains/donation/model"
	"library-backend/internal/domains/donation/repository"
)

var _ repository.Repository = (*Repository)(nil)

type Repository struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*model.Donation
	// FailCreate makes Create return the error.
	FailCreate error
}

func NewRepository() *Repository {
	return &Repository{items: map[int64]*model.Donation{}}
}

func (r *Repository) Seed(d model.Donation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.DonationID > r.nextID {
		r.nextID = d.DonationID
	}
	r.items[d.DonationID] = &d
}

func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Repository) Create(_ context.Context, d *model.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate != nil {
		return r.FailCreate
	}
	r.nextID++
	d.DonationID = r.nextID
	d.DonationDate = time.Now()
	d.UpdatedAt = d.DonationDate
	cp := *d
	r.items[d.DonationID] = &cp
	return nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*model.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok {
		return nil, model.ErrDonationNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Donation, error) {
	return r.GetByID(ctx, id)
}

func (r *Repository) Transition(_ context.Context, id int64, from, to model.Status, bookID *int64) (*model.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok || d.Status != from {
		return nil, model.ErrNotPending
	}
	d.Status = to
	if bookID != nil {
		id := *bookID
		d.BookID = &id
	}
	d.UpdatedAt = time.Now()
	cp := *d
	return &cp, nil
}

func (r *Repository) List(_ context.Context, req model.ListRequest) ([]model.Donation, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]model.Donation, 0)
	for _, d := range r.items {
		if req.Status != "" && d.Status != req.Status {
			continue
		}
		if req.UserID != nil && d.UserID != *req.UserID {
			continue
		}
		matched = append(matched, *d)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].DonationID > matched[j].DonationID })

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

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return model.ErrDonationNotFound
	}
	delete(r.items, id)
	return nil
}
