// Package deliverytest provides an in-memory delivery repository.
package deliverytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/delivery/model"
	"library-backend/internal/domains/delivery/repository"
)

var _ repository.Repository = (*Repository)(nil)

type Repository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Delivery
}

func NewRepository() *Repository {
	return &Repository{items: map[uuid.UUID]*model.Delivery{}}
}

func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Repository) Create(_ context.Context, d *model.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.NotificationID == d.NotificationID {
			return model.ErrDuplicateDelivery
		}
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	r.items[d.ID] = &cp
	return nil
}

func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*model.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok {
		return nil, model.ErrDeliveryNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *Repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	return r.GetByID(ctx, id)
}

func (r *Repository) MarkDelivered(_ context.Context, id uuid.UUID, at time.Time) (*model.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok || d.Status != model.StatusOnTheWay {
		return nil, model.ErrAlreadyDelivered
	}
	d.Status = model.StatusDelivered
	d.DeliveredAt = &at
	d.UpdatedAt = at
	cp := *d
	return &cp, nil
}

func (r *Repository) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Delivery, 0)
	for _, d := range r.items {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
