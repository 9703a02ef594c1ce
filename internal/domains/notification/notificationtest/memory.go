// Package notificationtest provides an in-memory notification repository.
package notificationtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/notification/model"
	"library-backend/internal/domains/notification/repository"
)

var _ repository.Repository = (*Repository)(nil)

type Repository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Notification
}

func NewRepository() *Repository {
	return &Repository{items: map[uuid.UUID]*model.Notification{}}
}

// All returns every stored notification, oldest first.
func (r *Repository) All() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Notification, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *Repository) Create(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, model.ErrNotificationNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *Repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	return r.GetByID(ctx, id)
}

func (r *Repository) ListByUser(_ context.Context, userID uuid.UUID, statuses []model.Status) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Notification, 0)
	for _, n := range r.items {
		if n.UserID != userID {
			continue
		}
		for _, s := range statuses {
			if n.Status == s {
				out = append(out, *n)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Repository) MarkRead(_ context.Context, userID, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return model.ErrNotificationNotFound
	}
	n.IsRead = true
	if n.ReadAt == nil {
		n.ReadAt = &at
	}
	return nil
}

func (r *Repository) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.Status != from {
		return model.ErrNotWaiting
	}
	n.Status = to
	return nil
}

func (r *Repository) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, item := range r.items {
		if item.IsRead && item.ReadAt != nil && item.ReadAt.Before(cutoff) && item.Status != model.StatusWaiting {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}
