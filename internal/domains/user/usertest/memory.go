// Package usertest provides an in-memory user repository.
package usertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/user/model"
	"library-backend/internal/domains/user/repository"
)

var _ repository.Repository = (*Repository)(nil)

type Repository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.User
	// InUse marks users Delete refuses.
	InUse map[uuid.UUID]bool
}

func NewRepository() *Repository {
	return &Repository{items: map[uuid.UUID]*model.User{}, InUse: map[uuid.UUID]bool{}}
}

func (r *Repository) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Username == u.Username {
			return model.ErrUsernameTaken
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.items[u.ID] = &cp
	return nil
}

func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *Repository) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *Repository) ListByType(_ context.Context, role model.Role, limit, offset int) ([]model.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]model.User, 0)
	for _, u := range r.items {
		if u.UserType == role {
			matched = append(matched, *u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *Repository) UpdatePhoto(_ context.Context, id uuid.UUID, key string) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	previous := u.PhotoKey
	u.PhotoKey = &key
	return previous, nil
}

func (r *Repository) Delete(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if r.InUse[id] {
		return nil, model.ErrUserInUse
	}
	delete(r.items, id)
	return u, nil
}
