package repository

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/user/model"
)

type Repository interface {
	// Create fails with ErrUsernameTaken on a duplicate username.
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ListByType(ctx context.Context, role model.Role, limit, offset int) ([]model.User, int, error)
	// UpdatePhoto returns the key it replaced.
	UpdatePhoto(ctx context.Context, id uuid.UUID, key string) (previous *string, err error)
	// Delete fails with ErrUserInUse while other records reference the user.
	Delete(ctx context.Context, id uuid.UUID) (*model.User, error)
}
