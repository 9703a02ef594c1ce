package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleLibrarian Role = "librarian"
	RoleCustomer  Role = "customer"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	UserType     Role      `json:"user_type"`
	UserNumber   string    `json:"user_number"`
	PhotoKey     *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PhotoPath is the API path that streams the profile photo of user id.
func PhotoPath(id uuid.UUID) string {
	return fmt.Sprintf("/api/v1/users/%s/photo", id)
}

type UserResponse struct {
	*User
	Photo *string `json:"user_photo,omitempty"`
}

func (u *User) ToResponse() UserResponse {
	resp := UserResponse{User: u}
	if u.PhotoKey != nil && *u.PhotoKey != "" {
		p := PhotoPath(u.ID)
		resp.Photo = &p
	}
	return resp
}
