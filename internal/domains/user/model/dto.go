package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type RegisterRequest struct {
	Username   string `json:"username" form:"username"`
	Password   string `json:"password" form:"password"`
	UserType   Role   `json:"user_type" form:"user_type"`
	UserNumber string `json:"user_number" form:"user_number"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&r.UserType, validation.Required, validation.In(RoleLibrarian, RoleCustomer)),
		validation.Field(&r.UserNumber, validation.Length(0, 32)),
	)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"token_expires"`
}

type ListRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
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

type ListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
