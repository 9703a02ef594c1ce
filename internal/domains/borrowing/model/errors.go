package model

import "library-backend/internal/shared/apperror"

var (
	ErrBorrowingNotFound = apperror.NewNotFound("BorrowingNotFound", "borrowing not found")
	ErrNotPending        = apperror.NewConflict("NotPending", "borrowing is no longer pending")
	ErrAlreadyReturned   = apperror.NewConflict("AlreadyReturned", "book has already been returned")
	ErrNotBorrowed       = apperror.NewConflict("NotBorrowed", "only a borrowed book can be returned")
)
