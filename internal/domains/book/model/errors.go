package model

import "library-backend/internal/shared/apperror"

var (
	ErrBookNotFound      = apperror.NewNotFound("BookNotFound", "book not found")
	ErrBookNotAvailable  = apperror.NewConflict("BookNotAvailable", "no copies of this book are available")
	ErrVersionConflict   = apperror.NewConflict("VersionConflict", "book was modified by another user, refresh and try again")
	ErrDuplicateBook     = apperror.NewConflict("DuplicateBook", "a book with the same title, author, category and year already exists")
	ErrBookInUse         = apperror.NewConflict("BookInUse", "book has pending or active borrowings")
	ErrTotalBelowLentOut = apperror.NewConflict("TotalBelowLentOut", "total copies cannot be lower than copies currently lent out")
	ErrPhotoNotFound     = apperror.NewNotFound("PhotoNotFound", "book has no photo")
	ErrInvalidPhoto      = apperror.Validationf("photo must be a JPEG or PNG image within the size limit")
)
