package model

import "library-backend/internal/shared/apperror"

var (
	ErrUserNotFound       = apperror.NewNotFound("UserNotFound", "user not found")
	ErrUsernameTaken      = apperror.NewConflict("UsernameTaken", "username already taken")
	ErrUserInUse          = apperror.NewConflict("UserInUse", "user still has borrowings, donations or deliveries")
	ErrInvalidCredentials = apperror.NewUnauthorized("InvalidCredentials", "invalid username or password")
	ErrTooManyAttempts    = apperror.NewUnauthorized("TooManyAttempts", "too many failed logins, try again later")
	ErrLibrarianSignup    = apperror.NewForbidden("LibrarianSignup", "librarian accounts are created by an operator")
	ErrInvalidPhoto       = apperror.Validationf("photo must be a JPEG or PNG image within the size limit")
	ErrPhotoNotFound      = apperror.NewNotFound("PhotoNotFound", "user photo not found")
)
