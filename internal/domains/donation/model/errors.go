package model

import "library-backend/internal/shared/apperror"

var (
	ErrDonationNotFound = apperror.NewNotFound("DonationNotFound", "donation not found")
	ErrNotPending       = apperror.NewConflict("NotPending", "donation is no longer pending")
	ErrStillPending     = apperror.NewConflict("StillPending", "a pending donation must be accepted or rejected before deletion")
	ErrPhotoRequired    = apperror.Validationf("photo is required")
	ErrInvalidPhoto     = apperror.Validationf("photo must be a JPEG or PNG image within the size limit")
	ErrPhotoNotFound    = apperror.NewNotFound("PhotoNotFound", "donation photo not found")
)
