package model

import "library-backend/internal/shared/apperror"

var (
	ErrDeliveryNotFound  = apperror.NewNotFound("DeliveryNotFound", "delivery not found")
	ErrAlreadyDelivered  = apperror.NewConflict("AlreadyDelivered", "delivery has already been confirmed")
	ErrDuplicateDelivery = apperror.NewConflict("DuplicateDelivery", "delivery details were already submitted for this notification")
)
