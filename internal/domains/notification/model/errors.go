package model

import "library-backend/internal/shared/apperror"

var (
	ErrNotificationNotFound = apperror.NewNotFound("NotificationNotFound", "notification not found")
	ErrNotWaiting           = apperror.NewConflict("NotWaiting", "notification is not waiting for delivery details")
	ErrNotOverdue           = apperror.NewConflict("NotOverdue", "borrowing is not overdue")
)
