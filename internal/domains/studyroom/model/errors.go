package model

import "library-backend/internal/shared/apperror"

var (
	ErrRoomNotFound  = apperror.NewNotFound("RoomNotFound", "study room not found")
	ErrRoomExists    = apperror.NewConflict("RoomExists", "a study room with this id already exists")
	ErrRoomBooked    = apperror.NewConflict("RoomBooked", "study room is already booked")
	ErrRoomNotBooked = apperror.NewConflict("RoomNotBooked", "study room is not booked")
)
