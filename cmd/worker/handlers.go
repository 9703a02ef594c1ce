package main

import (
	"time"

	"github.com/hibiken/asynq"

	notificationJob "library-backend/internal/domains/notification/job"
	storageJob "library-backend/internal/infrastructure/storage/job"
	"library-backend/internal/shared"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	deletePhoto *storageJob.DeletePhotoHandler
	cleanupRead *notificationJob.CleanupReadHandler
}

func newHandlerRegistry(photos storageJob.PhotoRemover, notifications notificationJob.ReadCleaner, retention time.Duration) *HandlerRegistry {
	return &HandlerRegistry{
		deletePhoto: storageJob.NewDeletePhotoHandler(photos),
		cleanupRead: notificationJob.NewCleanupReadHandler(notifications, retention),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeDeletePhoto, h.deletePhoto.ProcessTask)
	mux.HandleFunc(shared.TypeCleanupReadNotifications, h.cleanupRead.ProcessTask)
}
