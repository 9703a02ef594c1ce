package storage

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Folders used as key prefixes.
const (
	FolderBooks     = "books"
	FolderDonations = "donations"
	FolderUsers     = "users"
)

// ObjectStorage is the bucket surface PhotoService needs. MinIOStorage implements it.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Open(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// PhotoStore is what domain services depend on.
type PhotoStore interface {
	Save(ctx context.Context, folder string, data []byte) (string, error)
	Open(ctx context.Context, key string) (*Object, error)
	Remove(ctx context.Context, key string) error
}

// InvalidPhotoError marks a rejected upload.
type InvalidPhotoError struct {
	Err error
}

func (e *InvalidPhotoError) Error() string { return "invalid photo: " + e.Err.Error() }
func (e *InvalidPhotoError) Unwrap() error { return e.Err }

// PhotoService validates, normalises and stores photos.
type PhotoService struct {
	storage   ObjectStorage
	processor *ImageProcessor
}

func NewPhotoService(storage ObjectStorage, processor *ImageProcessor) *PhotoService {
	return &PhotoService{storage: storage, processor: processor}
}

// Save returns the object key, e.g. donations/5f0c...jpg.
func (s *PhotoService) Save(ctx context.Context, folder string, data []byte) (string, error) {
	if err := s.processor.ValidateImage(data); err != nil {
		return "", &InvalidPhotoError{Err: err}
	}

	normalized, err := s.processor.Normalize(data)
	if err != nil {
		return "", &InvalidPhotoError{Err: err}
	}

	key := path.Join(folder, uuid.NewString()+".jpg")
	if err := s.storage.Upload(ctx, key, normalized, "image/jpeg"); err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}

	log.Debug().Str("key", key).Int("bytes", len(normalized)).Msg("photo stored")
	return key, nil
}

func (s *PhotoService) Open(ctx context.Context, key string) (*Object, error) {
	return s.storage.Open(ctx, key)
}

func (s *PhotoService) Remove(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}
