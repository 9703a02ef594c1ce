package utils

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/shared"
	"library-backend/internal/shared/apperror"
)

// ErrMissingFile is returned by ReadUpload when the form field is absent.
var ErrMissingFile = apperror.Validationf("photo file is required")

// ParseInt64Param reads a positive integer path parameter.
func ParseInt64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validationf("invalid %s", name)
	}
	return id, nil
}

// ParseUUIDParam reads a uuid path parameter.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.Validationf("invalid %s", name)
	}
	return id, nil
}

// BindJSON decodes the body and maps decoding failures to a validation error.
func BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperror.Validationf("invalid request body: %v", err)
	}
	return nil
}

// CurrentUserID returns the id set by the auth middleware.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	v, ok := c.Get(shared.CtxUserID)
	if !ok {
		return uuid.Nil, apperror.NewUnauthorized(apperror.ReasonUnauthorized, "authentication required")
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, apperror.NewUnauthorized(apperror.ReasonUnauthorized, "invalid user in token")
	}
	return id, nil
}

// CurrentRole returns the role set by the auth middleware.
func CurrentRole(c *gin.Context) string {
	return c.GetString(shared.CtxRole)
}

// ReadUpload reads a multipart file of at most maxBytes.
func ReadUpload(c *gin.Context, field string, maxBytes int64) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, ErrMissingFile
		}
		return nil, apperror.Validationf("invalid multipart form: %v", err)
	}
	if fh.Size > maxBytes {
		return nil, apperror.Validationf("file exceeds %d bytes", maxBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, apperror.Validationf("file exceeds %d bytes", maxBytes)
	}
	return data, nil
}

// ReadOptionalUpload is ReadUpload that returns nil when the field is absent.
func ReadOptionalUpload(c *gin.Context, field string, maxBytes int64) ([]byte, error) {
	data, err := ReadUpload(c, field, maxBytes)
	if errors.Is(err, ErrMissingFile) {
		return nil, nil
	}
	return data, err
}
