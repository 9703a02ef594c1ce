package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

// Stable machine readable reasons shared across domains.
const (
	ReasonValidationFailed = "ValidationFailed"
	ReasonInternal         = "InternalError"
	ReasonUnauthorized     = "Unauthorized"
	ReasonForbidden        = "Forbidden"
)

// AppError carries a Kind, a stable Reason string and a human message.
// Domain packages declare their sentinels as *AppError values so callers can
// use errors.Is for identity and errors.As for classification.
type AppError struct {
	Kind    Kind
	Reason  string
	Message string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind to a status code. State precondition
// failures are reported as 400 like malformed input.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func NewNotFound(reason, message string) *AppError {
	return &AppError{Kind: KindNotFound, Reason: reason, Message: message}
}

func NewConflict(reason, message string) *AppError {
	return &AppError{Kind: KindConflict, Reason: reason, Message: message}
}

func NewUnauthorized(reason, message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Reason: reason, Message: message}
}

func NewForbidden(reason, message string) *AppError {
	return &AppError{Kind: KindForbidden, Reason: reason, Message: message}
}

// NewValidation wraps a validation failure (usually ozzo validation.Errors,
// which renders as a field -> message object in Details).
func NewValidation(err error) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Reason:  ReasonValidationFailed,
		Message: "request validation failed",
		Details: err,
		Err:     err,
	}
}

// Validationf builds a validation error from a plain message.
func Validationf(format string, args ...interface{}) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Reason:  ReasonValidationFailed,
		Message: fmt.Sprintf(format, args...),
	}
}

func NewInternal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Reason: ReasonInternal, Message: message, Err: err}
}

// From classifies any error. Unknown errors become internal errors.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal("internal server error", err)
}

// Reason returns the stable reason of err, or "" if err is nil.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	return From(err).Reason
}

// IsKind reports whether err classifies as k.
func IsKind(err error, k Kind) bool {
	if err == nil {
		return false
	}
	return From(err).Kind == k
}
