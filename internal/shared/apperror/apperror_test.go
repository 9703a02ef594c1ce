package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSample = NewConflict("NotPending", "record is not pending")

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", Validationf("bad"), http.StatusBadRequest},
		{"conflict", errSample, http.StatusBadRequest},
		{"not found", NewNotFound("BookNotFound", "missing"), http.StatusNotFound},
		{"unauthorized", NewUnauthorized(ReasonUnauthorized, "no"), http.StatusUnauthorized},
		{"forbidden", NewForbidden(ReasonForbidden, "no"), http.StatusForbidden},
		{"internal", NewInternal("boom", errors.New("db down")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestFrom_UnwrapsWrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("accept borrowing %s: %w", "01H", errSample)

	got := From(wrapped)

	assert.Same(t, errSample, got)
	assert.ErrorIs(t, wrapped, errSample)
	assert.Equal(t, "NotPending", Reason(wrapped))
	assert.True(t, IsKind(wrapped, KindConflict))
}

func TestFrom_UnknownIsInternal(t *testing.T) {
	cause := errors.New("connection reset")

	got := From(cause)

	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, ReasonInternal, got.Reason)
	assert.ErrorIs(t, got, cause)
}

func TestFrom_Nil(t *testing.T) {
	assert.Nil(t, From(nil))
	assert.Empty(t, Reason(nil))
	assert.False(t, IsKind(nil, KindInternal))
}
