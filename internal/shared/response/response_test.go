package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"library-backend/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func render(t *testing.T, err error) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Error(c, err)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestError_Conflict(t *testing.T) {
	w, body := render(t, apperror.NewConflict("BookNotAvailable", "no copies available"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "BookNotAvailable", body.Error.Code)
	assert.Equal(t, "no copies available", body.Error.Message)
}

func TestError_NotFound(t *testing.T) {
	w, body := render(t, apperror.NewNotFound("BorrowingNotFound", "borrowing not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "BorrowingNotFound", body.Error.Code)
}

func TestError_HidesInternalCause(t *testing.T) {
	w, body := render(t, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.ReasonInternal, body.Error.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, http.StatusCreated, "created", gin.H{"id": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"created","data":{"id":1}}`, w.Body.String())
}
