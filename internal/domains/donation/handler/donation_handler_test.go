package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/book/booktest"
	bookservice "library-backend/internal/domains/book/service"
	"library-backend/internal/domains/donation/donationtest"
	"library-backend/internal/domains/donation/service"
	"library-backend/internal/domains/notification/notificationtest"
	notificationservice "library-backend/internal/domains/notification/service"
	"library-backend/internal/shared"
	"library-backend/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type server struct {
	engine *gin.Engine
	books  *booktest.Repository
	user   uuid.UUID
	role   string
}

func newServer(t *testing.T) *server {
	t.Helper()
	books := booktest.NewRepository()
	c := testutil.NewCache()
	tx := &testutil.Transactor{}
	photos := testutil.NewPhotos()
	jobs := &testutil.Jobs{}
	ledger := bookservice.NewLedgerService(books, tx, c)
	catalog := bookservice.NewService(books, ledger, tx, c, photos, jobs)
	notifier := notificationservice.NewService(notificationtest.NewRepository(), c, nil, catalog)
	svc := service.NewService(donationtest.NewRepository(), ledger, catalog, notifier, tx, photos, jobs)
	h := NewHandler(svc, 1<<20)

	s := &server{engine: gin.New(), books: books, user: uuid.New(), role: shared.RoleCustomer}
	s.engine.Use(func(c *gin.Context) {
		c.Set(shared.CtxUserID, s.user)
		c.Set(shared.CtxRole, s.role)
	})
	s.engine.POST("/donate", h.Donate)
	s.engine.PUT("/accept-donation/:id", h.AcceptDonation)
	s.engine.PUT("/reject-donation/:id", h.RejectDonation)
	s.engine.GET("/donations/:id", h.GetDonation)
	s.engine.GET("/donations/:id/photo", h.GetPhoto)
	s.engine.DELETE("/donations/:id", h.DeleteDonation)
	return s
}

func (s *server) serve(req *http.Request) (int, envelope, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env, w
}

func (s *server) donate(t *testing.T, fields map[string]string, photo []byte) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if photo != nil {
		fw, err := mw.CreateFormFile("photo", "cover.jpg")
		require.NoError(t, err)
		_, err = fw.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/donate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	code, env, _ := s.serve(req)
	return code, env
}

func (s *server) put(path string) (int, envelope) {
	code, env, _ := s.serve(httptest.NewRequest(http.MethodPut, path, nil))
	return code, env
}

func donationFields() map[string]string {
	return map[string]string{
		"book_title":       "Dune",
		"book_author":      "Frank Herbert",
		"book_condition":   "good",
		"category":         "Sci-Fi",
		"publication_year": "1965",
	}
}

type donationBody struct {
	DonationID int64  `json:"donation_id"`
	Status     string `json:"donation_status"`
	BookID     *int64 `json:"book_id"`
	Photo      string `json:"book_photo"`
}

func TestDonate_Created(t *testing.T) {
	s := newServer(t)

	code, env := s.donate(t, donationFields(), []byte("jpeg"))

	require.Equal(t, http.StatusCreated, code)
	var d donationBody
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, "pending", d.Status)
	assert.Equal(t, fmt.Sprintf("/api/v1/donations/%d/photo", d.DonationID), d.Photo)
}

func TestDonate_Invalid(t *testing.T) {
	s := newServer(t)

	fields := donationFields()
	fields["book_condition"] = "mint"
	code, env := s.donate(t, fields, []byte("jpeg"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ValidationFailed", env.Error.Code)

	code, _ = s.donate(t, donationFields(), nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDonationRoutes_AcceptTwiceSameTuple(t *testing.T) {
	s := newServer(t)

	for i := 1; i <= 2; i++ {
		code, env := s.donate(t, donationFields(), []byte("jpeg"))
		require.Equal(t, http.StatusCreated, code)
		var d donationBody
		require.NoError(t, json.Unmarshal(env.Data, &d))

		code, env = s.put(fmt.Sprintf("/accept-donation/%d", d.DonationID))
		require.Equal(t, http.StatusOK, code)
		require.NoError(t, json.Unmarshal(env.Data, &d))
		assert.Equal(t, "accepted", d.Status)
		require.NotNil(t, d.BookID)

		book, ok := s.books.Book(*d.BookID)
		require.True(t, ok)
		assert.Equal(t, i, book.TotalCopies)
		assert.Equal(t, i, book.AvailableCopies)
	}

	code, env := s.put("/accept-donation/1")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "NotPending", env.Error.Code)
}

func TestDonationRoutes_RejectAndErrors(t *testing.T) {
	s := newServer(t)
	code, _ := s.donate(t, donationFields(), []byte("jpeg"))
	require.Equal(t, http.StatusCreated, code)

	code, env := s.put("/reject-donation/1")
	assert.Equal(t, http.StatusOK, code)
	var d donationBody
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, "rejected", d.Status)
	assert.Equal(t, 0, s.books.Len())

	code, env = s.put("/reject-donation/1")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "NotPending", env.Error.Code)

	code, env = s.put("/accept-donation/42")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "DonationNotFound", env.Error.Code)

	code, _ = s.put("/accept-donation/abc")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetDonation_OwnerOnlyForCustomers(t *testing.T) {
	s := newServer(t)
	code, _ := s.donate(t, donationFields(), []byte("jpeg"))
	require.Equal(t, http.StatusCreated, code)

	code, _, _ = s.serve(httptest.NewRequest(http.MethodGet, "/donations/1", nil))
	assert.Equal(t, http.StatusOK, code)

	code, _, w := s.serve(httptest.NewRequest(http.MethodGet, "/donations/1/photo", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "jpeg", w.Body.String())

	s.user = uuid.New()
	code, _, _ = s.serve(httptest.NewRequest(http.MethodGet, "/donations/1", nil))
	assert.Equal(t, http.StatusNotFound, code)

	s.role = shared.RoleLibrarian
	code, _, _ = s.serve(httptest.NewRequest(http.MethodGet, "/donations/1", nil))
	assert.Equal(t, http.StatusOK, code)
}

func TestDeleteDonation_PendingRefused(t *testing.T) {
	s := newServer(t)
	code, _ := s.donate(t, donationFields(), []byte("jpeg"))
	require.Equal(t, http.StatusCreated, code)

	code, env, _ := s.serve(httptest.NewRequest(http.MethodDelete, "/donations/1", nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "StillPending", env.Error.Code)

	s.put("/reject-donation/1")
	code, _, _ = s.serve(httptest.NewRequest(http.MethodDelete, "/donations/1", nil))
	assert.Equal(t, http.StatusOK, code)
}
