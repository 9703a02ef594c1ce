package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/config"
	"library-backend/internal/domains/book/booktest"
	bookmodel "library-backend/internal/domains/book/model"
	"library-backend/internal/domains/borrowing/borrowingtest"
	"library-backend/internal/domains/delivery/deliverytest"
	"library-backend/internal/domains/donation/donationtest"
	"library-backend/internal/domains/notification/notificationtest"
	"library-backend/internal/domains/studyroom/studyroomtest"
	"library-backend/internal/domains/user/usertest"
	"library-backend/internal/infrastructure/queue"
	"library-backend/internal/testutil"
	"library-backend/pkg/container"
	"library-backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopEnqueuer struct{}

func (nopEnqueuer) EnqueueContext(context.Context, *asynq.Task, ...asynq.Option) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{ID: "task"}, nil
}

func newTestContainer() *container.Container {
	c := &container.Container{
		Config: &config.Config{
			JWT:   config.JWTConfig{SignupTTL: 24 * time.Hour, LoginTTL: 7 * 24 * time.Hour},
			MinIO: config.MinIOConfig{MaxPhotoMB: 1},
			CORS:  config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		},
		Cache:      testutil.NewCache(),
		Tx:         &testutil.Transactor{},
		JWTManager: jwt.NewManager("test-secret", "library-backend"),
		Jobs:       queue.NewDispatcher(nopEnqueuer{}),
		Photos:     testutil.NewPhotos(),

		BookRepo:         booktest.NewRepository(),
		BorrowingRepo:    borrowingtest.NewRepository(),
		DonationRepo:     donationtest.NewRepository(),
		NotificationRepo: notificationtest.NewRepository(),
		DeliveryRepo:     deliverytest.NewRepository(),
		UserRepo:         usertest.NewRepository(),
		StudyRoomRepo:    studyroomtest.NewRepository(),
	}
	c.Wire()
	return c
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type client struct {
	t      *testing.T
	router *gin.Engine
}

func (cl client) do(method, path, token string, body interface{}) (int, envelope) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(cl.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return cl.send(req, token)
}

func (cl client) send(req *http.Request, token string) (int, envelope) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	cl.router.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func (cl client) token(path string, body interface{}) string {
	_, env := cl.do(http.MethodPost, path, "", body)
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(cl.t, json.Unmarshal(env.Data, &auth))
	require.NotEmpty(cl.t, auth.Token)
	return auth.Token
}

func TestLifecycleRoutes(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer()
	cl := client{t: t, router: SetupRouter(c)}

	book, err := c.Ledger.FindOrCreateBook(ctx, bookmodel.Tuple{
		Title: "Dune", Author: "Frank Herbert", Category: "Sci-Fi", PublicationYear: 1965,
	}, nil, bookmodel.Reference{Type: bookmodel.RefCatalog, ID: "seed"})
	require.NoError(t, err)

	_, err = c.UserService.CreateLibrarian(ctx, "head-librarian", "secret1")
	require.NoError(t, err)
	librarian := cl.token("/api/v1/auth/login", map[string]string{"username": "head-librarian", "password": "secret1"})
	customer := cl.token("/api/v1/auth/register", map[string]string{
		"username": "reader", "password": "secret1", "user_type": "customer",
	})

	borrow := map[string]interface{}{
		"book_id":  book.BookID,
		"due_date": time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339),
	}

	code, _ := cl.do(http.MethodPost, "/api/v1/borrow", "", borrow)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = cl.do(http.MethodPost, "/api/v1/borrow", librarian, borrow)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := cl.do(http.MethodPost, "/api/v1/borrow", customer, borrow)
	require.Equal(t, http.StatusOK, code)
	var b struct {
		ID string `json:"borrowing_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &b))

	code, env = cl.do(http.MethodPost, "/api/v1/borrow", customer, borrow)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "BookNotAvailable", env.Error.Code)

	code, _ = cl.do(http.MethodPut, "/api/v1/accept-borrow/"+b.ID, customer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = cl.do(http.MethodPut, "/api/v1/accept-borrow/"+b.ID, librarian, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = cl.do(http.MethodPut, "/api/v1/reject-borrow/"+b.ID, librarian, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "NotPending", env.Error.Code)

	code, _ = cl.do(http.MethodPut, "/api/v1/return/"+b.ID, customer, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = cl.do(http.MethodPut, "/api/v1/return/"+b.ID, customer, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "AlreadyReturned", env.Error.Code)

	stored, err := c.BookService.GetBookByID(ctx, book.BookID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AvailableCopies)

	code, env = cl.do(http.MethodGet, "/api/v1/notifications", customer, nil)
	require.Equal(t, http.StatusOK, code)
	var inbox []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &inbox))
	assert.Len(t, inbox, 2)
}

func TestDonationRoutes(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer()
	cl := client{t: t, router: SetupRouter(c)}

	_, err := c.UserService.CreateLibrarian(ctx, "head-librarian", "secret1")
	require.NoError(t, err)
	librarian := cl.token("/api/v1/auth/login", map[string]string{"username": "head-librarian", "password": "secret1"})
	customer := cl.token("/api/v1/auth/register", map[string]string{
		"username": "giver", "password": "secret1", "user_type": "customer",
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"book_title": "Emma", "book_author": "Jane Austen", "book_condition": "good",
		"category": "Classic", "publication_year": "1815",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("photo", "emma.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("cover"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/donate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	code, env := cl.send(req, customer)
	require.Equal(t, http.StatusCreated, code)
	var d struct {
		ID int64 `json:"donation_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &d))

	path := "/api/v1/accept-donation/" + strconv.FormatInt(d.ID, 10)
	code, _ = cl.do(http.MethodPut, path, customer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = cl.do(http.MethodPut, path, librarian, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = cl.do(http.MethodPut, "/api/v1/reject-donation/"+strconv.FormatInt(d.ID, 10), librarian, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "NotPending", env.Error.Code)

	code, env = cl.do(http.MethodPut, "/api/v1/accept-donation/999", librarian, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "DonationNotFound", env.Error.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	c := newTestContainer()
	cl := client{t: t, router: SetupRouter(c)}
	customer := cl.token("/api/v1/auth/register", map[string]string{
		"username": "leaver", "password": "secret1", "user_type": "customer",
	})

	code, _ := cl.do(http.MethodGet, "/api/v1/users/me", customer, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = cl.do(http.MethodPost, "/api/v1/auth/logout", customer, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = cl.do(http.MethodGet, "/api/v1/users/me", customer, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}
