package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookmodel "library-backend/internal/domains/book/model"
	"library-backend/internal/domains/delivery/deliverytest"
	"library-backend/internal/domains/delivery/service"
	notification "library-backend/internal/domains/notification/model"
	"library-backend/internal/domains/notification/notificationtest"
	notificationservice "library-backend/internal/domains/notification/service"
	"library-backend/internal/shared"
	"library-backend/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopLedger struct{ receipts int }

func (l *nopLedger) RecordReceipt(context.Context, int64, bookmodel.Reference) error {
	l.receipts++
	return nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func TestDeliveryRoutes(t *testing.T) {
	user := uuid.New()
	role := shared.RoleCustomer
	notifier := notificationservice.NewService(notificationtest.NewRepository(), testutil.NewCache(), nil, nil)
	n, err := notifier.Emit(context.Background(), notification.Event{
		UserID: user, Message: "borrow accepted", Status: notification.StatusWaiting, Type: notification.TypeBorrow,
	})
	require.NoError(t, err)

	ledger := &nopLedger{}
	h := NewHandler(service.NewService(deliverytest.NewRepository(), notifier, ledger, nil, nil, &testutil.Transactor{}))
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(shared.CtxUserID, user)
		c.Set(shared.CtxRole, role)
	})
	r.POST("/deliveries", h.CreateDelivery)
	r.PATCH("/deliveries/:id/confirm", h.ConfirmDelivery)
	r.GET("/deliveries/me", h.MyDeliveries)
	r.GET("/deliveries/:id", h.GetDelivery)

	do := func(method, path string, body interface{}) (int, envelope) {
		var buf bytes.Buffer
		if body != nil {
			_ = json.NewEncoder(&buf).Encode(body)
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var env envelope
		_ = json.Unmarshal(w.Body.Bytes(), &env)
		return w.Code, env
	}

	body := map[string]interface{}{
		"notification_id": n.ID,
		"name":            "Ann Reader",
		"address":         "12 Library Lane",
		"phone_number":    "0912-345-678",
		"preferred_date":  time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"latitude":        0,
		"longitude":       106.7,
	}

	code, env := do(http.MethodPost, "/deliveries", body)
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "on the way", created.Status)

	code, env = do(http.MethodPost, "/deliveries", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "NotWaiting", env.Error.Code)

	delete(body, "longitude")
	code, env = do(http.MethodPost, "/deliveries", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ValidationFailed", env.Error.Code)

	code, _ = do(http.MethodGet, "/deliveries/me", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(http.MethodPatch, "/deliveries/"+created.ID.String()+"/confirm", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Zero(t, ledger.receipts)

	code, env = do(http.MethodPatch, "/deliveries/"+created.ID.String()+"/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "AlreadyDelivered", env.Error.Code)

	user = uuid.New()
	code, _ = do(http.MethodGet, "/deliveries/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	role = shared.RoleLibrarian
	code, _ = do(http.MethodGet, "/deliveries/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, code)
}
