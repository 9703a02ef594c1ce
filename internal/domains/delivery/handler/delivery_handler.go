package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/domains/delivery/model"
	"library-backend/internal/domains/delivery/service"
	"library-backend/internal/shared"
	"library-backend/internal/shared/response"
	"library-backend/internal/shared/utils"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// CreateDelivery - POST /api/v1/deliveries
func (h *Handler) CreateDelivery(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req model.CreateRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	d, err := h.service.CreateFromNotification(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Delivery scheduled", d)
}

// ConfirmDelivery - PATCH /api/v1/deliveries/:id/confirm
func (h *Handler) ConfirmDelivery(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	d, err := h.service.Confirm(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Delivery confirmed", d)
}

// GetDelivery - GET /api/v1/deliveries/:id
// Customers only see their own deliveries.
func (h *Handler) GetDelivery(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if utils.CurrentRole(c) != shared.RoleLibrarian {
		userID, err := utils.CurrentUserID(c)
		if err != nil || userID != d.UserID {
			response.Error(c, model.ErrDeliveryNotFound)
			return
		}
	}
	response.Success(c, http.StatusOK, "Delivery retrieved", d)
}

// MyDeliveries - GET /api/v1/deliveries/me
func (h *Handler) MyDeliveries(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.list(c, userID)
}

// UserDeliveries - GET /api/v1/users/:id/deliveries
func (h *Handler) UserDeliveries(c *gin.Context) {
	userID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.list(c, userID)
}

func (h *Handler) list(c *gin.Context, userID uuid.UUID) {
	items, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Deliveries retrieved", items)
}
