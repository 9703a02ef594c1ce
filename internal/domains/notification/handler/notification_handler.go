package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/notification/service"
	"library-backend/internal/shared/response"
	"library-backend/internal/shared/utils"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// ListNotifications - GET /api/v1/notifications
// Waiting and rejected notifications of the caller, newest first.
func (h *Handler) ListNotifications(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	items, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Notifications retrieved", items)
}

// MarkAsRead - PUT /api/v1/notifications/:id/read
func (h *Handler) MarkAsRead(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Notification marked as read", nil)
}

// SendOverdue - POST /api/v1/notifications/overdue/:borrowingId
func (h *Handler) SendOverdue(c *gin.Context) {
	n, err := h.service.SendOverdue(c.Request.Context(), c.Param("borrowingId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Overdue notification sent", n)
}
