package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/studyroom/model"
	"library-backend/internal/domains/studyroom/service"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/shared/response"
	"library-backend/internal/shared/utils"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// ListRooms - GET /api/v1/study-rooms?status=
func (h *Handler) ListRooms(c *gin.Context) {
	var req model.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperror.Validationf("invalid query: %v", err))
		return
	}
	h.respondRooms(c, req.Status)
}

// EmptyRooms - GET /api/v1/study-rooms/empty
func (h *Handler) EmptyRooms(c *gin.Context) {
	h.respondRooms(c, model.StatusAvailable)
}

// OccupiedRooms - GET /api/v1/study-rooms/occupied
func (h *Handler) OccupiedRooms(c *gin.Context) {
	h.respondRooms(c, model.StatusBooked)
}

func (h *Handler) respondRooms(c *gin.Context, status model.Status) {
	rooms, err := h.service.ListRooms(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Study rooms retrieved", rooms)
}

// GetRoom - GET /api/v1/study-rooms/:id
func (h *Handler) GetRoom(c *gin.Context) {
	id, err := utils.ParseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	room, err := h.service.GetRoom(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Study room retrieved", room)
}

// CreateRoom - POST /api/v1/study-rooms
func (h *Handler) CreateRoom(c *gin.Context) {
	var req model.CreateRoomRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	room, err := h.service.CreateRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Study room created", room)
}

// UpdateRoom - PUT /api/v1/study-rooms/:id
func (h *Handler) UpdateRoom(c *gin.Context) {
	id, err := utils.ParseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req model.UpdateRoomRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	room, err := h.service.UpdateRoom(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Study room updated", room)
}

// DeleteRoom - DELETE /api/v1/study-rooms/:id
func (h *Handler) DeleteRoom(c *gin.Context) {
	id, err := utils.ParseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteRoom(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Study room deleted", nil)
}

// BookRoom - POST /api/v1/study-rooms/book
func (h *Handler) BookRoom(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req model.BookRoomRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	resp, err := h.service.BookRoom(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Room booked successfully", resp)
}

// ReleaseRoom - PUT /api/v1/study-rooms/:id/release
func (h *Handler) ReleaseRoom(c *gin.Context) {
	id, err := utils.ParseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	room, err := h.service.ReleaseRoom(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Study room released", room)
}

// ListBookings - GET /api/v1/study-rooms/requests?room_id=&page=&limit=
func (h *Handler) ListBookings(c *gin.Context) {
	var req model.BookingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperror.Validationf("invalid query: %v", err))
		return
	}
	data, err := h.service.ListBookings(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, "Room bookings retrieved", data.Bookings, &response.Meta{
		Page:  data.Page,
		Limit: data.Limit,
		Total: data.Total,
	})
}
