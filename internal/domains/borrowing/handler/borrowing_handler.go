package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/borrowing/service"
	"library-backend/internal/shared"
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

// RequestBorrow - POST /api/v1/borrow {book_id, due_date}
func (h *Handler) RequestBorrow(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req model.BorrowRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.service.RequestBorrow(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Borrow request submitted", b)
}

// AcceptBorrow - PUT /api/v1/accept-borrow/:id
func (h *Handler) AcceptBorrow(c *gin.Context) {
	b, err := h.service.AcceptBorrow(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Borrow request accepted", b)
}

// RejectBorrow - PUT /api/v1/reject-borrow/:id
func (h *Handler) RejectBorrow(c *gin.Context) {
	b, err := h.service.RejectBorrow(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Borrow request rejected", b)
}

// ReturnBook - PUT /api/v1/return/:id
func (h *Handler) ReturnBook(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	b, notice, err := h.service.ReturnBook(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Book returned", gin.H{
		"borrowing":    b,
		"notification": notice,
	})
}

// GetBorrowing - GET /api/v1/borrowings/:id
// Customers only see their own borrowings.
func (h *Handler) GetBorrowing(c *gin.Context) {
	b, err := h.service.GetBorrowing(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if utils.CurrentRole(c) != shared.RoleLibrarian {
		userID, err := utils.CurrentUserID(c)
		if err != nil || userID != b.UserID {
			response.Error(c, model.ErrBorrowingNotFound)
			return
		}
	}
	response.Success(c, http.StatusOK, "Borrowing retrieved", b)
}

// ListBorrowings - GET /api/v1/borrowings?status=&overdue=&page=&limit=
func (h *Handler) ListBorrowings(c *gin.Context) {
	req, ok := bindList(c)
	if !ok {
		return
	}
	h.respondList(c, func() (*model.ListResponse, error) {
		return h.service.ListBorrowings(c.Request.Context(), req)
	})
}

// ListOverdue - GET /api/v1/borrowings/overdue
func (h *Handler) ListOverdue(c *gin.Context) {
	req, ok := bindList(c)
	if !ok {
		return
	}
	req.Overdue = true
	h.respondList(c, func() (*model.ListResponse, error) {
		return h.service.ListBorrowings(c.Request.Context(), req)
	})
}

// MyHistory - GET /api/v1/borrowings/me
func (h *Handler) MyHistory(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req, ok := bindList(c)
	if !ok {
		return
	}
	h.respondList(c, func() (*model.ListResponse, error) {
		return h.service.History(c.Request.Context(), userID, req)
	})
}

// UserHistory - GET /api/v1/users/:id/borrowings
func (h *Handler) UserHistory(c *gin.Context) {
	userID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	req, ok := bindList(c)
	if !ok {
		return
	}
	h.respondList(c, func() (*model.ListResponse, error) {
		return h.service.History(c.Request.Context(), userID, req)
	})
}

func bindList(c *gin.Context) (model.ListRequest, bool) {
	var req model.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperror.Validationf("invalid query: %v", err))
		return req, false
	}
	return req, true
}

func (h *Handler) respondList(c *gin.Context, fn func() (*model.ListResponse, error)) {
	data, err := fn()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, "Borrowings retrieved", data.Borrowings, &response.Meta{
		Page:  data.Page,
		Limit: data.Limit,
		Total: data.Total,
	})
}
