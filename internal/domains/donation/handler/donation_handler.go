package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/donation/model"
	"library-backend/internal/domains/donation/service"
	"library-backend/internal/shared"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/shared/response"
	"library-backend/internal/shared/utils"
)

type Handler struct {
	service       service.ServiceInterface
	maxPhotoBytes int64
}

func NewHandler(service service.ServiceInterface, maxPhotoBytes int64) *Handler {
	return &Handler{service: service, maxPhotoBytes: maxPhotoBytes}
}

// Donate - POST /api/v1/donate (multipart: book fields + photo)
func (h *Handler) Donate(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req model.SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, apperror.Validationf("invalid donation form: %v", err))
		return
	}
	photo, err := utils.ReadOptionalUpload(c, "photo", h.maxPhotoBytes)
	if err != nil {
		response.Error(c, err)
		return
	}

	d, err := h.service.Submit(c.Request.Context(), userID, req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Donation submitted", d.ToResponse())
}

// AcceptDonation - PUT /api/v1/accept-donation/:id
func (h *Handler) AcceptDonation(c *gin.Context) {
	h.decide(c, h.service.Accept, "Donation accepted")
}

// RejectDonation - PUT /api/v1/reject-donation/:id
func (h *Handler) RejectDonation(c *gin.Context) {
	h.decide(c, h.service.Reject, "Donation rejected")
}

func (h *Handler) decide(c *gin.Context, fn func(ctx context.Context, id int64) (*model.Donation, error), msg string) {
	id, err := utils.ParseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	d, err := fn(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, msg, d.ToResponse())
}

// GetDonation - GET /api/v1/donations/:id
// Customers only see their own donations.
func (h *Handler) GetDonation(c *gin.Context) {
	d, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, "Donation retrieved", d.ToResponse())
}

// GetPhoto - GET /api/v1/donations/:id/photo
func (h *Handler) GetPhoto(c *gin.Context) {
	d, ok := h.load(c)
	if !ok {
		return
	}

	obj, err := h.service.OpenPhoto(c.Request.Context(), d.DonationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer obj.Body.Close()

	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
}

// ListDonations - GET /api/v1/donations?status=&page=&limit=
func (h *Handler) ListDonations(c *gin.Context) {
	req, ok := bindList(c)
	if !ok {
		return
	}
	h.respondList(c, func() (*model.ListResponse, error) {
		return h.service.List(c.Request.Context(), req)
	})
}

// MyDonations - GET /api/v1/donations/me
func (h *Handler) MyDonations(c *gin.Context) {
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

// DeleteDonation - DELETE /api/v1/donations/:id
func (h *Handler) DeleteDonation(c *gin.Context) {
	id, err := utils.ParseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Donation deleted", nil)
}

func (h *Handler) load(c *gin.Context) (*model.Donation, bool) {
	id, err := utils.ParseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if utils.CurrentRole(c) != shared.RoleLibrarian {
		userID, err := utils.CurrentUserID(c)
		if err != nil || userID != d.UserID {
			response.Error(c, model.ErrDonationNotFound)
			return nil, false
		}
	}
	return d, true
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
	response.SuccessWithMeta(c, http.StatusOK, "Donations retrieved", data.Donations, &response.Meta{
		Page:  data.Page,
		Limit: data.Limit,
		Total: data.Total,
	})
}
