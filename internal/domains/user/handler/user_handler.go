package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/user/model"
	"library-backend/internal/domains/user/service"
	"library-backend/internal/shared"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/shared/response"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/jwt"
)

type Handler struct {
	service       service.ServiceInterface
	maxPhotoBytes int64
}

func NewHandler(service service.ServiceInterface, maxPhotoBytes int64) *Handler {
	return &Handler{service: service, maxPhotoBytes: maxPhotoBytes}
}

// Register - POST /api/v1/auth/register
// Accepts JSON, or multipart with an optional "photo" file.
func (h *Handler) Register(c *gin.Context) {
	var (
		req   model.RegisterRequest
		photo []byte
		err   error
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			response.Error(c, apperror.Validationf("invalid form: %v", err))
			return
		}
		if photo, err = utils.ReadOptionalUpload(c, "photo", h.maxPhotoBytes); err != nil {
			response.Error(c, err)
			return
		}
	} else if err = utils.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "User created successfully", resp)
}

// Login - POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req, utils.ClientIP(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Login successful", resp)
}

// Logout - POST /api/v1/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	v, _ := c.Get(shared.CtxToken)
	claims, ok := v.(*jwt.Claims)
	if !ok {
		response.Error(c, apperror.NewUnauthorized(apperror.ReasonUnauthorized, "authentication required"))
		return
	}
	if err := h.service.Logout(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Logout successful", nil)
}

// Me - GET /api/v1/users/me
func (h *Handler) Me(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	u, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "User retrieved", u.ToResponse())
}

// GetUser - GET /api/v1/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	u, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "User retrieved", u.ToResponse())
}

// ListCustomers - GET /api/v1/users?page=&limit=
func (h *Handler) ListCustomers(c *gin.Context) {
	var req model.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperror.Validationf("invalid query: %v", err))
		return
	}

	data, err := h.service.ListCustomers(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, "Users retrieved", data.Users, &response.Meta{
		Page:  data.Page,
		Limit: data.Limit,
		Total: data.Total,
	})
}

// DeleteUser - DELETE /api/v1/users/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "User deleted successfully", nil)
}

// UploadPhoto - PUT /api/v1/users/me/photo (multipart "photo")
func (h *Handler) UploadPhoto(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	photo, err := utils.ReadUpload(c, "photo", h.maxPhotoBytes)
	if err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.service.UploadPhoto(c.Request.Context(), userID, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Photo updated", u.ToResponse())
}

// GetPhoto - GET /api/v1/users/:id/photo
func (h *Handler) GetPhoto(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	obj, err := h.service.OpenPhoto(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer obj.Body.Close()

	c.Header("Cross-Origin-Resource-Policy", "cross-origin")
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
}
