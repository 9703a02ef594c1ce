package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/domains/book/service"
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

// ListBooks - GET /api/v1/books
// Query params: search, author, category, status, page, limit
func (h *Handler) ListBooks(c *gin.Context) {
	var req model.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperror.Validationf("invalid query: %v", err))
		return
	}

	data, err := h.service.ListBooks(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, "Books retrieved", data.Books, &response.Meta{
		Page:  data.Page,
		Limit: data.Limit,
		Total: data.Total,
	})
}

// GetBook - GET /api/v1/books/:id
func (h *Handler) GetBook(c *gin.Context) {
	id, err := utils.ParseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	book, err := h.service.GetBook(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Book retrieved", book)
}

// CreateBook - POST /api/v1/books
// Accepts JSON, or multipart with an optional "photo" file.
func (h *Handler) CreateBook(c *gin.Context) {
	var (
		req   model.CreateBookRequest
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

	book, err := h.service.CreateBook(c.Request.Context(), req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Book added", book)
}

// UpdateBook - PUT /api/v1/books/:id
func (h *Handler) UpdateBook(c *gin.Context) {
	id, err := utils.ParseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req model.UpdateBookRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	book, err := h.service.UpdateBook(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Book updated", book)
}

// DeleteBook - DELETE /api/v1/books/:id
func (h *Handler) DeleteBook(c *gin.Context) {
	id, err := utils.ParseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.DeleteBook(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Book deleted", nil)
}

// UploadPhoto - PUT /api/v1/books/:id/photo (multipart field "photo")
func (h *Handler) UploadPhoto(c *gin.Context) {
	id, err := utils.ParseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	photo, err := utils.ReadUpload(c, "photo", h.maxPhotoBytes)
	if err != nil {
		response.Error(c, err)
		return
	}

	book, err := h.service.UploadPhoto(c.Request.Context(), id, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Photo uploaded", book)
}

// GetPhoto - GET /api/v1/books/:id/photo
func (h *Handler) GetPhoto(c *gin.Context) {
	id, err := utils.ParseInt64Param(c, "id")
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

	c.Header("Cache-Control", "public, max-age=3600")
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
}

// ListMovements - GET /api/v1/books/:id/movements?limit=
func (h *Handler) ListMovements(c *gin.Context) {
	id, err := utils.ParseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	movements, err := h.service.ListMovements(c.Request.Context(), id, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Movements retrieved", movements)
}

// ListCategories - GET /api/v1/books/categories
func (h *Handler) ListCategories(c *gin.Context) {
	summary, err := h.service.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Categories retrieved", summary)
}
