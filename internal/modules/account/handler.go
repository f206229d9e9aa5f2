package account

import (
	"errors"
	"mime/multipart"
	"net/http"

	"streamhub/internal/media"
	"streamhub/internal/middleware"
	"streamhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register godoc
// @Summary Register a new account
// @Tags Accounts
// @Accept multipart/form-data
// @Produce json
// @Param handle formData string true "Handle"
// @Param email formData string true "Email"
// @Param displayName formData string true "Display name"
// @Param password formData string true "Password"
// @Param avatar formData file true "Avatar image"
// @Param coverImage formData file false "Cover image"
// @Success 201 {object} map[string]interface{}
// @Failure 400,409,413 {object} map[string]interface{}
// @Router /users/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid form data")
		return
	}

	account, err := h.service.Register(c.Request.Context(), req, formFile(c, "avatar"), formFile(c, "coverImage"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"account": account})
}

// CurrentUser godoc
// @Summary Current account
// @Tags Accounts
// @Security BearerAuth
// @Router /users/current-user [get]
func (h *Handler) CurrentUser(c *gin.Context) {
	account, err := h.service.Current(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"account": account})
}

// UpdateUser godoc
// @Summary Update display name and/or email
// @Tags Accounts
// @Security BearerAuth
// @Accept json
// @Param body body UpdateProfileRequest true "fields to change"
// @Router /users/update-user [patch]
func (h *Handler) UpdateUser(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	account, err := h.service.UpdateProfile(c.Request.Context(), middleware.AccountID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"account": account})
}

// UpdateAvatar godoc
// @Summary Replace avatar image
// @Tags Accounts
// @Security BearerAuth
// @Accept multipart/form-data
// @Param avatar formData file true "Avatar image"
// @Router /users/update-user-avatar [patch]
func (h *Handler) UpdateAvatar(c *gin.Context) {
	account, err := h.service.UpdateAvatar(c.Request.Context(), middleware.AccountID(c), formFile(c, "avatar"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"account": account})
}

// UpdateCoverImage godoc
// @Summary Replace cover image
// @Tags Accounts
// @Security BearerAuth
// @Accept multipart/form-data
// @Param coverImage formData file true "Cover image"
// @Router /users/update-user-cover-image [patch]
func (h *Handler) UpdateCoverImage(c *gin.Context) {
	account, err := h.service.UpdateCoverImage(c.Request.Context(), middleware.AccountID(c), formFile(c, "coverImage"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"account": account})
}

// formFile returns nil when the field is absent.
func formFile(c *gin.Context, field string) *multipart.FileHeader {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return fh
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, media.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
	case errors.Is(err, media.ErrEmptyFile), errors.Is(err, media.ErrNoFile):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, media.ErrInvalidMimeType):
		response.Error(c, http.StatusBadRequest, "INVALID_FILE_TYPE", err.Error())
	default:
		response.FromError(c, err)
	}
}
