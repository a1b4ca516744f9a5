package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/service"
)

// coverField is the multipart field carrying the cover image.
const coverField = "coverImage"

// UploadHandler handles cover image uploads.
type UploadHandler struct {
	imageService service.ImageService
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(imageService service.ImageService) *UploadHandler {
	return &UploadHandler{imageService: imageService}
}

// UploadResponse carries the public URL of a stored image.
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload godoc
// @Summary Upload a png cover image
// @Tags books
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param coverImage formData file true "png image"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Router /upload [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	file, err := c.FormFile(coverField)
	if err != nil {
		return apperrors.Validation("Cover image is required")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	url, err := h.imageService.UploadCover(c.Request().Context(), src, file.Header.Get(echo.HeaderContentType))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, UploadResponse{URL: url})
}
