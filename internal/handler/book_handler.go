package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookcatalog/internal/gate"
	"bookcatalog/internal/service"
)

// BookHandler handles book endpoints.
type BookHandler struct {
	bookService service.BookService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(bookService service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// CreateBookRequest represents a book creation request.
type CreateBookRequest struct {
	Author      string `json:"author" validate:"required,objectid" msg:"Author is required"`
	Title       string `json:"title" validate:"required,notblank" msg:"Title is required"`
	Synopsis    string `json:"synopsis"`
	ReleaseYear *int   `json:"releaseYear" validate:"required,gt=0" msg:"ReleaseYear is required and must be of number"`
	Genre       string `json:"genre"`
	CoverImage  string `json:"coverImage" validate:"omitempty,url" msg:"CoverImage must be a valid URL"`
}

// UpdateBookRequest represents a partial book update. Absent fields are kept.
type UpdateBookRequest struct {
	Author      *string `json:"author" validate:"omitnil,objectid" msg:"Author is required"`
	Title       *string `json:"title" validate:"omitnil,notblank" msg:"Title is required"`
	Synopsis    *string `json:"synopsis"`
	ReleaseYear *int    `json:"releaseYear" validate:"omitnil,gt=0" msg:"ReleaseYear is required and must be of number"`
	Genre       *string `json:"genre"`
	CoverImage  *string `json:"coverImage" validate:"omitnil,omitempty,url" msg:"CoverImage must be a valid URL"`
}

// Create godoc
// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookRequest true "Book data"
// @Success 201 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /book [post]
func (h *BookHandler) Create(c echo.Context) error {
	var req CreateBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	book, err := h.bookService.Create(c.Request().Context(), gate.CurrentUser(c), service.BookInput{
		AuthorID:    req.Author,
		Title:       req.Title,
		Synopsis:    req.Synopsis,
		ReleaseYear: *req.ReleaseYear,
		Genre:       req.Genre,
		CoverImage:  req.CoverImage,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, book)
}

// List godoc
// @Summary List books
// @Tags books
// @Produce json
// @Success 200 {array} model.Book
// @Router /book [get]
func (h *BookHandler) List(c echo.Context) error {
	books, err := h.bookService.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

// Get godoc
// @Summary Get a book
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} model.Book
// @Failure 404 {object} errors.ErrorResponse
// @Router /book/{id} [get]
func (h *BookHandler) Get(c echo.Context) error {
	book, err := h.bookService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// Update godoc
// @Summary Update a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Param request body UpdateBookRequest true "Fields to change"
// @Success 200 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /book/{id} [patch]
func (h *BookHandler) Update(c echo.Context) error {
	var req UpdateBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	book, err := h.bookService.Update(c.Request().Context(), gate.CurrentUser(c), c.Param("id"), service.BookPatch{
		AuthorID:    req.Author,
		Title:       req.Title,
		Synopsis:    req.Synopsis,
		ReleaseYear: req.ReleaseYear,
		Genre:       req.Genre,
		CoverImage:  req.CoverImage,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, book)
}

// Delete godoc
// @Summary Delete a book
// @Tags books
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /book/{id} [delete]
func (h *BookHandler) Delete(c echo.Context) error {
	if err := h.bookService.Delete(c.Request().Context(), gate.CurrentUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
