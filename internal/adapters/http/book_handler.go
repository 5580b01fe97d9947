package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/shelfmate/core/internal/application/services"
	"github.com/shelfmate/core/internal/domain/entities"
	"github.com/shelfmate/core/internal/infrastructure/logger"
	"github.com/shelfmate/core/internal/ports"
)

// BookHandler exposes the record store as a stateless REST resource
type BookHandler struct {
	store  *services.Store
	query  *services.QueryService
	logger *logger.Logger
}

// NewBookHandler creates a new book handler
func NewBookHandler(store *services.Store, query *services.QueryService, logger *logger.Logger) *BookHandler {
	return &BookHandler{
		store:  store,
		query:  query,
		logger: logger,
	}
}

// ListBooks godoc
// @Summary List books
// @Description Filter, search and paginate the catalog
// @Tags books
// @Produce json
// @Param genre query string false "Genre or All Genres"
// @Param status query string false "Status or All Status"
// @Param q query string false "Title or author substring"
// @Param page query int false "Page number (table view)"
// @Param view query string false "table or grid"
// @Success 200 {object} ports.CatalogView
// @Failure 400 {object} MessageResponse
// @Router /books [get]
func (h *BookHandler) ListBooks(c echo.Context) error {
	genre, err := services.ParseGenreFilter(c.QueryParam("genre"))
	if err != nil {
		return toHTTPError(err)
	}
	status, err := services.ParseStatusFilter(c.QueryParam("status"))
	if err != nil {
		return toHTTPError(err)
	}

	mode := entities.ViewTable
	if v := c.QueryParam("view"); v != "" {
		if mode, err = entities.ParseViewMode(v); err != nil {
			return toHTTPError(err)
		}
	}

	page := 1
	if pageStr := c.QueryParam("page"); pageStr != "" {
		page, err = strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid page parameter")
		}
	}

	filter := ports.BookFilter{
		Genre:    genre,
		Status:   status,
		Search:   c.QueryParam("q"),
		Page:     page,
		PageSize: h.query.PageSize(),
	}

	return c.JSON(http.StatusOK, services.Render(h.query, h.store.Snapshot(), mode, filter))
}

// CreateBook godoc
// @Summary Add a book
// @Tags books
// @Accept json
// @Produce json
// @Param request body ports.BookRequest true "Book data"
// @Success 201 {object} entities.Book
// @Failure 400 {object} MessageResponse
// @Failure 422 {object} ValidationErrorResponse
// @Router /books [post]
func (h *BookHandler) CreateBook(c echo.Context) error {
	book, err := h.bindBook(c)
	if err != nil {
		return err
	}

	created, err := h.store.Add(c.Request().Context(), book)
	if err != nil {
		requestLogger(h.logger, c).WithError(err).Errorw("Create book failed", "book_id", created.ID)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, created)
}

// GetBook godoc
// @Summary Get book by ID
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} entities.Book
// @Failure 404 {object} MessageResponse
// @Router /books/{id} [get]
func (h *BookHandler) GetBook(c echo.Context) error {
	id, err := parseBookID(c)
	if err != nil {
		return err
	}

	book, err := h.store.Get(id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, book)
}

// UpdateBook godoc
// @Summary Replace a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Param request body ports.BookRequest true "Book data"
// @Success 200 {object} entities.Book
// @Failure 404 {object} MessageResponse
// @Failure 422 {object} ValidationErrorResponse
// @Router /books/{id} [put]
func (h *BookHandler) UpdateBook(c echo.Context) error {
	id, err := parseBookID(c)
	if err != nil {
		return err
	}

	book, err := h.bindBook(c)
	if err != nil {
		return err
	}

	updated, err := h.store.Update(c.Request().Context(), id, book)
	if err != nil {
		requestLogger(h.logger, c).WithError(err).Errorw("Update book failed", "book_id", id)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, updated)
}

// DeleteBook godoc
// @Summary Delete a book
// @Tags books
// @Param id path int true "Book ID"
// @Success 204
// @Failure 404 {object} MessageResponse
// @Router /books/{id} [delete]
func (h *BookHandler) DeleteBook(c echo.Context) error {
	id, err := parseBookID(c)
	if err != nil {
		return err
	}

	removed, err := h.store.Delete(c.Request().Context(), id)
	if err != nil {
		requestLogger(h.logger, c).WithError(err).Errorw("Delete book failed", "book_id", id)
		return toHTTPError(err)
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "Book not found")
	}

	return c.NoContent(http.StatusNoContent)
}

// bindBook decodes and validates a book payload
func (h *BookHandler) bindBook(c echo.Context) (entities.Book, error) {
	var req ports.BookRequest
	if err := c.Bind(&req); err != nil {
		return entities.Book{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(req.ValidationInput()); err != nil {
		return entities.Book{}, toHTTPError(err)
	}

	book, err := req.ToBook()
	if err != nil {
		return entities.Book{}, toHTTPError(err)
	}
	return book, nil
}
