package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shelfmate/core/internal/application/services"
	"github.com/shelfmate/core/internal/domain/entities"
	"github.com/shelfmate/core/internal/domain/validation"
	"github.com/shelfmate/core/internal/infrastructure/logger"
	"github.com/shelfmate/core/internal/ports"
)

// SessionHandler drives the interactive catalog session. Every route
// answers with the rendered view so a client can redraw from one response.
type SessionHandler struct {
	session *services.Session
	logger  *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(session *services.Session, logger *logger.Logger) *SessionHandler {
	return &SessionHandler{
		session: session,
		logger:  logger,
	}
}

func (h *SessionHandler) render(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.View())
}

// View returns the current render model
func (h *SessionHandler) View(c echo.Context) error {
	return h.render(c)
}

// AddBook opens an empty form
func (h *SessionHandler) AddBook(c echo.Context) error {
	h.session.AddBook()
	return h.render(c)
}

// EditBook opens the form on an existing book
func (h *SessionHandler) EditBook(c echo.Context) error {
	id, err := parseBookID(c)
	if err != nil {
		return err
	}
	if err := h.session.EditBook(id); err != nil {
		return toHTTPError(err)
	}
	return h.render(c)
}

// EditField changes a single form field
func (h *SessionHandler) EditField(c echo.Context) error {
	var req EditFieldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.session.EditField(req.Field, req.Value); err != nil {
		return toHTTPError(err)
	}
	return h.render(c)
}

// SaveBook submits the form. An optional body replaces the form data first.
// Validation failures answer 422 with the form and its errors still open.
func (h *SessionHandler) SaveBook(c echo.Context) error {
	data, err := bindOptionalBook(c)
	if err != nil {
		return err
	}

	_, err = h.session.SaveBook(c.Request().Context(), data)
	if err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			return c.JSON(http.StatusUnprocessableEntity, h.session.View())
		}
		requestLogger(h.logger, c).WithError(err).Errorw("Save book failed")
		return toHTTPError(err)
	}
	return h.render(c)
}

// bindOptionalBook decodes the request body into a form payload. It returns
// nil when the body is absent or blank, whatever the declared length.
func bindOptionalBook(c echo.Context) (*ports.BookRequest, error) {
	req := c.Request()
	if req.Body == nil || req.Body == http.NoBody || req.ContentLength == 0 {
		return nil, nil
	}

	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))
	req.ContentLength = int64(len(raw))

	var data ports.BookRequest
	if err := c.Bind(&data); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	return &data, nil
}

// CancelForm closes the form
func (h *SessionHandler) CancelForm(c echo.Context) error {
	h.session.CancelForm()
	return h.render(c)
}

// DeleteBook opens the delete confirmation
func (h *SessionHandler) DeleteBook(c echo.Context) error {
	id, err := parseBookID(c)
	if err != nil {
		return err
	}
	if err := h.session.DeleteBook(id); err != nil {
		return toHTTPError(err)
	}
	return h.render(c)
}

// ConfirmDelete commits the pending delete
func (h *SessionHandler) ConfirmDelete(c echo.Context) error {
	if err := h.session.ConfirmDelete(c.Request().Context()); err != nil {
		if !errors.Is(err, entities.ErrNoPendingDelete) {
			requestLogger(h.logger, c).WithError(err).Errorw("Confirm delete failed")
		}
		return toHTTPError(err)
	}
	return h.render(c)
}

// CancelDelete drops the pending delete
func (h *SessionHandler) CancelDelete(c echo.Context) error {
	h.session.CancelDelete()
	return h.render(c)
}

// SetGenreFilter changes the genre filter and returns to page 1
func (h *SessionHandler) SetGenreFilter(c echo.Context) error {
	var req FilterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := h.session.SetGenreFilter(req.Value); err != nil {
		return toHTTPError(err)
	}
	return h.render(c)
}

// SetStatusFilter changes the status filter and returns to page 1
func (h *SessionHandler) SetStatusFilter(c echo.Context) error {
	var req FilterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := h.session.SetStatusFilter(req.Value); err != nil {
		return toHTTPError(err)
	}
	return h.render(c)
}

// SetSearchQuery changes the search text
func (h *SessionHandler) SetSearchQuery(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	h.session.SetSearchQuery(req.Query)
	return h.render(c)
}

// SetPage moves the table to another page
func (h *SessionHandler) SetPage(c echo.Context) error {
	var req PageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.session.SetPage(req.Page); err != nil {
		return toHTTPError(err)
	}
	return h.render(c)
}

// SetView switches between table and grid
func (h *SessionHandler) SetView(c echo.Context) error {
	var req ViewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.session.SetView(req.View); err != nil {
		return toHTTPError(err)
	}
	return h.render(c)
}

// DismissToast clears the toast message
func (h *SessionHandler) DismissToast(c echo.Context) error {
	h.session.DismissToast()
	return h.render(c)
}
