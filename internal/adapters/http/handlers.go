package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/shelfmate/core/internal/application/services"
	"github.com/shelfmate/core/internal/domain/entities"
	"github.com/shelfmate/core/internal/domain/validation"
	"github.com/shelfmate/core/internal/infrastructure/logger"
)

// RequestValidator plugs the catalog's form validator into echo. Book forms
// go through the catalog rules; any other struct is checked against its
// validate tags.
type RequestValidator struct {
	validator *validation.Validator
}

// NewRequestValidator creates an echo validator
func NewRequestValidator(v *validation.Validator) *RequestValidator {
	return &RequestValidator{validator: v}
}

// Validate validates structs
func (rv *RequestValidator) Validate(i interface{}) error {
	switch in := i.(type) {
	case validation.Input:
		return rv.validator.Validate(in)
	case *validation.Input:
		return rv.validator.Validate(*in)
	default:
		return rv.validator.Engine().Struct(i)
	}
}

// RegisterRoutes mounts the book and session resources on an API group.
func RegisterRoutes(v1 *echo.Group, books *BookHandler, session *SessionHandler) {
	bookGroup := v1.Group("/books")
	bookGroup.GET("", books.ListBooks)
	bookGroup.POST("", books.CreateBook)
	bookGroup.GET("/:id", books.GetBook)
	bookGroup.PUT("/:id", books.UpdateBook)
	bookGroup.DELETE("/:id", books.DeleteBook)

	sessionGroup := v1.Group("/session")
	sessionGroup.GET("", session.View)
	sessionGroup.POST("/form", session.AddBook)
	sessionGroup.POST("/form/edit/:id", session.EditBook)
	sessionGroup.PATCH("/form", session.EditField)
	sessionGroup.POST("/form/save", session.SaveBook)
	sessionGroup.DELETE("/form", session.CancelForm)
	sessionGroup.POST("/delete/confirm", session.ConfirmDelete)
	sessionGroup.POST("/delete/:id", session.DeleteBook)
	sessionGroup.DELETE("/delete", session.CancelDelete)
	sessionGroup.PUT("/genre", session.SetGenreFilter)
	sessionGroup.PUT("/status", session.SetStatusFilter)
	sessionGroup.PUT("/search", session.SetSearchQuery)
	sessionGroup.PUT("/page", session.SetPage)
	sessionGroup.PUT("/view", session.SetView)
	sessionGroup.DELETE("/toast", session.DismissToast)
}

// requestLogger tags log lines with the id the RequestID middleware assigned
func requestLogger(l *logger.Logger, c echo.Context) *logger.Logger {
	return l.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID))
}

// toHTTPError maps catalog errors onto status codes. Anything unrecognised
// is a storage or encoding failure and becomes a 500.
func toHTTPError(err error) *echo.HTTPError {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, ValidationErrorResponse{
			Message: "validation failed",
			Errors:  verrs.Map(),
		})
	case errors.Is(err, entities.ErrBookNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Book not found")
	case errors.Is(err, entities.ErrInvalidGenre),
		errors.Is(err, entities.ErrInvalidStatus),
		errors.Is(err, entities.ErrInvalidView),
		errors.Is(err, entities.ErrInvalidPage),
		errors.Is(err, services.ErrUnknownField):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrNoOpenForm),
		errors.Is(err, entities.ErrNoPendingDelete):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to persist catalog").SetInternal(err)
	}
}

func parseBookID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid book ID")
	}
	return id, nil
}

// Request/Response types

type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse carries one message per invalid form field
type ValidationErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

type EditFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

type FilterRequest struct {
	Value string `json:"value"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type PageRequest struct {
	Page int `json:"page" validate:"required,min=1"`
}

type ViewRequest struct {
	View string `json:"view" validate:"required,oneof=table grid"`
}
