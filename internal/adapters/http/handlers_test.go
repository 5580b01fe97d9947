package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shelfmate/core/internal/adapters/repository"
	"github.com/shelfmate/core/internal/application/services"
	"github.com/shelfmate/core/internal/domain/entities"
	"github.com/shelfmate/core/internal/domain/validation"
	"github.com/shelfmate/core/internal/infrastructure/logger"
	"github.com/shelfmate/core/internal/ports"
)

type testAPI struct {
	echo    *echo.Echo
	store   *services.Store
	storage *repository.MemoryStorage
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := logger.NewNop()

	storage := repository.NewMemoryStorage()
	store := services.NewStore(storage, "books", log)
	if err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	query, err := services.NewQueryService(services.DefaultPageSize, 0)
	if err != nil {
		t.Fatal(err)
	}
	v := validation.New(func() time.Time { return time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC) })
	session := services.NewSession(store, query, v, log, services.SessionOptions{})

	e := echo.New()
	e.Validator = NewRequestValidator(v)
	RegisterRoutes(e.Group("/api/v1"), NewBookHandler(store, query, log), NewSessionHandler(session, log))

	return &testAPI{echo: e, store: store, storage: storage}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		req = httptest.NewRequest(method, path, strings.NewReader(string(payload)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func bookBody(title string, genre entities.Genre) ports.BookRequest {
	return ports.BookRequest{
		Title:  title,
		Author: "Author of " + title,
		Genre:  string(genre),
		Year:   1990,
		Status: string(entities.StatusAvailable),
	}
}

func TestBookHandler_CRUD(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/books", bookBody("Dune", entities.GenreScienceFiction))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[entities.Book](t, rec)
	if created.ID == 0 || created.Title != "Dune" {
		t.Fatalf("created = %+v", created)
	}

	path := fmt.Sprintf("/api/v1/books/%d", created.ID)
	rec = api.do(t, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	update := bookBody("Dune Messiah", entities.GenreScienceFiction)
	update.Status = string(entities.StatusIssued)
	rec = api.do(t, http.MethodPut, path, update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[entities.Book](t, rec)
	if updated.ID != created.ID || updated.Status != entities.StatusIssued {
		t.Errorf("updated = %+v", updated)
	}

	rec = api.do(t, http.MethodDelete, path, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if api.storage.Has("books") {
		t.Error("snapshot key should be gone after deleting the only book")
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if rec := api.do(t, method, path, nil); rec.Code != http.StatusNotFound {
			t.Errorf("%s missing book status = %d, want 404", method, rec.Code)
		}
	}
	if rec := api.do(t, http.MethodPut, path, update); rec.Code != http.StatusNotFound {
		t.Errorf("PUT missing book status = %d, want 404", rec.Code)
	}
}

func TestBookHandler_CreateValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/books", ports.BookRequest{
		Title:  "",
		Author: "  ",
		Genre:  string(entities.GenreFiction),
		Year:   2026,
		Status: string(entities.StatusAvailable),
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}

	body := decode[ValidationErrorResponse](t, rec)
	want := map[string]string{
		"title":  "Title field is required.",
		"author": "Author field is required.",
		"year":   "Enter a valid year.",
	}
	for field, msg := range want {
		if body.Errors[field] != msg {
			t.Errorf("errors[%s] = %q, want %q", field, body.Errors[field], msg)
		}
	}
	if api.store.Snapshot().Len() != 0 {
		t.Error("invalid book reached the store")
	}
}

func TestBookHandler_BadInput(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"unknown genre in body", http.MethodPost, "/api/v1/books", bookBody("X", "Poetry"), http.StatusBadRequest},
		{"unknown genre filter", http.MethodGet, "/api/v1/books?genre=Poetry", nil, http.StatusBadRequest},
		{"unknown status filter", http.MethodGet, "/api/v1/books?status=Lost", nil, http.StatusBadRequest},
		{"unknown view", http.MethodGet, "/api/v1/books?view=list", nil, http.StatusBadRequest},
		{"bad page", http.MethodGet, "/api/v1/books?page=zero", nil, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/v1/books/abc", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := api.do(t, tt.method, tt.path, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestBookHandler_ListPipeline(t *testing.T) {
	api := newTestAPI(t)
	for i := 1; i <= 12; i++ {
		genre := entities.GenreFiction
		if i%4 == 0 {
			genre = entities.GenreTravel
		}
		if rec := api.do(t, http.MethodPost, "/api/v1/books", bookBody(fmt.Sprintf("Book %02d", i), genre)); rec.Code != http.StatusCreated {
			t.Fatalf("seed %d: %d", i, rec.Code)
		}
	}

	view := decode[ports.CatalogView](t, api.do(t, http.MethodGet, "/api/v1/books", nil))
	if len(view.Rows) != 10 || view.TotalPages != 2 || view.Pagination == nil {
		t.Fatalf("page 1 = %d rows, %d pages", len(view.Rows), view.TotalPages)
	}
	if view.GenreFilter != services.AllGenres || view.StatusFilter != services.AllStatuses {
		t.Errorf("filter labels = %q, %q", view.GenreFilter, view.StatusFilter)
	}

	view = decode[ports.CatalogView](t, api.do(t, http.MethodGet, "/api/v1/books?page=2", nil))
	if len(view.Rows) != 2 || view.Rows[0].Serial != 11 {
		t.Errorf("page 2 = %d rows starting at #%d", len(view.Rows), view.Rows[0].Serial)
	}

	view = decode[ports.CatalogView](t, api.do(t, http.MethodGet, "/api/v1/books?genre=Travel", nil))
	if view.FilteredCount != 3 || view.Pagination != nil {
		t.Errorf("travel filter = %d books, pagination %+v", view.FilteredCount, view.Pagination)
	}

	view = decode[ports.CatalogView](t, api.do(t, http.MethodGet, "/api/v1/books?view=grid&page=2", nil))
	if len(view.Cards) != 12 {
		t.Errorf("grid = %d cards, want 12", len(view.Cards))
	}

	view = decode[ports.CatalogView](t, api.do(t, http.MethodGet, "/api/v1/books?q=nothing-matches", nil))
	if view.Placeholder != services.NoBooks {
		t.Errorf("placeholder = %q", view.Placeholder)
	}
}

func TestSessionHandler_FormFlow(t *testing.T) {
	api := newTestAPI(t)

	view := decode[ports.CatalogView](t, api.do(t, http.MethodPost, "/api/v1/session/form", nil))
	if view.Form == nil || view.Form.Data.Year != 2025 {
		t.Fatalf("form = %+v", view.Form)
	}

	rec := api.do(t, http.MethodPost, "/api/v1/session/form/save", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty save status = %d", rec.Code)
	}
	view = decode[ports.CatalogView](t, rec)
	if view.Form == nil || len(view.Form.Errors) != 2 {
		t.Fatalf("form errors = %+v", view.Form)
	}

	for _, edit := range []EditFieldRequest{
		{Field: "title", Value: "Dune"},
		{Field: "author", Value: "Frank Herbert"},
		{Field: "genre", Value: "Science Fiction"},
	} {
		if rec := api.do(t, http.MethodPatch, "/api/v1/session/form", edit); rec.Code != http.StatusOK {
			t.Fatalf("edit %s status = %d", edit.Field, rec.Code)
		}
	}
	if rec := api.do(t, http.MethodPatch, "/api/v1/session/form", EditFieldRequest{Field: "pages", Value: "1"}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost, "/api/v1/session/form/save", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	view = decode[ports.CatalogView](t, rec)
	if view.Toast != services.ToastAdded || view.Form != nil || len(view.Rows) != 1 {
		t.Errorf("after save: toast %q, form %+v, %d rows", view.Toast, view.Form, len(view.Rows))
	}

	id := view.Rows[0].ID
	body := bookBody("Dune", entities.GenreScienceFiction)
	body.Status = string(entities.StatusIssued)
	api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/session/form/edit/%d", id), nil)
	view = decode[ports.CatalogView](t, api.do(t, http.MethodPost, "/api/v1/session/form/save", body))
	if view.Toast != services.ToastUpdated || view.Rows[0].Status != entities.StatusIssued {
		t.Errorf("after edit: toast %q, status %q", view.Toast, view.Rows[0].Status)
	}

	if rec := api.do(t, http.MethodPost, "/api/v1/session/form/save", nil); rec.Code != http.StatusConflict {
		t.Errorf("save without form status = %d, want 409", rec.Code)
	}
}

func TestSessionHandler_SaveWithUnknownLengthBody(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/v1/session/form", nil)

	send := func(payload string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/session/form/save", strings.NewReader(payload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		api.echo.ServeHTTP(rec, req)
		return rec
	}

	rec := send("  \n")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank body status = %d, want 422", rec.Code)
	}
	if view := decode[ports.CatalogView](t, rec); view.Form == nil || len(view.Form.Errors) != 2 {
		t.Fatalf("blank body should fall back to the form data: %+v", view.Form)
	}

	payload, err := json.Marshal(bookBody("Dune", entities.GenreScienceFiction))
	if err != nil {
		t.Fatal(err)
	}
	rec = send(string(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	view := decode[ports.CatalogView](t, rec)
	if view.Toast != services.ToastAdded || view.Form != nil || len(view.Rows) != 1 || view.Rows[0].Title != "Dune" {
		t.Errorf("after save: toast %q, form %+v, rows %+v", view.Toast, view.Form, view.Rows)
	}
}

func TestSessionHandler_DeleteAndFilters(t *testing.T) {
	api := newTestAPI(t)
	for i := 1; i <= 15; i++ {
		api.do(t, http.MethodPost, "/api/v1/books", bookBody(fmt.Sprintf("Book %02d", i), entities.GenreHistory))
	}

	view := decode[ports.CatalogView](t, api.do(t, http.MethodPut, "/api/v1/session/page", PageRequest{Page: 2}))
	if view.Page != 2 || len(view.Rows) != 5 {
		t.Fatalf("page 2 = %d rows", len(view.Rows))
	}
	if rec := api.do(t, http.MethodPut, "/api/v1/session/page", PageRequest{Page: 3}); rec.Code != http.StatusBadRequest {
		t.Errorf("page 3 status = %d", rec.Code)
	}

	view = decode[ports.CatalogView](t, api.do(t, http.MethodPut, "/api/v1/session/search", SearchRequest{Query: "book"}))
	if view.Page != 2 {
		t.Errorf("search reset the page to %d", view.Page)
	}

	view = decode[ports.CatalogView](t, api.do(t, http.MethodPut, "/api/v1/session/genre", FilterRequest{Value: "History"}))
	if view.Page != 1 || view.GenreFilter != "History" {
		t.Errorf("genre filter: page %d, label %q", view.Page, view.GenreFilter)
	}

	view = decode[ports.CatalogView](t, api.do(t, http.MethodPut, "/api/v1/session/status", FilterRequest{Value: "Issued"}))
	if view.Placeholder != services.NoBooks {
		t.Errorf("issued filter placeholder = %q", view.Placeholder)
	}
	api.do(t, http.MethodPut, "/api/v1/session/status", FilterRequest{Value: services.AllStatuses})

	view = decode[ports.CatalogView](t, api.do(t, http.MethodPut, "/api/v1/session/view", ViewRequest{View: "grid"}))
	if len(view.Cards) != 15 {
		t.Errorf("grid = %d cards", len(view.Cards))
	}
	if rec := api.do(t, http.MethodPut, "/api/v1/session/view", ViewRequest{View: "list"}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad view status = %d", rec.Code)
	}

	target := view.Cards[0]
	view = decode[ports.CatalogView](t, api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/session/delete/%d", target.ID), nil))
	want := fmt.Sprintf("Are you sure you want to delete %q?", target.Title)
	if view.Confirm == nil || view.Confirm.Message != want {
		t.Fatalf("confirm = %+v", view.Confirm)
	}

	view = decode[ports.CatalogView](t, api.do(t, http.MethodPost, "/api/v1/session/delete/confirm", nil))
	if view.Toast != services.ToastDeleted || len(view.Cards) != 14 {
		t.Errorf("after delete: toast %q, %d cards", view.Toast, len(view.Cards))
	}
	if rec := api.do(t, http.MethodPost, "/api/v1/session/delete/confirm", nil); rec.Code != http.StatusConflict {
		t.Errorf("second confirm status = %d, want 409", rec.Code)
	}

	view = decode[ports.CatalogView](t, api.do(t, http.MethodDelete, "/api/v1/session/toast", nil))
	if view.Toast != "" {
		t.Errorf("toast = %q after dismiss", view.Toast)
	}
}
