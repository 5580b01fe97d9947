package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shelfmate/core/internal/domain/entities"
	"github.com/shelfmate/core/internal/domain/validation"
	"github.com/shelfmate/core/internal/infrastructure/logger"
	"github.com/shelfmate/core/internal/ports"
)

// Labels for the "match all" filter choices and the empty-view message.
const (
	AllGenres   = "All Genres"
	AllStatuses = "All Status"
	NoBooks     = "No books found. Please add some!"
)

// Toast messages shown after a committed change
const (
	ToastAdded   = "Book added successfully!"
	ToastUpdated = "Book updated successfully!"
	ToastDeleted = "Book deleted successfully!"
)

// ErrUnknownField is returned by EditField for a field the form lacks
var ErrUnknownField = errors.New("unknown form field")

// SessionOptions tunes a Session
type SessionOptions struct {
	// ResetPageOnSearch makes search edits jump back to page 1 the way
	// genre and status changes do. Off by default.
	ResetPageOnSearch bool
}

// Session holds the interactive state around the catalog: filters, current
// page, view mode, the open form, a pending delete and the last toast. All
// catalog mutations go through the Store it is given.
type Session struct {
	mu        sync.Mutex
	store     *Store
	query     *QueryService
	validator *validation.Validator
	logger    *logger.Logger
	opts      SessionOptions

	genre   *entities.Genre
	status  *entities.Status
	search  string
	page    int
	view    entities.ViewMode
	form    *ports.FormState
	confirm *ports.ConfirmState
	toast   string
}

// NewSession creates a session in table view on page 1 with no filters.
func NewSession(store *Store, query *QueryService, v *validation.Validator, logger *logger.Logger, opts SessionOptions) *Session {
	return &Session{
		store:     store,
		query:     query,
		validator: v,
		logger:    logger.WithComponent("session"),
		opts:      opts,
		page:      1,
		view:      entities.ViewTable,
	}
}

// AddBook opens a blank creation form.
func (s *Session) AddBook() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.form = &ports.FormState{
		Mode: ports.FormModeAdd,
		Data: ports.BookRequest{
			Genre:  string(entities.GenreFiction),
			Year:   s.validator.CurrentYear(),
			Status: string(entities.StatusAvailable),
		},
		Errors: map[string]string{},
	}
}

// EditBook opens the form pre-populated with an existing record.
func (s *Session) EditBook(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.store.Get(id)
	if err != nil {
		return err
	}
	s.form = &ports.FormState{
		Mode:   ports.FormModeEdit,
		BookID: id,
		Data:   ports.BookRequestFrom(book),
		Errors: map[string]string{},
	}
	return nil
}

// EditField changes one field of the open form and clears that field's error.
// A year that does not parse as a number counts as missing.
func (s *Session) EditField(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.form == nil {
		return entities.ErrNoOpenForm
	}

	d := &s.form.Data
	switch field {
	case validation.FieldTitle:
		d.Title = value
	case validation.FieldAuthor:
		d.Author = value
	case validation.FieldYear:
		year, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			year = 0
		}
		d.Year = year
	case "genre":
		d.Genre = value
	case "status":
		d.Status = value
	case "isbn":
		d.ISBN = value
	case "description":
		d.Description = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	delete(s.form.Errors, field)
	return nil
}

// CancelForm closes the form without saving.
func (s *Session) CancelForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = nil
}

// SaveBook validates the form and commits it as an add or an update,
// depending on how the form was opened. A non-nil data replaces the form's
// current contents first. On validation failure the form stays open with
// its field errors set and the returned error wraps validation.Errors.
func (s *Session) SaveBook(ctx context.Context, data *ports.BookRequest) (entities.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.form == nil {
		return entities.Book{}, entities.ErrNoOpenForm
	}
	if data != nil {
		s.form.Data = *data
	}

	if err := s.validator.Validate(s.form.Data.ValidationInput()); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			s.form.Errors = verrs.Map()
		}
		return entities.Book{}, err
	}

	book, err := s.form.Data.ToBook()
	if err != nil {
		return entities.Book{}, err
	}

	var saved entities.Book
	toast := ToastAdded
	if s.form.Mode == ports.FormModeEdit {
		toast = ToastUpdated
		saved, err = s.store.Update(ctx, s.form.BookID, book)
		if errors.Is(err, entities.ErrBookNotFound) {
			s.form = nil
			return entities.Book{}, err
		}
	} else {
		saved, err = s.store.Add(ctx, book)
	}

	s.form = nil
	s.toast = toast
	if err != nil {
		s.logger.Errorw("Book saved in memory but not persisted", "error", err, "book_id", saved.ID)
		return saved, err
	}
	return saved, nil
}

// DeleteBook asks for confirmation before removing a record.
func (s *Session) DeleteBook(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.store.Get(id)
	if err != nil {
		return err
	}
	s.confirm = &ports.ConfirmState{
		BookID:  id,
		Message: `Are you sure you want to delete "` + book.Title + `"?`,
	}
	return nil
}

// ConfirmDelete commits the pending delete.
func (s *Session) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.confirm == nil {
		return entities.ErrNoPendingDelete
	}
	id := s.confirm.BookID
	s.confirm = nil

	_, err := s.store.Delete(ctx, id)
	s.toast = ToastDeleted
	return err
}

// CancelDelete drops the pending delete.
func (s *Session) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirm = nil
}

// SetGenreFilter sets the genre filter and returns to page 1. An empty value,
// "all" or AllGenres clears the filter.
func (s *Session) SetGenreFilter(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := ParseGenreFilter(value)
	if err != nil {
		return err
	}
	s.genre = g
	s.page = 1
	return nil
}

// SetStatusFilter sets the status filter and returns to page 1.
func (s *Session) SetStatusFilter(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := ParseStatusFilter(value)
	if err != nil {
		return err
	}
	s.status = st
	s.page = 1
	return nil
}

// SetSearchQuery sets the free-text search. The current page is kept unless
// ResetPageOnSearch is enabled.
func (s *Session) SetSearchQuery(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.search = text
	if s.opts.ResetPageOnSearch {
		s.page = 1
	}
}

// SetPage moves to page n, which must lie in [1, max(totalPages, 1)].
func (s *Session) SetPage(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.query.Run(s.store.Snapshot(), s.filterLocked(), false)
	last := res.TotalPages
	if last < 1 {
		last = 1
	}
	if n < 1 || n > last {
		return fmt.Errorf("%w: %d not in [1, %d]", entities.ErrInvalidPage, n, last)
	}
	s.page = n
	return nil
}

// SetView switches between table and grid.
func (s *Session) SetView(mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := entities.ParseViewMode(mode)
	if err != nil {
		return err
	}
	s.view = v
	return nil
}

// DismissToast clears the last toast message
func (s *Session) DismissToast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toast = ""
}

// View renders the current state. The table shows the current page only; the
// grid shows every filtered book.
func (s *Session) View() ports.CatalogView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := Render(s.query, s.store.Snapshot(), s.view, s.filterLocked())
	view.Form = cloneForm(s.form)
	view.Confirm = cloneConfirm(s.confirm)
	view.Toast = s.toast
	return view
}

func (s *Session) filterLocked() ports.BookFilter {
	return ports.BookFilter{
		Genre:    s.genre,
		Status:   s.status,
		Search:   s.search,
		Page:     s.page,
		PageSize: s.query.PageSize(),
	}
}

// Render builds the catalog view for a snapshot and filter. It is shared by
// the session and by stateless callers such as the REST list endpoint and
// the CLI.
func Render(q *QueryService, snap Snapshot, mode entities.ViewMode, f ports.BookFilter) ports.CatalogView {
	view := ports.CatalogView{
		View:         mode,
		GenreFilter:  AllGenres,
		StatusFilter: AllStatuses,
		Search:       f.Search,
		Page:         f.Page,
	}
	if f.Genre != nil {
		view.GenreFilter = string(*f.Genre)
	}
	if f.Status != nil {
		view.StatusFilter = string(*f.Status)
	}

	if mode == entities.ViewGrid {
		res := q.Run(snap, f, false)
		view.FilteredCount = res.FilteredCount
		view.TotalPages = res.TotalPages
		view.Cards = res.Books
		if len(res.Books) == 0 {
			view.Placeholder = NoBooks
		}
	} else {
		res := q.Run(snap, f, true)
		view.FilteredCount = res.FilteredCount
		view.TotalPages = res.TotalPages
		view.Rows = make([]ports.TableRow, 0, len(res.Books))
		for i, b := range res.Books {
			view.Rows = append(view.Rows, ports.TableRow{Serial: res.Offset + i + 1, Book: b})
		}
		if len(res.Books) == 0 {
			view.Placeholder = NoBooks
		}
		if res.TotalPages > 1 {
			view.Pagination = &ports.Pagination{
				Page:        f.Page,
				TotalPages:  res.TotalPages,
				HasPrevious: f.Page > 1,
				HasNext:     f.Page < res.TotalPages,
			}
		}
	}

	return view
}

// ParseGenreFilter turns a filter choice into a criterion. An empty value,
// "all" or AllGenres yields nil, meaning every genre.
func ParseGenreFilter(value string) (*entities.Genre, error) {
	if isAll(value, AllGenres) {
		return nil, nil
	}
	g, err := entities.ParseGenre(value)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ParseStatusFilter is ParseGenreFilter for availability.
func ParseStatusFilter(value string) (*entities.Status, error) {
	if isAll(value, AllStatuses) {
		return nil, nil
	}
	st, err := entities.ParseStatus(value)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func isAll(value, label string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, "all") || v == label
}

func cloneForm(f *ports.FormState) *ports.FormState {
	if f == nil {
		return nil
	}
	out := *f
	out.Errors = make(map[string]string, len(f.Errors))
	for k, v := range f.Errors {
		out.Errors[k] = v
	}
	return &out
}

func cloneConfirm(c *ports.ConfirmState) *ports.ConfirmState {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
