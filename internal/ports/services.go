package ports

import (
	"github.com/shelfmate/core/internal/domain/entities"
	"github.com/shelfmate/core/internal/domain/validation"
)

// Request/Response Types

// BookRequest is the form payload used to create or replace a book.
// Genre and Status arrive as free text and are parsed at the boundary.
type BookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Year        int    `json:"year"`
	Status      string `json:"status"`
	ISBN        string `json:"isbn"`
	Description string `json:"description"`
}

// ToBook parses the enum fields. The remaining fields are copied as-is; form
// validation is a separate step.
func (r BookRequest) ToBook() (entities.Book, error) {
	genre, err := entities.ParseGenre(r.Genre)
	if err != nil {
		return entities.Book{}, err
	}
	status, err := entities.ParseStatus(r.Status)
	if err != nil {
		return entities.Book{}, err
	}
	return entities.Book{
		Title:       r.Title,
		Author:      r.Author,
		Genre:       genre,
		Year:        r.Year,
		Status:      status,
		ISBN:        r.ISBN,
		Description: r.Description,
	}, nil
}

// ValidationInput extracts the fields the form validator checks.
func (r BookRequest) ValidationInput() validation.Input {
	return validation.Input{Title: r.Title, Author: r.Author, Year: r.Year}
}

// BookRequestFrom builds a request pre-populated from an existing record.
func BookRequestFrom(b entities.Book) BookRequest {
	return BookRequest{
		Title:       b.Title,
		Author:      b.Author,
		Genre:       string(b.Genre),
		Year:        b.Year,
		Status:      string(b.Status),
		ISBN:        b.ISBN,
		Description: b.Description,
	}
}

// FormMode tells whether a submitted form creates or updates a record
type FormMode string

const (
	FormModeAdd  FormMode = "add"
	FormModeEdit FormMode = "edit"
)

// FormState is the open book form: its data plus inline field errors.
type FormState struct {
	Mode   FormMode          `json:"mode"`
	BookID int64             `json:"book_id,omitempty"`
	Data   BookRequest       `json:"data"`
	Errors map[string]string `json:"errors"`
}

// ConfirmState is a delete awaiting confirmation
type ConfirmState struct {
	BookID  int64  `json:"book_id"`
	Message string `json:"message"`
}

// TableRow is one table line; Serial is the 1-based position across pages.
type TableRow struct {
	Serial int `json:"serial"`
	entities.Book
}

// Pagination drives the table's page controls.
type Pagination struct {
	Page        int  `json:"page"`
	TotalPages  int  `json:"total_pages"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// CatalogView is everything a presentation layer needs to draw the catalog.
type CatalogView struct {
	View          entities.ViewMode `json:"view"`
	GenreFilter   string            `json:"genre_filter"`
	StatusFilter  string            `json:"status_filter"`
	Search        string            `json:"search"`
	Page          int               `json:"page"`
	TotalPages    int               `json:"total_pages"`
	FilteredCount int               `json:"filtered_count"`
	Rows          []TableRow        `json:"rows,omitempty"`
	Cards         []entities.Book   `json:"cards,omitempty"`
	Placeholder   string            `json:"placeholder,omitempty"`
	Pagination    *Pagination       `json:"pagination,omitempty"`
	Form          *FormState        `json:"form,omitempty"`
	Confirm       *ConfirmState     `json:"confirm,omitempty"`
	Toast         string            `json:"toast,omitempty"`
}
