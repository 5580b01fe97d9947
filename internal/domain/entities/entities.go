package entities

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrBookNotFound      = errors.New("book not found")
	ErrInvalidGenre      = errors.New("invalid genre")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidView       = errors.New("invalid view mode")
	ErrInvalidPage       = errors.New("invalid page")
	ErrNoOpenForm        = errors.New("no book form is open")
	ErrNoPendingDelete   = errors.New("no delete is awaiting confirmation")
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// Enums and types
type Genre string

const (
	GenreFiction        Genre = "Fiction"
	GenreScienceFiction Genre = "Science Fiction"
	GenreRomance        Genre = "Romance"
	GenreHistory        Genre = "History"
	GenreSelfHelp       Genre = "Self-Help"
	GenreTravel         Genre = "Travel"
)

// Genres lists every genre in the order the catalog offers them.
var Genres = []Genre{
	GenreFiction,
	GenreScienceFiction,
	GenreRomance,
	GenreHistory,
	GenreSelfHelp,
	GenreTravel,
}

// ParseGenre converts user input into a Genre.
func ParseGenre(s string) (Genre, error) {
	for _, g := range Genres {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGenre, s)
}

type Status string

const (
	StatusAvailable Status = "Available"
	StatusIssued    Status = "Issued"
)

var Statuses = []Status{StatusAvailable, StatusIssued}

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// ViewMode selects how the catalog is presented.
type ViewMode string

const (
	ViewTable ViewMode = "table"
	ViewGrid  ViewMode = "grid"
)

func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case ViewTable, ViewGrid:
		return ViewMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
}

// Book represents a catalog record
type Book struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       Genre  `json:"genre"`
	Year        int    `json:"year"`
	Status      Status `json:"status"`
	ISBN        string `json:"isbn,omitempty"`
	Description string `json:"description,omitempty"`
}

// IsAvailable reports whether the book can be issued
func (b *Book) IsAvailable() bool {
	return b.Status == StatusAvailable
}
