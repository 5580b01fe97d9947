package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shelfmate/core/internal/domain/entities"
	"github.com/shelfmate/core/internal/ports"
)

// renderView prints a catalog view as an aligned table or as cards.
func renderView(w io.Writer, view ports.CatalogView) error {
	fmt.Fprintf(w, "Genre: %s | Status: %s", view.GenreFilter, view.StatusFilter)
	if view.Search != "" {
		fmt.Fprintf(w, " | Search: %q", view.Search)
	}
	fmt.Fprintln(w)

	if view.View == entities.ViewGrid {
		return renderGrid(w, view)
	}
	return renderTable(w, view)
}

func renderTable(w io.Writer, view ports.CatalogView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTITLE\tAUTHOR\tGENRE\tYEAR\tSTATUS")
	if view.Placeholder != "" {
		fmt.Fprintf(tw, "\t\t%s\t\t\t\t\n", view.Placeholder)
	}
	for _, row := range view.Rows {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%d\t%s\n",
			row.Serial, row.ID, row.Title, row.Author, row.Genre, row.Year, row.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if p := view.Pagination; p != nil {
		var controls []string
		if p.HasPrevious {
			controls = append(controls, fmt.Sprintf("--page %d for previous", p.Page-1))
		}
		if p.HasNext {
			controls = append(controls, fmt.Sprintf("--page %d for next", p.Page+1))
		}
		fmt.Fprintf(w, "Page %d of %d", p.Page, p.TotalPages)
		if len(controls) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(controls, ", "))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func renderGrid(w io.Writer, view ports.CatalogView) error {
	if view.Placeholder != "" {
		fmt.Fprintln(w, view.Placeholder)
		return nil
	}
	for i := range view.Cards {
		fmt.Fprintln(w, strings.Repeat("-", 40))
		renderBook(w, view.Cards[i])
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "%d book(s)\n", view.FilteredCount)
	return nil
}

// renderBook prints a single card
func renderBook(w io.Writer, b entities.Book) {
	marker := "[issued]"
	if b.IsAvailable() {
		marker = "[available]"
	}
	fmt.Fprintf(w, "%s %s\n", b.Title, marker)
	fmt.Fprintf(w, "  by %s, %d\n", b.Author, b.Year)
	fmt.Fprintf(w, "  %s | ID %d\n", b.Genre, b.ID)
	if b.ISBN != "" {
		fmt.Fprintf(w, "  ISBN %s\n", b.ISBN)
	}
	if b.Description != "" {
		fmt.Fprintf(w, "  %s\n", b.Description)
	}
}
