package services

import (
	"fmt"
	"testing"

	"github.com/shelfmate/core/internal/domain/entities"
	"github.com/shelfmate/core/internal/ports"
)

func genrePtr(g entities.Genre) *entities.Genre    { return &g }
func statusPtr(s entities.Status) *entities.Status { return &s }

func sampleBooks() []entities.Book {
	return []entities.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", Genre: entities.GenreScienceFiction, Year: 1965, Status: entities.StatusAvailable},
		{ID: 2, Title: "Emma", Author: "Jane Austen", Genre: entities.GenreRomance, Year: 1815, Status: entities.StatusIssued},
		{ID: 3, Title: "Foundation", Author: "Isaac Asimov", Genre: entities.GenreScienceFiction, Year: 1951, Status: entities.StatusIssued},
		{ID: 4, Title: "SPQR", Author: "Mary Beard", Genre: entities.GenreHistory, Year: 2015, Status: entities.StatusAvailable},
		{ID: 5, Title: "Persuasion", Author: "Jane Austen", Genre: entities.GenreRomance, Year: 1817, Status: entities.StatusAvailable},
	}
}

func numberedBooks(n int) []entities.Book {
	out := make([]entities.Book, n)
	for i := range out {
		out[i] = entities.Book{
			ID:     int64(i + 1),
			Title:  fmt.Sprintf("Book %02d", i+1),
			Author: "Author",
			Genre:  entities.GenreFiction,
			Year:   2001,
			Status: entities.StatusAvailable,
		}
	}
	return out
}

func ids(books []entities.Book) []int64 {
	out := make([]int64, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestMatches(t *testing.T) {
	dune := sampleBooks()[0]

	tests := []struct {
		name   string
		filter ports.BookFilter
		want   bool
	}{
		{"no criteria", ports.BookFilter{}, true},
		{"genre match", ports.BookFilter{Genre: genrePtr(entities.GenreScienceFiction)}, true},
		{"genre mismatch", ports.BookFilter{Genre: genrePtr(entities.GenreRomance)}, false},
		{"status match", ports.BookFilter{Status: statusPtr(entities.StatusAvailable)}, true},
		{"status mismatch", ports.BookFilter{Status: statusPtr(entities.StatusIssued)}, false},
		{"title substring any case", ports.BookFilter{Search: "uNe"}, true},
		{"author substring", ports.BookFilter{Search: "herb"}, true},
		{"search miss", ports.BookFilter{Search: "asimov"}, false},
		{"all criteria", ports.BookFilter{Genre: genrePtr(entities.GenreScienceFiction), Status: statusPtr(entities.StatusAvailable), Search: "frank"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(dune, tt.filter); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterBooks_CriteriaCommute(t *testing.T) {
	books := sampleBooks()
	genre := ports.BookFilter{Genre: genrePtr(entities.GenreRomance)}
	status := ports.BookFilter{Status: statusPtr(entities.StatusAvailable)}
	search := ports.BookFilter{Search: "austen"}

	orders := [][]ports.BookFilter{
		{genre, status, search},
		{search, genre, status},
		{status, search, genre},
	}

	var first []int64
	for i, order := range orders {
		out := books
		for _, f := range order {
			out = FilterBooks(out, f)
		}
		got := ids(out)
		if i == 0 {
			first = got
			continue
		}
		if !equalIDs(got, first) {
			t.Errorf("order %d gave %v, want %v", i, got, first)
		}
	}

	combined := FilterBooks(books, ports.BookFilter{
		Genre:  genre.Genre,
		Status: status.Status,
		Search: search.Search,
	})
	if !equalIDs(ids(combined), first) || !equalIDs(first, []int64{5}) {
		t.Errorf("combined = %v, sequential = %v, want [5]", ids(combined), first)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 0}, {1, 1}, {9, 1}, {10, 1}, {11, 2}, {20, 2}, {21, 3},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.n, 10); got != tt.want {
			t.Errorf("TotalPages(%d, 10) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestPaginate_LastPageSize(t *testing.T) {
	for _, n := range []int{1, 7, 10, 11, 19, 20, 23} {
		books := numberedBooks(n)
		pages := TotalPages(n, 10)
		last, offset := Paginate(books, pages, 10)

		want := n % 10
		if want == 0 {
			want = 10
		}
		if len(last) != want {
			t.Errorf("n=%d: last page has %d records, want %d", n, len(last), want)
		}
		if offset != (pages-1)*10 {
			t.Errorf("n=%d: offset = %d", n, offset)
		}
	}
}

func TestPaginate_OutOfRange(t *testing.T) {
	books := numberedBooks(3)

	page, _ := Paginate(books, 2, 10)
	if len(page) != 0 {
		t.Errorf("page beyond end returned %d records", len(page))
	}
	page, offset := Paginate(books, 0, 10)
	if len(page) != 3 || offset != 0 {
		t.Errorf("page 0 should clamp to page 1, got %d records at %d", len(page), offset)
	}
}

func TestQueryService_Run(t *testing.T) {
	q, err := NewQueryService(10, 16)
	if err != nil {
		t.Fatal(err)
	}
	snap := Snapshot{books: numberedBooks(12), version: 1}

	page1 := q.Run(snap, ports.BookFilter{Page: 1}, true)
	if len(page1.Books) != 10 || page1.TotalPages != 2 || page1.FilteredCount != 12 {
		t.Fatalf("page 1 = %d books, %d pages, %d filtered", len(page1.Books), page1.TotalPages, page1.FilteredCount)
	}

	page2 := q.Run(snap, ports.BookFilter{Page: 2}, true)
	if len(page2.Books) != 2 || page2.Offset != 10 {
		t.Fatalf("page 2 = %d books at offset %d", len(page2.Books), page2.Offset)
	}

	all := q.Run(snap, ports.BookFilter{Page: 2}, false)
	if len(all.Books) != 12 {
		t.Errorf("unpaginated run returned %d books, want 12", len(all.Books))
	}
}

func TestQueryService_CachedResultsAreCopies(t *testing.T) {
	q, _ := NewQueryService(10, 16)
	snap := Snapshot{books: sampleBooks(), version: 7}
	f := ports.BookFilter{Page: 1}

	first := q.Run(snap, f, true)
	first.Books[0].Title = "scribbled"

	second := q.Run(snap, f, true)
	if second.Books[0].Title != "Dune" {
		t.Errorf("cached result was mutated through a caller: %q", second.Books[0].Title)
	}
}

func TestQueryService_NewVersionMissesCache(t *testing.T) {
	q, _ := NewQueryService(10, 16)
	f := ports.BookFilter{Page: 1}

	before := q.Run(Snapshot{books: sampleBooks(), version: 1}, f, true)
	after := q.Run(Snapshot{books: sampleBooks()[:2], version: 2}, f, true)

	if before.FilteredCount != 5 || after.FilteredCount != 2 {
		t.Errorf("filtered counts = %d, %d, want 5, 2", before.FilteredCount, after.FilteredCount)
	}
}

func TestNewQueryService_Defaults(t *testing.T) {
	q, err := NewQueryService(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if q.PageSize() != DefaultPageSize {
		t.Errorf("PageSize() = %d, want %d", q.PageSize(), DefaultPageSize)
	}
	q.Purge()
}
