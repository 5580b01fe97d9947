package services

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shelfmate/core/internal/domain/entities"
	"github.com/shelfmate/core/internal/ports"
)

// DefaultPageSize is the number of table rows per page
const DefaultPageSize = 10

// QueryResult is the visible part of a filtered catalog.
type QueryResult struct {
	Books         []entities.Book
	FilteredCount int
	TotalPages    int
	// Offset is the position of Books[0] within the filtered set.
	Offset int
}

// Matches reports whether a book passes the genre, status and search criteria.
func Matches(b entities.Book, f ports.BookFilter) bool {
	if f.Genre != nil && b.Genre != *f.Genre {
		return false
	}
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(b.Title), q) ||
		strings.Contains(strings.ToLower(b.Author), q)
}

// FilterBooks keeps the books matching f, preserving order.
func FilterBooks(books []entities.Book, f ports.BookFilter) []entities.Book {
	out := make([]entities.Book, 0, len(books))
	for _, b := range books {
		if Matches(b, f) {
			out = append(out, b)
		}
	}
	return out
}

// TotalPages returns ceil(n / pageSize); zero when n is zero.
func TotalPages(n, pageSize int) int {
	if n <= 0 || pageSize <= 0 {
		return 0
	}
	return (n + pageSize - 1) / pageSize
}

// Paginate returns the window [(page-1)*pageSize, page*pageSize) clamped to
// the slice bounds, plus the window's starting offset.
func Paginate(books []entities.Book, page, pageSize int) ([]entities.Book, int) {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(books) {
		return []entities.Book{}, start
	}
	end := start + pageSize
	if end > len(books) {
		end = len(books)
	}
	return books[start:end], start
}

// QueryService runs the filter -> paginate pipeline over store snapshots and
// memoizes results per snapshot version.
type QueryService struct {
	pageSize int
	cache    *lru.Cache[string, QueryResult]
}

// NewQueryService creates a query service. cacheSize < 1 disables caching.
func NewQueryService(pageSize, cacheSize int) (*QueryService, error) {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	q := &QueryService{pageSize: pageSize}
	if cacheSize > 0 {
		cache, err := lru.New[string, QueryResult](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create query cache: %w", err)
		}
		q.cache = cache
	}
	return q, nil
}

// PageSize returns the configured page size
func (q *QueryService) PageSize() int { return q.pageSize }

// Run filters the snapshot and, when paginate is set, cuts out f.Page.
// Without pagination the whole filtered set is returned.
func (q *QueryService) Run(snap Snapshot, f ports.BookFilter, paginate bool) QueryResult {
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = q.pageSize
	}

	key := cacheKey(snap.Version(), f, pageSize, paginate)
	if q.cache != nil {
		if res, ok := q.cache.Get(key); ok {
			return res.clone()
		}
	}

	filtered := FilterBooks(snap.books, f)
	res := QueryResult{
		FilteredCount: len(filtered),
		TotalPages:    TotalPages(len(filtered), pageSize),
	}
	if paginate {
		res.Books, res.Offset = Paginate(filtered, f.Page, pageSize)
	} else {
		res.Books = filtered
	}

	if q.cache != nil {
		q.cache.Add(key, res)
	}
	return res.clone()
}

// Purge drops all memoized results
func (q *QueryService) Purge() {
	if q.cache != nil {
		q.cache.Purge()
	}
}

func (r QueryResult) clone() QueryResult {
	books := make([]entities.Book, len(r.Books))
	copy(books, r.Books)
	r.Books = books
	return r
}

func cacheKey(version uint64, f ports.BookFilter, pageSize int, paginate bool) string {
	genre, status := "*", "*"
	if f.Genre != nil {
		genre = string(*f.Genre)
	}
	if f.Status != nil {
		status = string(*f.Status)
	}
	return fmt.Sprintf("%d\x00%s\x00%s\x00%s\x00%d\x00%d\x00%t", version, genre, status, f.Search, f.Page, pageSize, paginate)
}
