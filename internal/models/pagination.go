package models

import "math"

const (
	// MaxPageSize bounds every paginated listing.
	MaxPageSize = 100
	// MaxPage bounds the page number so (Page-1)*Limit cannot overflow.
	MaxPage = math.MaxInt32
	// DefaultPageSize is used by the relationship and subscription listings.
	DefaultPageSize = 20
)

// Pagination is a normalised page request. Use NewPagination to build one.
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination clamps page to [1, MaxPage] and limit to [1, MaxPageSize]. A zero
// limit means "not supplied" and falls back to defaultLimit.
func NewPagination(page, limit, defaultLimit int) Pagination {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset is the number of rows to skip.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of a listing.
type Page[T any] struct {
	Items       []T
	Total       int64
	Pages       int
	CurrentPage int
}

// NewPage builds a page, computing the page count from total and limit.
func NewPage[T any](items []T, total int64, p Pagination) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Page[T]{Items: items, Total: total, Pages: pages, CurrentPage: p.Page}
}
