package mcpservice

import (
	"strconv"

	"github.com/ggoodman/ez-mcp/internal/jsonrpc"
)

// DefaultPageSize is the number of items per listing page.
const DefaultPageSize = 50

// Page represents a single page of results with an optional cursor for fetching
// the next page.
//
// Items is never nil; NewPage normalizes nil input to an empty slice for
// ergonomics at call sites.
type Page[T any] struct {
	Items      []T
	NextCursor *string
}

// PageOption configures a Page constructed via NewPage.
type PageOption[T any] func(*Page[T])

// WithNextCursor sets the next cursor on the Page to indicate that more
// results are available.
func WithNextCursor[T any](cursor string) PageOption[T] {
	return func(p *Page[T]) {
		p.NextCursor = &cursor
	}
}

// NewPage constructs a Page with the provided items and optional configuration
// options. If items is nil, it will be replaced with an empty slice.
func NewPage[T any](items []T, opts ...PageOption[T]) Page[T] {
	if items == nil {
		items = make([]T, 0)
	}
	p := Page[T]{Items: items}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// cursorOf returns the wire form of a page's next cursor.
func cursorOf[T any](p Page[T]) string {
	if p.NextCursor == nil {
		return ""
	}
	return *p.NextCursor
}

// parseCursor decodes an offset cursor. The empty cursor is the first page.
func parseCursor(cursor string, total int) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 || n > total {
		return 0, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, "invalid cursor", nil)
	}
	return n, nil
}

// pageSlice paginates a slice using an integer cursor (offset as decimal).
func pageSlice[T any](all []T, pageSize int, cursor string) (Page[T], error) {
	start, err := parseCursor(cursor, len(all))
	if err != nil {
		return Page[T]{}, err
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	items := make([]T, end-start)
	copy(items, all[start:end])
	if end < len(all) {
		return NewPage(items, WithNextCursor[T](strconv.Itoa(end))), nil
	}
	return NewPage(items), nil
}
