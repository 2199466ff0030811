// Package listview holds the client-side state behind every admin list
// screen: the loaded items, the search query and discrete filters, the
// current page, and a generation counter that drops responses superseded
// by a newer fetch.
//
// Filtering and pagination are pure functions over the loaded slice, so
// the whole collection is held in memory. That is fine for admin-sized
// lists; resources that can grow unbounded page on the server instead.
package listview

import (
	"fmt"
	"strings"
	"sync"

	"github.com/timedrop/tdadmin/internal/domain"
)

// DefaultPageSize is used when a page size below 1 is requested.
const DefaultPageSize = 10

// FilterAll is the discrete-filter value that disables the filter.
const FilterAll = "all"

// Query is the search text plus the discrete filters of a list screen.
type Query struct {
	Text    string
	Filters map[string]string
}

// Filter returns the value of a discrete filter, FilterAll when unset.
func (q Query) Filter(key string) string {
	if v := q.Filters[key]; v != "" {
		return v
	}
	return FilterAll
}

func (q Query) equal(o Query) bool {
	if q.Text != o.Text {
		return false
	}
	for k := range q.Filters {
		if q.Filter(k) != o.Filter(k) {
			return false
		}
	}
	for k := range o.Filters {
		if q.Filter(k) != o.Filter(k) {
			return false
		}
	}
	return true
}

// Filter returns the items for which match is true, in their original
// order. The input slice is not modified.
func Filter[T any](items []T, match func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

// Contains reports whether any field contains query, ignoring case and
// surrounding whitespace. An empty query matches everything.
func Contains(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Matches reports whether value satisfies a discrete filter. FilterAll and
// the empty filter match everything.
func Matches(filter, value string) bool {
	if filter == "" || filter == FilterAll {
		return true
	}
	return strings.EqualFold(filter, value)
}

// TotalPages is max(1, ceil(n/size)).
func TotalPages(n, size int) int {
	if size < 1 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate returns the slice of items shown on page, with page clamped to
// [1, TotalPages]. The clamped page number is returned alongside.
func Paginate[T any](items []T, page, size int) ([]T, int) {
	if size < 1 {
		size = DefaultPageSize
	}
	total := TotalPages(len(items), size)
	page = min(max(page, 1), total)

	start := (page - 1) * size
	end := min(start+size, len(items))
	if start >= end {
		return []T{}, page
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, page
}

// Page is an immutable snapshot of one rendered list page.
type Page[T any] struct {
	Items      []T    `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalItems int    `json:"totalItems"`
	TotalPages int    `json:"totalPages"`
	Loading    bool   `json:"loading"`
	Loaded     bool   `json:"loaded"`
	Err        string `json:"error,omitempty"`
}

// Ticket identifies one fetch started with Begin.
type Ticket uint64

// List is the mutex-guarded state of one list screen.
type List[T any] struct {
	id    func(T) string
	match func(T, Query) bool

	mu      sync.Mutex
	items   []T
	query   Query
	page    int
	size    int
	gen     uint64
	loading bool
	loaded  bool
	err     error
}

// New creates an empty list. id extracts the stable identifier used by
// Patch and Remove; match decides whether an item passes a Query.
func New[T any](id func(T) string, match func(T, Query) bool, pageSize int) *List[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &List[T]{id: id, match: match, page: 1, size: pageSize}
}

// SetQuery replaces the search text and filters. A change resets the page
// to 1.
func (l *List[T]) SetQuery(q Query) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.query.equal(q) {
		l.query = q
		l.page = 1
	}
}

// SetPage moves to page n. Out-of-range pages are clamped at snapshot time.
func (l *List[T]) SetPage(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.page = max(n, 1)
}

// SetPageSize changes the page size and resets the page to 1.
func (l *List[T]) SetPageSize(n int) {
	if n < 1 {
		n = DefaultPageSize
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if n != l.size {
		l.size = n
		l.page = 1
	}
}

// Replace swaps the loaded items outside of the fetch cycle and resets the
// page to 1.
func (l *List[T]) Replace(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.replaceLocked(items)
}

func (l *List[T]) replaceLocked(items []T) {
	l.items = append([]T(nil), items...)
	l.page = 1
	l.loaded = true
	l.err = nil
}

// Begin marks a fetch as started and returns its ticket. Any ticket issued
// earlier becomes stale.
func (l *List[T]) Begin() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.loading = true
	return Ticket(l.gen)
}

// Commit applies the result of the fetch identified by t. It returns
// domain.ErrStaleResponse, leaving state untouched, when a newer fetch has
// begun since.
func (l *List[T]) Commit(t Ticket, items []T) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if uint64(t) != l.gen {
		return fmt.Errorf("listview: commit ticket %d of %d: %w", t, l.gen, domain.ErrStaleResponse)
	}
	l.replaceLocked(items)
	l.loading = false
	return nil
}

// Fail records err for the fetch identified by t. Loaded items are kept.
func (l *List[T]) Fail(t Ticket, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if uint64(t) != l.gen {
		return fmt.Errorf("listview: fail ticket %d of %d: %w", t, l.gen, domain.ErrStaleResponse)
	}
	l.err = err
	l.loading = false
	return nil
}

// Patch applies fn to the item with the given id in place. It returns false
// when no such item is loaded.
func (l *List[T]) Patch(id string, fn func(*T)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.id(l.items[i]) == id {
			fn(&l.items[i])
			return true
		}
	}
	return false
}

// Remove drops the item with the given id.
func (l *List[T]) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.id(l.items[i]) == id {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the loaded item with the given id.
func (l *List[T]) Get(id string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if l.id(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Items returns a copy of every loaded item, unfiltered.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}

// Loaded reports whether a fetch has ever been committed.
func (l *List[T]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Snapshot filters and paginates the loaded items for the current query.
func (l *List[T]) Snapshot() Page[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	q := l.query
	filtered := Filter(l.items, func(it T) bool { return l.match(it, q) })
	items, page := Paginate(filtered, l.page, l.size)

	p := Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   l.size,
		TotalItems: len(filtered),
		TotalPages: TotalPages(len(filtered), l.size),
		Loading:    l.loading,
		Loaded:     l.loaded,
	}
	if l.err != nil {
		p.Err = l.err.Error()
	}
	return p
}
