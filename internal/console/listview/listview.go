// Package listview drives a filterable, sortable, paginated table backed by
// a remote list endpoint.
package listview

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/landlordheaven/heaven-backend/internal/console/feedback"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/pagination"
)

const (
	DefaultPageSize = 20
	// FilterAll is the default value of every filter.
	FilterAll = "all"
)

// ErrSuperseded is returned by a fetch whose response arrived after a newer
// fetch was issued. Its result is discarded.
var ErrSuperseded = errors.New("list fetch superseded by a newer request")

// SearchMode selects where the free-text search term is applied.
type SearchMode int

const (
	// SearchServer sends the term with the query so it is applied before pagination.
	SearchServer SearchMode = iota
	// SearchPage filters only the rows of the loaded page. Rows on other
	// pages that match are never shown.
	SearchPage
)

// ParseSearchMode maps "server" or "page" onto a SearchMode.
func ParseSearchMode(value string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "server":
		return SearchServer, nil
	case "page":
		return SearchPage, nil
	}
	return SearchServer, errors.New("search mode must be server or page")
}

// Query is the state encoded into each list request.
type Query struct {
	Filters  map[string]string
	SortBy   string
	Page     int
	PageSize int
	// Search is empty in SearchPage mode.
	Search string
}

// Filter returns the named filter, with FilterAll mapped to "".
func (q Query) Filter(name string) string {
	v := q.Filters[name]
	if v == FilterAll {
		return ""
	}
	return v
}

func (q Query) clone() Query {
	out := q
	out.Filters = make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		out.Filters[k] = v
	}
	return out
}

// Page is one server response.
type Page[T any] struct {
	Rows  []T
	Count int64
}

// Fetcher loads one page for a query.
type Fetcher[T any] func(ctx context.Context, q Query) (Page[T], error)

// Matcher reports whether a row matches a page-local search term.
type Matcher[T any] func(row T, term string) bool

type Options[T any] struct {
	PageSize int
	SortBy   string
	// Filters names the filters the view exposes. Each starts at FilterAll.
	Filters []string
	Search  SearchMode
	Match   Matcher[T]
	Logger  *logger.Logger
}

// Snapshot is a consistent read of the view state.
type Snapshot[T any] struct {
	Query     Query
	Rows      []T
	Count     int64
	PageCount int
	Loading   bool
	Loaded    bool
	Message   feedback.Message
}

// Controller owns the list state. It is safe for concurrent use.
type Controller[T any] struct {
	fetch Fetcher[T]
	match Matcher[T]
	mode  SearchMode
	logg  *logger.Logger

	mu       sync.Mutex
	query    Query
	term     string
	rows     []T
	count    int64
	loaded   bool
	seq      uint64
	cancel   context.CancelFunc
	loading  bool
	message  feedback.Message
	inFlight map[string]bool
}

func New[T any](fetch Fetcher[T], opts Options[T]) *Controller[T] {
	size := opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	filters := make(map[string]string, len(opts.Filters))
	for _, name := range opts.Filters {
		filters[name] = FilterAll
	}
	return &Controller[T]{
		fetch: fetch,
		match: opts.Match,
		mode:  opts.Search,
		logg:  opts.Logger,
		query: Query{
			Filters:  filters,
			SortBy:   opts.SortBy,
			Page:     1,
			PageSize: size,
		},
		inFlight: map[string]bool{},
	}
}

// Refresh refetches the current query.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	return c.load(ctx)
}

// SetFilter changes one filter and returns to the first page.
func (c *Controller[T]) SetFilter(ctx context.Context, name, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		value = FilterAll
	}
	c.mu.Lock()
	c.query.Filters[name] = value
	c.query.Page = 1
	c.mu.Unlock()
	return c.load(ctx)
}

func (c *Controller[T]) SetSort(ctx context.Context, sortBy string) error {
	c.mu.Lock()
	c.query.SortBy = sortBy
	c.query.Page = 1
	c.mu.Unlock()
	return c.load(ctx)
}

// SetPage moves to page, clamped to at least 1.
func (c *Controller[T]) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	c.query.Page = page
	c.mu.Unlock()
	return c.load(ctx)
}

// SetSearch updates the search term. In SearchPage mode no request is made.
func (c *Controller[T]) SetSearch(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	c.mu.Lock()
	c.term = term
	if c.mode == SearchPage {
		c.mu.Unlock()
		return nil
	}
	c.query.Search = term
	c.query.Page = 1
	c.mu.Unlock()
	return c.load(ctx)
}

// Configure replaces the whole query state without fetching. Unknown filter
// names are ignored. Call Refresh afterwards.
func (c *Controller[T]) Configure(filters map[string]string, sortBy string, page int, search string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, value := range filters {
		if _, ok := c.query.Filters[name]; !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			value = FilterAll
		}
		c.query.Filters[name] = value
	}
	if sortBy != "" {
		c.query.SortBy = sortBy
	}
	if page < 1 {
		page = 1
	}
	c.query.Page = page
	c.term = strings.TrimSpace(search)
	if c.mode == SearchServer {
		c.query.Search = c.term
	}
}

// Close cancels any in-flight fetch. Late responses are dropped.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.loading = false
}

func (c *Controller[T]) load(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	q := c.query.clone()
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.loading = true
	c.mu.Unlock()

	page, err := c.fetch(fetchCtx, q)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return ErrSuperseded
	}
	c.cancel = nil
	c.loading = false
	if err != nil {
		// keep the last good rows
		c.message = feedback.FromError(err, "failed to load data")
		if c.logg != nil {
			c.logg.Error(ctx, "list fetch failed", err)
		}
		return err
	}
	rows := make([]T, len(page.Rows))
	copy(rows, page.Rows)
	c.rows = rows
	c.count = page.Count
	c.loaded = true
	if c.message.IsError() {
		c.message = feedback.Message{}
	}
	return nil
}

// Snapshot returns the current state. Rows are the visible rows, so a
// page-local search term is already applied.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[T]{
		Query:     c.query.clone(),
		Rows:      c.visibleLocked(),
		Count:     c.count,
		PageCount: pagination.PageCount(c.count, c.query.PageSize),
		Loading:   c.loading,
		Loaded:    c.loaded,
		Message:   c.message,
	}
}

// Rows returns the visible rows.
func (c *Controller[T]) Rows() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleLocked()
}

func (c *Controller[T]) visibleLocked() []T {
	out := make([]T, 0, len(c.rows))
	for _, row := range c.rows {
		if c.mode == SearchPage && c.term != "" && c.match != nil && !c.match(row, c.term) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// ClearMessage drops the current message.
func (c *Controller[T]) ClearMessage() {
	c.mu.Lock()
	c.message = feedback.Message{}
	c.mu.Unlock()
}
