package view

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/fivetwenty-io/blog-client/internal/constants"
	"github.com/fivetwenty-io/blog-client/internal/observe"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// Status is a controller's lifecycle state.
type Status int

// Controller states. NotFound is only used by PostDetail.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
	StatusNotFound
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	case StatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// MarshalText renders the status name in JSON and YAML output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Query is the list's pagination and filter state.
type Query struct {
	Page     int    `json:"page"      yaml:"page"`
	PageSize int    `json:"page_size" yaml:"page_size"`
	Search   string `json:"search"    yaml:"search"`
	Category string `json:"category"  yaml:"category"`
}

func (q Query) postQuery() *blog.PostQuery {
	return &blog.PostQuery{
		Page:     q.Page,
		Limit:    q.PageSize,
		Category: q.Category,
		Search:   q.Search,
	}
}

// ListState is a snapshot of the post list.
type ListState struct {
	Status        Status          `json:"status"                   yaml:"status"`
	Posts         []blog.Post     `json:"posts"                    yaml:"posts"`
	Categories    []blog.Category `json:"categories"               yaml:"categories"`
	Query         Query           `json:"query"                    yaml:"query"`
	TotalPages    int             `json:"total_pages"              yaml:"total_pages"`
	Error         string          `json:"error,omitempty"          yaml:"error,omitempty"`
	PendingDelete string          `json:"pending_delete,omitempty" yaml:"pending_delete,omitempty"`
}

func (s ListState) clone() ListState {
	s.Posts = slices.Clone(s.Posts)
	s.Categories = slices.Clone(s.Categories)

	return s
}

// PageSelector is one pagination control.
type PageSelector struct {
	Number   int    `json:"number"   yaml:"number"`
	Label    string `json:"label"    yaml:"label"`
	Disabled bool   `json:"disabled" yaml:"disabled"`
}

// PageSelectors returns one selector per page, with the current page
// disabled.
func (s ListState) PageSelectors() []PageSelector {
	selectors := make([]PageSelector, 0, s.TotalPages)

	for page := 1; page <= s.TotalPages; page++ {
		selectors = append(selectors, PageSelector{
			Number:   page,
			Label:    strconv.Itoa(page),
			Disabled: page == s.Query.Page,
		})
	}

	return selectors
}

// ListOptions configures a PostList.
type ListOptions struct {
	// PageSize is the number of posts per page.
	PageSize int
	// RetainPageOnFilterChange keeps the current page when the search term
	// or category changes instead of going back to page 1.
	RetainPageOnFilterChange bool
	// Query is the starting page and filters. PageSize above wins over
	// Query.PageSize.
	Query Query
	// Logger receives discarded-response diagnostics.
	Logger blog.Logger
}

// PostList is the post list controller. It is safe for concurrent use.
//
// Every fetch takes a sequence number; a response is applied only if no
// newer fetch was started meanwhile. A failed optimistic delete restores the
// list only if no fetch has landed since the delete began.
type PostList struct {
	client  blog.Client
	options ListOptions

	mutex      sync.Mutex
	state      ListState
	sequence   uint64
	generation uint64

	observers observe.List[ListState]
}

// NewPostList creates an idle list controller.
func NewPostList(client blog.Client, options ListOptions) *PostList {
	if options.PageSize <= 0 {
		options.PageSize = constants.DefaultPageSize
	}

	if options.Logger == nil {
		options.Logger = blog.NopLogger()
	}

	query := options.Query
	query.PageSize = options.PageSize

	if query.Page < constants.FirstPage {
		query.Page = constants.FirstPage
	}

	return &PostList{
		client:  client,
		options: options,
		state: ListState{
			Status:     StatusIdle,
			Posts:      []blog.Post{},
			Categories: []blog.Category{},
			Query:      query,
		},
	}
}

// State returns a snapshot of the current state.
func (l *PostList) State() ListState {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.state.clone()
}

// PageSelectors returns the pagination controls for the current state.
func (l *PostList) PageSelectors() []PageSelector {
	return l.State().PageSelectors()
}

// Subscribe registers an observer called after every state change.
func (l *PostList) Subscribe(observer func(ListState)) func() {
	return l.observers.Subscribe(observer)
}

func (l *PostList) publish() {
	l.observers.Notify(l.State())
}

// Load fetches the current query.
func (l *PostList) Load(ctx context.Context) error {
	l.mutex.Lock()
	query := l.state.Query
	l.mutex.Unlock()

	return l.fetch(ctx, query)
}

// SetPage moves to page. Selecting the current page does nothing.
func (l *PostList) SetPage(ctx context.Context, page int) error {
	l.mutex.Lock()
	query := l.state.Query
	lastPage := max(l.state.TotalPages, 1)
	l.mutex.Unlock()

	if page == query.Page {
		return nil
	}

	if page < 1 || page > lastPage {
		return fmt.Errorf("%w: %d not in 1..%d", ErrPageOutOfRange, page, lastPage)
	}

	query.Page = page

	return l.fetch(ctx, query)
}

// SetSearch changes the search term and re-fetches.
func (l *PostList) SetSearch(ctx context.Context, search string) error {
	l.mutex.Lock()
	query := l.state.Query
	l.mutex.Unlock()

	if search == query.Search {
		return nil
	}

	query.Search = search
	if !l.options.RetainPageOnFilterChange {
		query.Page = constants.FirstPage
	}

	return l.fetch(ctx, query)
}

// SetCategory changes the category filter and re-fetches. An empty id
// means all categories.
func (l *PostList) SetCategory(ctx context.Context, categoryID string) error {
	l.mutex.Lock()
	query := l.state.Query
	l.mutex.Unlock()

	if categoryID == query.Category {
		return nil
	}

	query.Category = categoryID
	if !l.options.RetainPageOnFilterChange {
		query.Page = constants.FirstPage
	}

	return l.fetch(ctx, query)
}

// fetch loads posts then categories for query. It returns ErrStaleResponse
// when a newer fetch started before this one finished.
func (l *PostList) fetch(ctx context.Context, query Query) error {
	l.mutex.Lock()
	l.sequence++
	sequence := l.sequence
	l.state.Query = query
	l.state.Status = StatusLoading
	l.state.Error = ""
	l.mutex.Unlock()
	l.publish()

	page, err := l.client.Posts().List(ctx, query.postQuery())
	if err == nil && page.Pages > 0 && query.Page > page.Pages {
		if !l.current(sequence) {
			return l.discard(sequence)
		}

		// The requested page no longer exists; fall back to the last one.
		query.Page = page.Pages

		page, err = l.client.Posts().List(ctx, query.postQuery())
	}

	var categories []blog.Category
	if err == nil {
		categories, err = l.client.Categories().List(ctx)
	}

	l.mutex.Lock()
	if sequence != l.sequence {
		l.mutex.Unlock()

		return l.discard(sequence)
	}

	if err != nil {
		l.state.Status = StatusError
		l.state.Error = blog.ErrorMessage(err)
		l.mutex.Unlock()
		l.publish()

		return fmt.Errorf("loading posts: %w", err)
	}

	l.generation++
	l.state.Status = StatusReady
	l.state.Query = query
	l.state.Posts = slices.Clone(page.Posts)
	l.state.TotalPages = page.Pages
	l.state.Categories = slices.Clone(categories)

	if l.state.Posts == nil {
		l.state.Posts = []blog.Post{}
	}

	if l.state.Categories == nil {
		l.state.Categories = []blog.Category{}
	}
	l.mutex.Unlock()
	l.publish()

	return nil
}

func (l *PostList) current(sequence uint64) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return sequence == l.sequence
}

func (l *PostList) discard(sequence uint64) error {
	l.options.Logger.Debug("discarding stale post list response", map[string]interface{}{
		"sequence": sequence,
	})

	return ErrStaleResponse
}

type deleteSnapshot struct {
	posts      []blog.Post
	generation uint64
}

// Delete removes the post from the list immediately, then deletes it
// remotely. If the remote call fails the list is restored exactly as it was,
// unless a newer fetch has replaced it in the meantime, and the failure is
// reported in the state's Error.
func (l *PostList) Delete(ctx context.Context, id string) Result {
	return optimistic(ctx,
		func() (deleteSnapshot, error) {
			l.mutex.Lock()

			if l.state.PendingDelete != "" {
				l.mutex.Unlock()

				return deleteSnapshot{}, ErrDeletePending
			}

			index := slices.IndexFunc(l.state.Posts, func(post blog.Post) bool {
				return post.ID == id
			})
			if index < 0 {
				l.mutex.Unlock()

				return deleteSnapshot{}, fmt.Errorf("%w: %s", ErrPostNotListed, id)
			}

			snapshot := deleteSnapshot{
				posts:      slices.Clone(l.state.Posts),
				generation: l.generation,
			}

			l.state.Posts = slices.Delete(slices.Clone(l.state.Posts), index, index+1)
			l.state.PendingDelete = id
			l.state.Error = ""
			l.mutex.Unlock()
			l.publish()

			return snapshot, nil
		},
		func(ctx context.Context) error {
			return l.client.Posts().Delete(ctx, id)
		},
		func(snapshot deleteSnapshot, err error) {
			l.mutex.Lock()

			if l.state.PendingDelete == id {
				l.state.PendingDelete = ""
			}

			if err != nil {
				if snapshot.generation == l.generation {
					l.state.Posts = snapshot.posts
				}

				l.state.Error = blog.ErrorMessage(err)
			}
			l.mutex.Unlock()
			l.publish()
		},
	)
}

// IsStale reports whether err means the call was superseded.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleResponse)
}
