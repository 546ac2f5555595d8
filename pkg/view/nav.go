package view

import (
	"slices"
	"sync"

	"github.com/fivetwenty-io/blog-client/internal/observe"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// Navigation link labels.
const (
	LinkHome       = "Home"
	LinkCreatePost = "Create Post"
	LinkLogin      = "Login"
	LinkLogout     = "Logout"
)

// Link is one navigation entry. Action links (logout) have no path.
type Link struct {
	Label string `json:"label"          yaml:"label"`
	Path  string `json:"path,omitempty" yaml:"path,omitempty"`
}

// NavLinks returns the links offered for session.
func NavLinks(session blog.Session) []Link {
	links := []Link{{Label: LinkHome, Path: "/"}}

	if session.Authenticated() {
		return append(links,
			Link{Label: LinkCreatePost, Path: "/create"},
			Link{Label: LinkLogout},
		)
	}

	return append(links, Link{Label: LinkLogin, Path: "/login"})
}

// Nav keeps the navigation links in step with the session.
type Nav struct {
	mutex       sync.Mutex
	links       []Link
	unsubscribe func()

	observers observe.List[[]Link]
}

// NewNav derives links from the current session and re-derives them on
// every session change until Close is called.
func NewNav(session SessionSource) *Nav {
	nav := &Nav{
		links: NavLinks(blog.Session{User: session.User()}),
	}

	nav.unsubscribe = session.Subscribe(func(s blog.Session) {
		links := NavLinks(s)

		nav.mutex.Lock()
		nav.links = links
		nav.mutex.Unlock()

		nav.observers.Notify(slices.Clone(links))
	})

	return nav
}

// Close stops following the session.
func (n *Nav) Close() {
	n.unsubscribe()
}

// Links returns the current links.
func (n *Nav) Links() []Link {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	return slices.Clone(n.links)
}

// Has reports whether a link with label is currently shown.
func (n *Nav) Has(label string) bool {
	return slices.ContainsFunc(n.Links(), func(link Link) bool {
		return link.Label == label
	})
}

// Subscribe registers an observer called with the new links after every
// session change.
func (n *Nav) Subscribe(observer func([]Link)) func() {
	return n.observers.Subscribe(observer)
}
