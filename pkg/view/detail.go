package view

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/fivetwenty-io/blog-client/internal/observe"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// SessionSource is the part of the session store views depend on.
type SessionSource interface {
	User() *blog.User
	Subscribe(observer func(blog.Session)) func()
}

// DetailState is a snapshot of the post detail view.
type DetailState struct {
	Status           Status         `json:"status"                       yaml:"status"`
	PostID           string         `json:"post_id"                      yaml:"post_id"`
	Post             *blog.Post     `json:"post,omitempty"               yaml:"post,omitempty"`
	FeaturedImageURL string         `json:"featured_image_url,omitempty" yaml:"featured_image_url,omitempty"`
	Comments         []blog.Comment `json:"comments"                     yaml:"comments"`
	Draft            string         `json:"draft,omitempty"              yaml:"draft,omitempty"`
	Submitting       bool           `json:"submitting,omitempty"         yaml:"submitting,omitempty"`
	Error            string         `json:"error,omitempty"              yaml:"error,omitempty"`
	CanComment       bool           `json:"can_comment"                  yaml:"can_comment"`
}

func (s DetailState) clone() DetailState {
	if s.Post != nil {
		post := *s.Post
		s.Post = &post
	}

	s.Comments = slices.Clone(s.Comments)

	return s
}

// PostDetail is the single-post controller. Comments are appended only after
// the server confirms them. It is safe for concurrent use.
type PostDetail struct {
	client  blog.Client
	session SessionSource
	logger  blog.Logger

	mutex       sync.Mutex
	state       DetailState
	sequence    uint64
	unsubscribe func()

	observers observe.List[DetailState]
}

// NewPostDetail creates an idle detail controller that follows session
// changes until Close is called.
func NewPostDetail(client blog.Client, session SessionSource, logger blog.Logger) *PostDetail {
	if logger == nil {
		logger = blog.NopLogger()
	}

	detail := &PostDetail{
		client:  client,
		session: session,
		logger:  logger,
		state: DetailState{
			Status:     StatusIdle,
			Comments:   []blog.Comment{},
			CanComment: session.User() != nil,
		},
	}

	detail.unsubscribe = session.Subscribe(detail.onSession)

	return detail
}

// Close stops following the session.
func (d *PostDetail) Close() {
	d.unsubscribe()
}

func (d *PostDetail) onSession(session blog.Session) {
	d.mutex.Lock()
	changed := d.state.CanComment != session.Authenticated()
	d.state.CanComment = session.Authenticated()
	d.mutex.Unlock()

	if changed {
		d.publish()
	}
}

// State returns a snapshot of the current state.
func (d *PostDetail) State() DetailState {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.state.clone()
}

// CanComment reports whether the comment form should be offered.
func (d *PostDetail) CanComment() bool {
	return d.State().CanComment
}

// Subscribe registers an observer called after every state change.
func (d *PostDetail) Subscribe(observer func(DetailState)) func() {
	return d.observers.Subscribe(observer)
}

func (d *PostDetail) publish() {
	d.observers.Notify(d.State())
}

// Load fetches the post and then its comments. A missing post settles in
// StatusNotFound and returns ErrPostNotFound.
func (d *PostDetail) Load(ctx context.Context, id string) error {
	if id == "" {
		return blog.ErrPostIDRequired
	}

	d.mutex.Lock()
	d.sequence++
	sequence := d.sequence
	d.state.Status = StatusLoading
	d.state.PostID = id
	d.state.Post = nil
	d.state.FeaturedImageURL = ""
	d.state.Comments = []blog.Comment{}
	d.state.Error = ""
	d.mutex.Unlock()
	d.publish()

	post, getErr := d.client.Posts().Get(ctx, id)
	err := getErr

	var comments []blog.Comment
	if err == nil {
		comments, err = d.client.Comments().List(ctx, id)
	}

	d.mutex.Lock()
	if sequence != d.sequence {
		d.mutex.Unlock()
		d.logger.Debug("discarding stale post response", map[string]interface{}{
			"post_id": id,
		})

		return ErrStaleResponse
	}

	switch {
	case blog.IsNotFound(getErr):
		d.state.Status = StatusNotFound
		d.mutex.Unlock()
		d.publish()

		return fmt.Errorf("%w: %s", ErrPostNotFound, id)
	case err != nil:
		d.state.Status = StatusError
		d.state.Error = blog.ErrorMessage(err)
		d.mutex.Unlock()
		d.publish()

		return fmt.Errorf("loading post: %w", err)
	}

	d.state.Status = StatusReady
	d.state.Post = post
	d.state.FeaturedImageURL = d.client.FeaturedImageURL(post)
	d.state.Comments = slices.Clone(comments)

	if d.state.Comments == nil {
		d.state.Comments = []blog.Comment{}
	}
	d.mutex.Unlock()
	d.publish()

	return nil
}

// SetDraft replaces the comment input.
func (d *PostDetail) SetDraft(draft string) {
	d.mutex.Lock()
	d.state.Draft = draft
	d.mutex.Unlock()
	d.publish()
}

// SubmitComment posts the draft as the logged-in user. On success the
// confirmed comment is appended and the draft cleared; on failure both are
// left as they were and the error is reported in the state.
func (d *PostDetail) SubmitComment(ctx context.Context) Result {
	user := d.session.User()
	if user == nil {
		return Failed(blog.ErrNotAuthenticated)
	}

	d.mutex.Lock()

	switch {
	case d.state.Status != StatusReady || d.state.Post == nil:
		d.mutex.Unlock()

		return Failed(ErrPostNotLoaded)
	case d.state.Submitting:
		d.mutex.Unlock()

		return Failed(ErrCommentPending)
	case strings.TrimSpace(d.state.Draft) == "":
		d.mutex.Unlock()

		return Failed(ErrEmptyComment)
	}

	postID := d.state.PostID
	sequence := d.sequence
	request := &blog.CommentCreateRequest{
		Content: d.state.Draft,
		Author:  user.Username,
	}
	d.state.Submitting = true
	d.state.Error = ""
	d.mutex.Unlock()
	d.publish()

	comment, err := d.client.Comments().Create(ctx, postID, request)

	d.mutex.Lock()
	d.state.Submitting = false

	if sequence != d.sequence {
		// Another post was loaded meanwhile; its state is not ours to touch.
		d.mutex.Unlock()
		d.publish()

		if err != nil {
			return Failed(err)
		}

		return Succeeded()
	}

	if err != nil {
		d.state.Error = blog.ErrorMessage(err)
		d.mutex.Unlock()
		d.publish()

		return Failed(err)
	}

	d.state.Comments = append(slices.Clone(d.state.Comments), *comment)
	d.state.Draft = ""
	d.mutex.Unlock()
	d.publish()

	return Succeeded()
}
