package blog

import (
	"net/url"
	"strconv"
	"time"
)

// User represents an authenticated account.
type User struct {
	ID       string `json:"_id"      yaml:"id"`
	Username string `json:"username" yaml:"username"`
}

// Session is the identity held by the session store. A nil User means
// nobody is logged in.
type Session struct {
	User *User `json:"user" yaml:"user"`
}

// Authenticated reports whether the session carries an identity.
func (s Session) Authenticated() bool {
	return s.User != nil
}

// Credentials is the login request payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token     string     `json:"token"               yaml:"token"`
	User      *User      `json:"user"                yaml:"user"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" yaml:"expires_at,omitempty"`
}

// CategoryRef is the denormalized category embedded in a post.
type CategoryRef struct {
	ID   string `json:"_id"  yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Post represents a blog post.
type Post struct {
	ID            string      `json:"_id"                     yaml:"id"`
	Title         string      `json:"title"                   yaml:"title"`
	Content       string      `json:"content"                 yaml:"content"`
	Category      CategoryRef `json:"category"                yaml:"category"`
	FeaturedImage string      `json:"featuredImage,omitempty" yaml:"featured_image,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"               yaml:"created_at"`
}

// PostCreateRequest is the payload for creating a post.
type PostCreateRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Category      string `json:"category"`
	FeaturedImage string `json:"featuredImage,omitempty"`
}

// PostUpdateRequest is the payload for updating a post. Nil fields are left
// unchanged by the API.
type PostUpdateRequest struct {
	Title         *string `json:"title,omitempty"`
	Content       *string `json:"content,omitempty"`
	Category      *string `json:"category,omitempty"`
	FeaturedImage *string `json:"featuredImage,omitempty"`
}

// Comment represents a comment on a post.
type Comment struct {
	ID        string    `json:"_id"       yaml:"id"`
	Content   string    `json:"content"   yaml:"content"`
	Author    string    `json:"author"    yaml:"author"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// CommentCreateRequest is the payload for adding a comment.
type CommentCreateRequest struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

// Category is read-only reference data used for filtering.
type Category struct {
	ID   string `json:"_id"  yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// PostPage is one page of the post list.
type PostPage struct {
	Posts []Post `json:"posts" yaml:"posts"`
	Pages int    `json:"pages" yaml:"pages"`
}

// PostQuery holds the list-posts parameters.
type PostQuery struct {
	Page     int
	Limit    int
	Category string
	Search   string
}

// NewPostQuery creates a query for the first page with the given page size.
func NewPostQuery(limit int) *PostQuery {
	return &PostQuery{
		Page:  1,
		Limit: limit,
	}
}

// ToValues converts the query to URL values. Zero values are omitted.
func (q *PostQuery) ToValues() url.Values {
	values := url.Values{}

	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}

	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	if q.Category != "" {
		values.Set("category", q.Category)
	}

	if q.Search != "" {
		values.Set("search", q.Search)
	}

	return values
}
