package blog

import (
	"context"
	"time"
)

// AuthClient handles authentication against the blog API.
type AuthClient interface {
	Login(ctx context.Context, credentials *Credentials) (*LoginResponse, error)
	Me(ctx context.Context) (*User, error)
	Logout(ctx context.Context) error
	CurrentUser() *User
}

// PostsClient handles post operations.
type PostsClient interface {
	List(ctx context.Context, query *PostQuery) (*PostPage, error)
	Get(ctx context.Context, id string) (*Post, error)
	Create(ctx context.Context, request *PostCreateRequest) (*Post, error)
	Update(ctx context.Context, id string, request *PostUpdateRequest) (*Post, error)
	Delete(ctx context.Context, id string) error
}

// CommentsClient handles comment operations.
type CommentsClient interface {
	List(ctx context.Context, postID string) ([]Comment, error)
	Create(ctx context.Context, postID string, request *CommentCreateRequest) (*Comment, error)
}

// CategoriesClient handles category operations.
type CategoriesClient interface {
	List(ctx context.Context) ([]Category, error)
}

// Client is the blog API facade.
type Client interface {
	Auth() AuthClient
	Posts() PostsClient
	Comments() CommentsClient
	Categories() CategoriesClient

	// FeaturedImageURL resolves a post's featured image against the API base URL.
	FeaturedImageURL(post *Post) string
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// SessionPersister stores the credential between process runs.
type SessionPersister interface {
	SaveSession(stored *StoredSession) error
	ClearSession() error
}

// StoredSession is the persisted form of a logged-in session.
type StoredSession struct {
	Token     string    `json:"token"                yaml:"token"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	User      *User     `json:"user,omitempty"       yaml:"user,omitempty"`
}

// Config represents client configuration for building a blog.Client.
//
// APIURL is the only required field. It is the base of every endpoint path
// (for example "https://blog.example.com/api"); blogclient.New trims a
// trailing slash and adds "https://" when no scheme is present.
//
// A previously persisted session is restored by setting Session. Persister,
// when set, is told about every login and logout so the session survives
// process restarts.
//
// Retries are disabled unless RetryMax is positive; only connection errors,
// 429 and 5xx responses are retried.
type Config struct {
	// APIURL: base URL for the blog API.
	APIURL string

	// Session: credential restored at startup.
	Session *StoredSession
	// Persister: optional sink for credential changes.
	Persister SessionPersister

	// HTTPTimeout: per-attempt transport timeout. Zero uses the default.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for transient failures.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// RateLimit: client-side requests per second. Zero disables limiting.
	RateLimit float64
	// Debug: enables request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// Headers: extra headers sent with every request.
	Headers map[string]string

	// Cache: backend for reference data (categories). Nil disables caching.
	Cache Cache
	// CategoryTTL: how long cached categories stay fresh.
	CategoryTTL time.Duration

	// RequestInterceptors run, in order, before every request.
	RequestInterceptors []RequestInterceptor
	// ResponseInterceptors run, in order, after every response.
	ResponseInterceptors []ResponseInterceptor
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}
