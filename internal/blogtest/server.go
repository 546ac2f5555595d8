// Package blogtest provides an in-memory blog API served over httptest, for
// exercising the client, the controllers and the CLI end to end.
package blogtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// BasePath is where the API is mounted on the test server.
const BasePath = "/api"

const defaultLimit = 10

// RecordedRequest is one request seen by the server.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	RequestID     string
	Header        http.Header
	Body          []byte
}

type failure struct {
	status  int
	message string
}

// Server is a fake blog API.
type Server struct {
	*httptest.Server

	mutex      sync.Mutex
	users      map[string]userRecord
	tokens     map[string]blog.User
	posts      []blog.Post
	comments   map[string][]blog.Comment
	categories []blog.Category
	failures   map[string][]failure
	requests   []RecordedRequest
	tokenTTL   time.Duration
}

type userRecord struct {
	user     blog.User
	password string
}

// NewServer starts a fake API. Call Close when done.
func NewServer() *Server {
	s := &Server{
		users:    make(map[string]userRecord),
		tokens:   make(map[string]blog.User),
		comments: make(map[string][]blog.Comment),
		failures: make(map[string][]failure),
	}

	s.Server = httptest.NewServer(s.routes())

	return s
}

// APIURL returns the base URL clients should be configured with.
func (s *Server) APIURL() string {
	return s.URL + BasePath
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Route(BasePath, func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.login)
			r.Get("/me", s.me)
			r.Post("/logout", s.logout)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", s.listPosts)
			r.Post("/", s.requireAuth(s.createPost))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getPost)
				r.Put("/", s.requireAuth(s.updatePost))
				r.Delete("/", s.requireAuth(s.deletePost))
				r.Get("/comments", s.listComments)
				r.Post("/comments", s.requireAuth(s.createComment))
			})
		})

		r.Get("/categories", s.listCategories)
	})

	return r
}

// AddUser registers an account that can log in.
func (s *Server) AddUser(username, password string) blog.User {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	user := blog.User{ID: uuid.NewString(), Username: username}
	s.users[username] = userRecord{user: user, password: password}

	return user
}

// IssueToken returns a valid token for username without a login round trip.
func (s *Server) IssueToken(username string) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	record, ok := s.users[username]
	if !ok {
		return ""
	}

	token := uuid.NewString()
	s.tokens[token] = record.user

	return token
}

// SetTokenTTL makes login responses carry an expiry. Zero omits it.
func (s *Server) SetTokenTTL(ttl time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tokenTTL = ttl
}

// AddCategory registers a category.
func (s *Server) AddCategory(name string) blog.Category {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	category := blog.Category{ID: uuid.NewString(), Name: name}
	s.categories = append(s.categories, category)

	return category
}

// AddPost stores a post, newest first. A missing ID or timestamp is filled in.
func (s *Server) AddPost(post blog.Post) blog.Post {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}

	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	s.posts = append([]blog.Post{post}, s.posts...)

	return post
}

// AddComment stores a comment on a post.
func (s *Server) AddComment(postID string, comment blog.Comment) blog.Comment {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	s.comments[postID] = append(s.comments[postID], comment)

	return comment
}

// Posts returns the stored posts in list order.
func (s *Server) Posts() []blog.Post {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return append([]blog.Post(nil), s.posts...)
}

// Comments returns the stored comments of a post.
func (s *Server) Comments(postID string) []blog.Comment {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return append([]blog.Comment(nil), s.comments[postID]...)
}

// FailNext makes the next request matching method and path (relative to
// BasePath, e.g. "/posts/abc") fail with status and message. Calls queue up.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := method + " " + path
	s.failures[key] = append(s.failures[key], failure{status: status, message: message})
}

// Requests returns every request received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return append([]RecordedRequest(nil), s.requests...)
}

// RequestCount counts requests matching method and relative path.
func (s *Server) RequestCount(method, path string) int {
	count := 0

	for _, req := range s.Requests() {
		if req.Method == method && req.Path == path {
			count++
		}
	}

	return count
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mutex.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          strings.TrimPrefix(r.URL.Path, BasePath),
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get(blog.RequestIDHeader),
			Header:        r.Header.Clone(),
			Body:          body,
		})
		s.mutex.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, BasePath)

		s.mutex.Lock()
		queued := s.failures[key]

		var injected *failure
		if len(queued) > 0 {
			injected = &queued[0]
			s.failures[key] = queued[1:]
		}
		s.mutex.Unlock()

		if injected != nil {
			writeError(w, injected.status, injected.message)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(handler func(http.ResponseWriter, *http.Request, blog.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authenticate(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")

			return
		}

		handler(w, r, user)
	}
}

func (s *Server) authenticate(r *http.Request) (blog.User, bool) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || token == "" {
		return blog.User{}, false
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	user, ok := s.tokens[token]

	return user, ok
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var credentials blog.Credentials

	err := json.NewDecoder(r.Body).Decode(&credentials)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")

		return
	}

	s.mutex.Lock()
	record, ok := s.users[credentials.Username]
	if !ok || record.password != credentials.Password {
		s.mutex.Unlock()
		writeError(w, http.StatusUnauthorized, "Invalid credentials")

		return
	}

	token := uuid.NewString()
	s.tokens[token] = record.user
	ttl := s.tokenTTL
	s.mutex.Unlock()

	response := blog.LoginResponse{Token: token, User: &record.user}
	if ttl > 0 {
		expiresAt := time.Now().Add(ttl).UTC()
		response.ExpiresAt = &expiresAt
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")

		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

	s.mutex.Lock()
	delete(s.tokens, token)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := positiveInt(query.Get("page"), 1)
	limit := positiveInt(query.Get("limit"), defaultLimit)
	category := query.Get("category")
	search := strings.ToLower(query.Get("search"))

	s.mutex.Lock()

	var matched []blog.Post

	for _, post := range s.posts {
		if category != "" && post.Category.ID != category {
			continue
		}

		if search != "" &&
			!strings.Contains(strings.ToLower(post.Title), search) &&
			!strings.Contains(strings.ToLower(post.Content), search) {
			continue
		}

		matched = append(matched, post)
	}
	s.mutex.Unlock()

	pages := (len(matched) + limit - 1) / limit

	start := (page - 1) * limit
	end := start + limit

	posts := []blog.Post{}
	if start < len(matched) {
		posts = matched[start:min(end, len(matched))]
	}

	writeJSON(w, http.StatusOK, blog.PostPage{Posts: posts, Pages: pages})
}

func (s *Server) findPost(id string) (int, bool) {
	for i, post := range s.posts {
		if post.ID == id {
			return i, true
		}
	}

	return -1, false
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	index, ok := s.findPost(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Post not found")

		return
	}

	writeJSON(w, http.StatusOK, s.posts[index])
}

func (s *Server) categoryRef(id string) blog.CategoryRef {
	for _, category := range s.categories {
		if category.ID == id {
			return blog.CategoryRef{ID: category.ID, Name: category.Name}
		}
	}

	return blog.CategoryRef{ID: id}
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request, _ blog.User) {
	var request blog.PostCreateRequest

	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil || request.Title == "" || request.Content == "" {
		writeError(w, http.StatusBadRequest, "Title and content are required")

		return
	}

	s.mutex.Lock()
	post := blog.Post{
		ID:            uuid.NewString(),
		Title:         request.Title,
		Content:       request.Content,
		Category:      s.categoryRef(request.Category),
		FeaturedImage: request.FeaturedImage,
		CreatedAt:     time.Now().UTC(),
	}
	s.posts = append([]blog.Post{post}, s.posts...)
	s.mutex.Unlock()

	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request, _ blog.User) {
	var request blog.PostUpdateRequest

	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")

		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	index, ok := s.findPost(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Post not found")

		return
	}

	post := &s.posts[index]
	if request.Title != nil {
		post.Title = *request.Title
	}

	if request.Content != nil {
		post.Content = *request.Content
	}

	if request.Category != nil {
		post.Category = s.categoryRef(*request.Category)
	}

	if request.FeaturedImage != nil {
		post.FeaturedImage = *request.FeaturedImage
	}

	writeJSON(w, http.StatusOK, *post)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request, _ blog.User) {
	id := chi.URLParam(r, "id")

	s.mutex.Lock()
	defer s.mutex.Unlock()

	index, ok := s.findPost(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Post not found")

		return
	}

	s.posts = append(s.posts[:index], s.posts[index+1:]...)
	delete(s.comments, id)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.findPost(id); !ok {
		writeError(w, http.StatusNotFound, "Post not found")

		return
	}

	comments := append([]blog.Comment{}, s.comments[id]...)
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request, _ blog.User) {
	id := chi.URLParam(r, "id")

	var request blog.CommentCreateRequest

	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil || strings.TrimSpace(request.Content) == "" {
		writeError(w, http.StatusBadRequest, "Comment content is required")

		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.findPost(id); !ok {
		writeError(w, http.StatusNotFound, "Post not found")

		return
	}

	comment := blog.Comment{
		ID:        uuid.NewString(),
		Content:   request.Content,
		Author:    request.Author,
		CreatedAt: time.Now().UTC(),
	}
	s.comments[id] = append(s.comments[id], comment)

	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	categories := append([]blog.Category{}, s.categories...)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, categories)
}

func positiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}

	return value
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
