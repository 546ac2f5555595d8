package blogtest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// MockClient implements blog.Client for testing.
type MockClient struct {
	mock.Mock

	AuthMock       *MockAuthClient
	PostsMock      *MockPostsClient
	CommentsMock   *MockCommentsClient
	CategoriesMock *MockCategoriesClient
}

// NewMockClient creates a facade whose resource clients are fresh mocks.
func NewMockClient() *MockClient {
	return &MockClient{
		AuthMock:       &MockAuthClient{},
		PostsMock:      &MockPostsClient{},
		CommentsMock:   &MockCommentsClient{},
		CategoriesMock: &MockCategoriesClient{},
	}
}

func (m *MockClient) Auth() blog.AuthClient {
	return m.AuthMock
}

func (m *MockClient) Posts() blog.PostsClient {
	return m.PostsMock
}

func (m *MockClient) Comments() blog.CommentsClient {
	return m.CommentsMock
}

func (m *MockClient) Categories() blog.CategoriesClient {
	return m.CategoriesMock
}

func (m *MockClient) FeaturedImageURL(post *blog.Post) string {
	if post == nil || post.FeaturedImage == "" {
		return ""
	}

	return "https://blog.test/api/" + post.FeaturedImage
}

// MockAuthClient implements blog.AuthClient for testing.
type MockAuthClient struct {
	mock.Mock
}

func (m *MockAuthClient) Login(ctx context.Context, credentials *blog.Credentials) (*blog.LoginResponse, error) {
	args := m.Called(ctx, credentials)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*blog.LoginResponse), args.Error(1)
}

func (m *MockAuthClient) Me(ctx context.Context) (*blog.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*blog.User), args.Error(1)
}

func (m *MockAuthClient) Logout(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockAuthClient) CurrentUser() *blog.User {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(*blog.User)
}

// MockPostsClient implements blog.PostsClient for testing.
type MockPostsClient struct {
	mock.Mock
}

func (m *MockPostsClient) List(ctx context.Context, query *blog.PostQuery) (*blog.PostPage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*blog.PostPage), args.Error(1)
}

func (m *MockPostsClient) Get(ctx context.Context, id string) (*blog.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*blog.Post), args.Error(1)
}

func (m *MockPostsClient) Create(ctx context.Context, request *blog.PostCreateRequest) (*blog.Post, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*blog.Post), args.Error(1)
}

func (m *MockPostsClient) Update(ctx context.Context, id string, request *blog.PostUpdateRequest) (*blog.Post, error) {
	args := m.Called(ctx, id, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*blog.Post), args.Error(1)
}

func (m *MockPostsClient) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockCommentsClient implements blog.CommentsClient for testing.
type MockCommentsClient struct {
	mock.Mock
}

func (m *MockCommentsClient) List(ctx context.Context, postID string) ([]blog.Comment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]blog.Comment), args.Error(1)
}

func (m *MockCommentsClient) Create(ctx context.Context, postID string, request *blog.CommentCreateRequest) (*blog.Comment, error) {
	args := m.Called(ctx, postID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*blog.Comment), args.Error(1)
}

// MockCategoriesClient implements blog.CategoriesClient for testing.
type MockCategoriesClient struct {
	mock.Mock
}

func (m *MockCategoriesClient) List(ctx context.Context) ([]blog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]blog.Category), args.Error(1)
}

var (
	_ blog.Client           = (*MockClient)(nil)
	_ blog.AuthClient       = (*MockAuthClient)(nil)
	_ blog.PostsClient      = (*MockPostsClient)(nil)
	_ blog.CommentsClient   = (*MockCommentsClient)(nil)
	_ blog.CategoriesClient = (*MockCategoriesClient)(nil)
)
