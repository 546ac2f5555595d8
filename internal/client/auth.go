package client

import (
	"context"
	"fmt"
	"time"

	"github.com/fivetwenty-io/blog-client/internal/auth"
	"github.com/fivetwenty-io/blog-client/internal/http"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// AuthClient implements blog.AuthClient.
type AuthClient struct {
	httpClient  *http.Client
	credentials *auth.CredentialManager
	logger      blog.Logger
}

// NewAuthClient creates a new auth client.
func NewAuthClient(httpClient *http.Client, credentials *auth.CredentialManager, logger blog.Logger) *AuthClient {
	if logger == nil {
		logger = blog.NopLogger()
	}

	return &AuthClient{
		httpClient:  httpClient,
		credentials: credentials,
		logger:      logger,
	}
}

// Login implements blog.AuthClient.Login. The issued token and identity are
// stored for subsequent requests. A failure to persist them is logged and
// does not fail the login.
func (c *AuthClient) Login(ctx context.Context, credentials *blog.Credentials) (*blog.LoginResponse, error) {
	resp, err := c.httpClient.Post(ctx, "/auth/login", credentials)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	var login blog.LoginResponse

	err = decode(resp, &login)
	if err != nil {
		return nil, fmt.Errorf("parsing login response: %w", err)
	}

	if login.Token == "" {
		return nil, fmt.Errorf("logging in: %w", blog.NewDecodeError(resp.StatusCode, blog.ErrEmptyLoginResponse))
	}

	var expiresAt time.Time
	if login.ExpiresAt != nil {
		expiresAt = *login.ExpiresAt
	}

	err = c.credentials.SetSession(login.Token, expiresAt, login.User)
	if err != nil {
		c.logger.Warn("failed to persist session", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return &login, nil
}

// Me implements blog.AuthClient.Me. A rejected credential is dropped.
func (c *AuthClient) Me(ctx context.Context) (*blog.User, error) {
	resp, err := c.httpClient.Get(ctx, "/auth/me", nil)
	if err != nil {
		if blog.IsUnauthorized(err) {
			clearErr := c.credentials.Clear()
			if clearErr != nil {
				c.logger.Warn("failed to clear persisted session", map[string]interface{}{
					"error": clearErr.Error(),
				})
			}
		}

		return nil, fmt.Errorf("getting current user: %w", err)
	}

	var payload struct {
		User *blog.User `json:"user"`
	}

	err = decode(resp, &payload)
	if err != nil {
		return nil, fmt.Errorf("parsing current user: %w", err)
	}

	if payload.User == nil {
		return nil, fmt.Errorf("getting current user: %w", blog.ErrNotAuthenticated)
	}

	c.credentials.SetUser(payload.User)

	return payload.User, nil
}

// Logout implements blog.AuthClient.Logout. The local credential is cleared
// before the server is told, so the client is logged out even when the
// request fails.
func (c *AuthClient) Logout(ctx context.Context) error {
	token, _ := c.credentials.GetToken(ctx)

	clearErr := c.credentials.Clear()
	if clearErr != nil {
		c.logger.Warn("failed to clear persisted session", map[string]interface{}{
			"error": clearErr.Error(),
		})
	}

	if token == "" {
		return nil
	}

	_, err := c.httpClient.Do(ctx, &http.Request{
		Method:  "POST",
		Path:    "/auth/logout",
		Headers: map[string]string{"Authorization": "Bearer " + token},
	})
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}

	return nil
}

// CurrentUser implements blog.AuthClient.CurrentUser.
func (c *AuthClient) CurrentUser() *blog.User {
	return c.credentials.CurrentUser()
}
