package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/focitech/focitech/engine/resource"
	"github.com/focitech/focitech/pkg/config"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const defaultTimeout = 10 * time.Second

// Client is a thin GoTrue REST client.
type Client struct {
	http      *resty.Client
	jwtSecret string
	now       func() time.Time
}

// NewClient builds a client for the auth service in cfg.
func NewClient(cfg *config.IdentityConfig) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNotConfigured
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/") + "/auth/v1"
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if key := cfg.AnonKey.Value(); key != "" {
		client.SetHeader("apikey", key)
	}
	return &Client{http: client, jwtSecret: cfg.JWTSecret.Value(), now: time.Now}, nil
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, form resource.LoginForm) (*Session, error) {
	if err := resource.Validate(&form); err != nil {
		return nil, err
	}
	body := map[string]string{"email": form.Email, "password": form.Password}
	var sess Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &sess); err != nil {
		return nil, fmt.Errorf("sign in failed: %w", err)
	}
	return c.finish(&sess), nil
}

// SignUp registers an account with full_name in user metadata. The returned
// session has no token when the service requires email confirmation.
func (c *Client) SignUp(ctx context.Context, form resource.SignupForm) (*Session, error) {
	if err := resource.Validate(&form); err != nil {
		return nil, err
	}
	body := map[string]any{
		"email":    form.Email,
		"password": form.Password,
		"data":     map[string]string{"full_name": form.FullName},
	}
	resp, err := c.send(ctx, http.MethodPost, "/signup", "", body)
	if err != nil {
		return nil, fmt.Errorf("sign up failed: %w", err)
	}
	raw := resp.Body()
	if gjson.GetBytes(raw, "access_token").Exists() {
		var sess Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to decode session: %w", err)
		}
		return c.finish(&sess), nil
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &Session{User: &user}, nil
}

// Refresh trades a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrNoSession
	}
	body := map[string]string{"refresh_token": refreshToken}
	var sess Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &sess); err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}
	return c.finish(&sess), nil
}

// SignOut revokes the session server side.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("sign out failed: %w", err)
	}
	return nil
}

// GetUser fetches the account behind accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateUser merges data into user_metadata.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, data map[string]any) (*User, error) {
	var user User
	body := map[string]any{"data": data}
	if err := c.do(ctx, http.MethodPut, "/user", accessToken, body, &user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}

// Verify checks an access token and returns its claims. Without a
// configured secret the claims are decoded but not verified.
func (c *Client) Verify(token string) (*Claims, error) {
	return ParseClaims(token, c.jwtSecret)
}

func (c *Client) finish(sess *Session) *Session {
	if sess.ExpiresAt == 0 {
		if exp := expiresAt(sess.AccessToken); exp != 0 {
			sess.ExpiresAt = exp
		} else if sess.ExpiresIn > 0 {
			sess.ExpiresAt = c.now().Add(time.Duration(sess.ExpiresIn) * time.Second).Unix()
		}
	}
	return sess
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	resp, err := c.send(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, token string, body any) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 400 {
		authErr := parseAuthError(resp.StatusCode(), resp.Body())
		logger.FromContext(ctx).Debug("auth request rejected",
			"method", method, "path", path, "status", authErr.Status, "code", authErr.Code)
		return nil, authErr
	}
	return resp, nil
}
