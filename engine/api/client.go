// Package api is the client for the agency REST backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/focitech/focitech/pkg/config"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// ErrNoToken is returned by token sources that hold no session.
var ErrNoToken = errors.New("no access token")

// TokenSource supplies the bearer token for a call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Refresher is a TokenSource that can renew its token after a 401.
type Refresher interface {
	TokenSource
	Refresh(ctx context.Context) error
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken always returns the same token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// Observer is told about every completed round trip. status is 0 on
// transport failure.
type Observer func(method, resource string, status int, elapsed time.Duration)

// Client talks to the backend. It is safe for concurrent use; WithTokens
// derives per caller copies that share the transport.
type Client struct {
	http          *resty.Client
	baseURL       string
	trailingSlash bool
	tokens        TokenSource
	observer      Observer

	inquiries *InquiryService
	projects  *ProjectService
	team      *TeamService
	careers   *CareerService
}

// Option customises a Client.
type Option func(*Client)

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithTransport replaces the HTTP transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.SetTransport(rt) }
}

// New builds a client from the api config section.
func New(cfg *config.APIConfig, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("api configuration is required")
	}
	baseURL, err := buildBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultAPITimeout
	}
	c := &Client{
		http:          buildHTTPClient(baseURL, timeout),
		baseURL:       baseURL,
		trailingSlash: cfg.TrailingSlash,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.initServices()
	return c, nil
}

// buildBaseURL validates the configured URL and strips any trailing slash.
func buildBaseURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("base URL scheme must be http or https, got: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("base URL must have a host, got: %s", raw)
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

func buildHTTPClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "focitech-web")
}

func (c *Client) initServices() {
	c.inquiries = &InquiryService{client: c}
	c.projects = &ProjectService{client: c}
	c.team = &TeamService{client: c}
	c.careers = &CareerService{client: c}
}

// WithTokens returns a copy of the client that authenticates with ts.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	cp.initServices()
	return &cp
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Inquiries() *InquiryService { return c.inquiries }

func (c *Client) Projects() *ProjectService { return c.projects }

func (c *Client) Team() *TeamService { return c.team }

func (c *Client) Careers() *CareerService { return c.careers }

// normalizePath ensures a leading slash and, when enabled, a trailing one.
// Any query string is kept after the slash.
func normalizePath(path string, trailing bool) string {
	p, query, hasQuery := strings.Cut(path, "?")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if trailing && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	if hasQuery {
		return p + "?" + query
	}
	return p
}

// resourceOf returns the first path segment, used as a low cardinality label.
func resourceOf(path string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	seg, _, _ = strings.Cut(seg, "?")
	return seg
}

// doRequest runs one call. build decorates a fresh request and may be called
// twice when a 401 triggers a token refresh.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	build func(*resty.Request),
) (*resty.Response, error) {
	log := logger.FromContext(ctx)
	path = normalizePath(path, c.trailingSlash)

	resp, err := c.send(ctx, method, path, build)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		if r, ok := c.tokens.(Refresher); ok {
			if rerr := r.Refresh(ctx); rerr != nil {
				log.Debug("token refresh failed", "error", rerr)
			} else {
				resp, err = c.send(ctx, method, path, build)
				if err != nil {
					return nil, err
				}
			}
		}
	}
	if err := handleResponse(resp); err != nil {
		return nil, err
	}
	log.Debug("API request completed", "method", method, "path", path, "status", resp.StatusCode())
	return resp, nil
}

func (c *Client) send(
	ctx context.Context,
	method, path string,
	build func(*resty.Request),
) (*resty.Response, error) {
	req := c.prepareRequest(ctx)
	if build != nil {
		build(req)
	}
	start := time.Now()
	resp, err := executeRequest(req, method, path)
	status := 0
	if resp != nil && err == nil {
		status = resp.StatusCode()
	}
	if c.observer != nil {
		c.observer(method, resourceOf(path), status, time.Since(start))
	}
	if err != nil {
		return nil, classifyTransport(ctx, method, path, err)
	}
	return resp, nil
}

// prepareRequest attaches the context and, when available, the bearer token.
func (c *Client) prepareRequest(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if c.tokens == nil {
		return req
	}
	token, err := c.tokens.Token(ctx)
	switch {
	case err == nil && token != "":
		req.SetAuthToken(token)
	case err != nil && !errors.Is(err, ErrNoToken):
		logger.FromContext(ctx).Warn("failed to read access token", "error", err)
	}
	return req
}

func executeRequest(req *resty.Request, method, path string) (*resty.Response, error) {
	switch method {
	case http.MethodGet:
		return req.Get(path)
	case http.MethodPost:
		return req.Post(path)
	case http.MethodPut:
		return req.Put(path)
	case http.MethodPatch:
		return req.Patch(path)
	case http.MethodDelete:
		return req.Delete(path)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}
}

func handleResponse(resp *resty.Response) error {
	if resp.StatusCode() < 400 {
		return nil
	}
	return &HTTPError{Status: resp.StatusCode(), Detail: extractDetail(resp.Body())}
}

// decode unmarshals the body into out, unwrapping a {"data": ...} envelope.
// Empty bodies leave out untouched.
func decode(resp *resty.Response, out any) error {
	body := resp.Body()
	if len(body) == 0 || out == nil {
		return nil
	}
	if gjson.ValidBytes(body) {
		root := gjson.ParseBytes(body)
		if data := root.Get("data"); root.IsObject() && data.Exists() && (data.IsArray() || data.IsObject()) {
			body = []byte(data.Raw)
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func jsonBody(body any) func(*resty.Request) {
	return func(req *resty.Request) {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
}

func queryParams(params map[string]string) func(*resty.Request) {
	return func(req *resty.Request) {
		for k, v := range params {
			if v != "" {
				req.SetQueryParam(k, v)
			}
		}
	}
}
