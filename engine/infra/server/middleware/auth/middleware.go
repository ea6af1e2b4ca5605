package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/identity"
	"github.com/focitech/focitech/engine/session"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	contextKeySession = "focitech.session"
	contextKeyClient  = "focitech.api_client"
	contextKeyTokens  = "focitech.tokens"
	LoginPath         = "/login"
)

// ErrRoleMismatch means the token grants a different role than the user
// record stored with it.
var ErrRoleMismatch = errors.New("auth: token role does not match the session user")

// Verifier checks an access token and returns its claims.
type Verifier interface {
	Verify(token string) (*identity.Claims, error)
}

// CookieConfig controls the browser session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Manager binds browser sessions to requests. Every request gets a session
// and an API client that authenticates as that session's user.
type Manager struct {
	store    session.Store
	identity session.TokenRefresher
	verifier Verifier
	client   *api.Client
	cookie   CookieConfig
}

// NewManager builds the session middleware. idp may be nil when sign in is
// not configured.
func NewManager(store session.Store, idp *identity.Client, client *api.Client, cookie CookieConfig) *Manager {
	m := &Manager{store: store, client: client, cookie: cookie}
	if idp != nil {
		m.identity = idp
		m.verifier = idp
	}
	return m
}

// Middleware loads the session named by the cookie, or starts a fresh one
// that is only persisted once something is saved into it.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		data := m.load(ctx, c)
		tokens := session.NewTokens(data, m.store, m.identity)
		m.bind(c, data, tokens)
		c.Next()
		if tokens.Revoked() {
			logger.FromContext(ctx).Debug("Session signed out after failed refresh", "session", data.ID)
		}
	}
}

func (m *Manager) bind(c *gin.Context, data *session.Data, tokens *session.Tokens) {
	c.Set(contextKeySession, data)
	c.Set(contextKeyTokens, tokens)
	c.Set(contextKeyClient, m.client.WithTokens(tokens))
}

func (m *Manager) load(ctx context.Context, c *gin.Context) *session.Data {
	id, err := c.Cookie(m.cookie.Name)
	if err != nil || id == "" {
		return session.New()
	}
	data, err := m.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logger.FromContext(ctx).Warn("Failed to load session", "error", err)
		}
		return session.New()
	}
	if !data.SignedIn() {
		return data
	}
	// An expired token is refreshed on first use and checked again on the
	// next request.
	if err := m.trust(data.Auth()); err != nil && !errors.Is(err, identity.ErrTokenExpired) {
		logger.FromContext(ctx).Warn("Dropping session with untrusted token", "session", data.ID, "error", err)
		if derr := m.store.Delete(ctx, data.ID); derr != nil {
			logger.FromContext(ctx).Debug("Failed to delete session", "error", derr)
		}
		return session.New()
	}
	return data
}

// trust verifies the access token and that its app role matches the stored
// user. Without a verifier every session is trusted.
func (m *Manager) trust(sess *identity.Session) error {
	if m.verifier == nil || sess.AccessToken == "" {
		return nil
	}
	claims, err := m.verifier.Verify(sess.AccessToken)
	if err != nil {
		return err
	}
	if sess.User != nil && claims.AppRole() != sess.User.Role() {
		return fmt.Errorf("%w: token has %q, user has %q", ErrRoleMismatch, claims.AppRole(), sess.User.Role())
	}
	return nil
}

// Save persists the request session and refreshes the cookie.
func (m *Manager) Save(c *gin.Context) error {
	data := SessionFrom(c)
	if err := m.store.Save(c.Request.Context(), data); err != nil {
		return err
	}
	m.setCookie(c, data.ID, int(m.cookie.MaxAge.Seconds()))
	return nil
}

// Begin signs the browser in. The session id is rotated so an id issued
// before sign in cannot be reused afterwards.
func (m *Manager) Begin(c *gin.Context, sess *identity.Session) error {
	if err := m.trust(sess); err != nil {
		return fmt.Errorf("refusing session: %w", err)
	}
	old := SessionFrom(c)
	data := session.New()
	data.Flashes = old.Flashes
	data.SetAuth(sess)
	if err := m.store.Delete(c.Request.Context(), old.ID); err != nil {
		logger.FromContext(c.Request.Context()).Debug("Failed to drop anonymous session", "error", err)
	}
	m.bind(c, data, session.NewTokens(data, m.store, m.identity))
	return m.Save(c)
}

// End signs the browser out and forgets the session. The rest of the
// request continues with a fresh anonymous session.
func (m *Manager) End(c *gin.Context) error {
	data := SessionFrom(c)
	data.ClearAuth()
	err := m.store.Delete(c.Request.Context(), data.ID)
	m.setCookie(c, "", -1)
	fresh := session.New()
	m.bind(c, fresh, session.NewTokens(fresh, m.store, m.identity))
	return err
}

func (m *Manager) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, value, maxAge, "/", "", m.cookie.Secure, true)
}

// RequireAuth redirects anonymous visitors to the login page.
func (m *Manager) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !SessionFrom(c).SignedIn() {
			c.Redirect(http.StatusSeeOther, LoginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin lets only admins through; other signed in users get
// forbidden. It must run after RequireAuth.
func (m *Manager) RequireAdmin(forbidden gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !SessionFrom(c).IsAdmin() {
			forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFrom returns the request session. It never returns nil.
func SessionFrom(c *gin.Context) *session.Data {
	if v, ok := c.Get(contextKeySession); ok {
		if data, ok := v.(*session.Data); ok {
			return data
		}
	}
	data := session.New()
	c.Set(contextKeySession, data)
	return data
}

// ClientFrom returns the API client bound to the request session.
func ClientFrom(c *gin.Context) *api.Client {
	v, _ := c.Get(contextKeyClient)
	client, _ := v.(*api.Client)
	return client
}

// TokensFrom returns the refreshing token source of the request session, or
// nil outside the middleware.
func TokensFrom(c *gin.Context) *session.Tokens {
	v, _ := c.Get(contextKeyTokens)
	tokens, _ := v.(*session.Tokens)
	return tokens
}
