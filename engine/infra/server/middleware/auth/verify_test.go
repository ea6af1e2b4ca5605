package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/identity"
	"github.com/focitech/focitech/engine/session"
	"github.com/focitech/focitech/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "super-secret-jwt-token-with-at-least-32-characters"

func accessToken(t *testing.T, secret, role string, ttl time.Duration) string {
	t.Helper()
	claims := identity.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Role:        "authenticated",
		AppMetadata: map[string]any{"role": role},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

type verifyHarness struct {
	engine *gin.Engine
	store  *session.MemoryStore
}

func newVerifyHarness(t *testing.T) *verifyHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	idp, err := identity.NewClient(&config.IdentityConfig{
		URL:       "http://127.0.0.1:1",
		JWTSecret: config.SensitiveString(jwtSecret),
	})
	require.NoError(t, err)
	client, err := api.New(&config.APIConfig{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	h := &verifyHarness{store: session.NewMemoryStore(10, time.Hour)}
	m := NewManager(h.store, idp, client, CookieConfig{Name: cookieName, MaxAge: time.Hour})

	r := gin.New()
	r.Use(m.Middleware())
	r.POST("/begin", func(c *gin.Context) {
		err := m.Begin(c, &identity.Session{
			AccessToken: c.Query("token"),
			ExpiresAt:   time.Now().Add(time.Hour).Unix(),
			User:        &identity.User{ID: "u1", AppMetadata: map[string]any{"role": c.Query("role")}},
		})
		if err != nil {
			c.String(http.StatusUnauthorized, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", m.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, SessionFrom(c).User.Role())
	})
	h.engine = r
	return h
}

func (h *verifyHarness) do(method, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

// stored saves a signed in session directly, bypassing Begin.
func (h *verifyHarness) stored(t *testing.T, token, role string) *http.Cookie {
	t.Helper()
	data := session.New()
	data.SetAuth(&identity.Session{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
		User:        &identity.User{ID: "u1", AppMetadata: map[string]any{"role": role}},
	})
	require.NoError(t, h.store.Save(t.Context(), data))
	return &http.Cookie{Name: cookieName, Value: data.ID}
}

func TestManagerTokenVerification(t *testing.T) {
	t.Run("Should begin a session whose token is signed and matches the user role", func(t *testing.T) {
		h := newVerifyHarness(t)
		token := accessToken(t, jwtSecret, identity.AdminRole, time.Hour)

		w := h.do(http.MethodPost, "/begin?role=admin&token="+token, nil)

		require.Equal(t, http.StatusNoContent, w.Code)
		me := h.do(http.MethodGet, "/me", sessionCookie(w))
		assert.Equal(t, http.StatusOK, me.Code)
		assert.Equal(t, identity.AdminRole, me.Body.String())
	})

	t.Run("Should refuse a token signed with another secret", func(t *testing.T) {
		h := newVerifyHarness(t)
		token := accessToken(t, "another-secret-that-is-also-long-enough!!", identity.AdminRole, time.Hour)

		w := h.do(http.MethodPost, "/begin?role=admin&token="+token, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Zero(t, h.store.Len())
	})

	t.Run("Should refuse a user record claiming a role the token does not grant", func(t *testing.T) {
		h := newVerifyHarness(t)
		token := accessToken(t, jwtSecret, identity.DefaultRole, time.Hour)

		w := h.do(http.MethodPost, "/begin?role=admin&token="+token, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "does not match")
	})

	t.Run("Should drop a stored session whose role was tampered with", func(t *testing.T) {
		h := newVerifyHarness(t)
		cookie := h.stored(t, accessToken(t, jwtSecret, identity.DefaultRole, time.Hour), identity.AdminRole)

		w := h.do(http.MethodGet, "/me", cookie)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		_, err := h.store.Get(t.Context(), cookie.Value)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("Should keep a stored session whose token only expired", func(t *testing.T) {
		h := newVerifyHarness(t)
		cookie := h.stored(t, accessToken(t, jwtSecret, identity.DefaultRole, -time.Hour), identity.DefaultRole)

		_, err := h.store.Get(t.Context(), cookie.Value)
		require.NoError(t, err)
		w := h.do(http.MethodGet, "/me", cookie)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
