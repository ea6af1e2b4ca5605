package auth

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/identity"
	"github.com/focitech/focitech/engine/session"
	"github.com/focitech/focitech/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "focitech_session"

type harness struct {
	engine   *gin.Engine
	store    *session.MemoryStore
	backend  *httptest.Server
	lastAuth atomic.Value
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &harness{store: session.NewMemoryStore(100, time.Hour)}
	h.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.lastAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(h.backend.Close)
	client, err := api.New(&config.APIConfig{BaseURL: h.backend.URL, TrailingSlash: true})
	require.NoError(t, err)
	m := NewManager(h.store, nil, client, CookieConfig{Name: cookieName, MaxAge: time.Hour})

	r := gin.New()
	r.Use(m.Middleware())
	r.POST("/login", func(c *gin.Context) {
		role := c.Query("role")
		err := m.Begin(c, &identity.Session{
			AccessToken:  "tok-" + role,
			RefreshToken: "refresh",
			ExpiresAt:    time.Now().Add(time.Hour).Unix(),
			User:         &identity.User{ID: "u1", AppMetadata: map[string]any{"role": role}},
		})
		require.NoError(t, err)
		c.Status(http.StatusNoContent)
	})
	r.POST("/logout", func(c *gin.Context) {
		require.NoError(t, m.End(c))
		c.Status(http.StatusNoContent)
	})
	r.GET("/profile", m.RequireAuth(), func(c *gin.Context) {
		_, err := ClientFrom(c).Inquiries().List(c.Request.Context())
		require.NoError(t, err)
		c.String(http.StatusOK, SessionFrom(c).User.ID)
	})
	forbidden := func(c *gin.Context) { c.String(http.StatusForbidden, "admins only") }
	r.GET("/admin", m.RequireAuth(), m.RequireAdmin(forbidden), func(c *gin.Context) {
		c.String(http.StatusOK, "dashboard")
	})
	h.engine = r
	return h
}

func (h *harness) do(method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func TestManager(t *testing.T) {
	t.Run("Should redirect anonymous visitors to login", func(t *testing.T) {
		h := newHarness(t)

		w := h.do(http.MethodGet, "/profile", nil)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login?next=%2Fprofile", w.Header().Get("Location"))
		assert.Nil(t, sessionCookie(w))
		assert.Zero(t, h.store.Len())
	})

	t.Run("Should sign in with a rotated session and authenticate backend calls", func(t *testing.T) {
		h := newHarness(t)

		login := h.do(http.MethodPost, "/login?role=authenticated", nil)
		cookie := sessionCookie(login)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)

		w := h.do(http.MethodGet, "/profile", cookie)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1", w.Body.String())
		assert.Equal(t, "Bearer tok-authenticated", h.lastAuth.Load())
	})

	t.Run("Should forbid non admins from admin pages", func(t *testing.T) {
		h := newHarness(t)
		user := sessionCookie(h.do(http.MethodPost, "/login?role=authenticated", nil))
		admin := sessionCookie(h.do(http.MethodPost, "/login?role=admin", nil))

		assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/admin", user).Code)
		assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/admin", admin).Code)
	})

	t.Run("Should forget the session on logout", func(t *testing.T) {
		h := newHarness(t)
		cookie := sessionCookie(h.do(http.MethodPost, "/login?role=admin", nil))

		out := h.do(http.MethodPost, "/logout", cookie)
		require.Equal(t, http.StatusNoContent, out.Code)
		assert.Equal(t, -1, sessionCookie(out).MaxAge)

		assert.Equal(t, http.StatusSeeOther, h.do(http.MethodGet, "/admin", cookie).Code)
	})

	t.Run("Should start over when the cookie names an unknown session", func(t *testing.T) {
		h := newHarness(t)

		w := h.do(http.MethodGet, "/admin", &http.Cookie{Name: cookieName, Value: "stale"})

		assert.Equal(t, http.StatusSeeOther, w.Code)
	})
}
