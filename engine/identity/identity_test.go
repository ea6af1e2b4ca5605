package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/resource"
	"github.com/focitech/focitech/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Email:       "ada@example.com",
		Role:        "authenticated",
		AppMetadata: map[string]any{"role": role},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

type fakeGoTrue struct {
	t          *testing.T
	mu         sync.Mutex
	ttl        time.Duration
	role       string
	refreshOK  bool
	refreshes  atomic.Int32
	logouts    atomic.Int32
	hits       atomic.Int32
	apikeys    []string
	signupMeta map[string]any
}

func (f *fakeGoTrue) session() map[string]any {
	return map[string]any{
		"access_token":  signToken(f.t, f.role, f.ttl),
		"refresh_token": "refresh-1",
		"token_type":    "bearer",
		"expires_in":    int(f.ttl.Seconds()),
		"user": map[string]any{
			"id":            "user-1",
			"email":         "ada@example.com",
			"app_metadata":  map[string]any{"role": f.role},
			"user_metadata": map[string]any{"full_name": "Ada Lovelace"},
			"created_at":    "2024-02-10T08:00:00Z",
		},
	}
}

func (f *fakeGoTrue) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	f.mu.Lock()
	f.apikeys = append(f.apikeys, r.Header.Get("apikey"))
	f.mu.Unlock()
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "password":
		if body["password"] != "correct-horse" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": "invalid_grant", "error_description": "Invalid login credentials",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(f.session())
	case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "refresh_token":
		f.refreshes.Add(1)
		if !f.refreshOK {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid_grant", "error_description": "Refresh Token Not Found"})
			return
		}
		f.ttl = time.Hour
		_ = json.NewEncoder(w).Encode(f.session())
	case r.URL.Path == "/auth/v1/signup":
		f.signupMeta, _ = body["data"].(map[string]any)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "user-2", "email": body["email"], "user_metadata": body["data"]})
	case r.URL.Path == "/auth/v1/logout":
		f.logouts.Add(1)
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/auth/v1/user" && r.Method == http.MethodPut:
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "user-1", "email": "ada@example.com", "user_metadata": body["data"]})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFake(t *testing.T, role string, ttl time.Duration) (*fakeGoTrue, *Client) {
	t.Helper()
	fake := &fakeGoTrue{t: t, role: role, ttl: ttl, refreshOK: true}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client, err := NewClient(&config.IdentityConfig{
		URL:       srv.URL + "/",
		AnonKey:   config.SensitiveString("anon-key"),
		JWTSecret: config.SensitiveString(testSecret),
	})
	require.NoError(t, err)
	return fake, client
}

var goodLogin = resource.LoginForm{Email: "Ada@Example.com", Password: "correct-horse"}

func TestClient(t *testing.T) {
	t.Run("Should refuse to build without a URL", func(t *testing.T) {
		_, err := NewClient(&config.IdentityConfig{})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("Should sign in with the anon key and fill the expiry", func(t *testing.T) {
		fake, client := newFake(t, "admin", time.Hour)

		sess, err := client.SignIn(context.Background(), goodLogin)

		require.NoError(t, err)
		assert.True(t, sess.Active())
		assert.NotZero(t, sess.ExpiresAt)
		assert.True(t, sess.User.IsAdmin())
		assert.Equal(t, "Ada Lovelace", sess.User.FullName())
		assert.Equal(t, "February 2024", sess.User.MemberSince())
		assert.Equal(t, []string{"anon-key"}, fake.apikeys)
	})

	t.Run("Should map bad credentials to ErrInvalidLogin", func(t *testing.T) {
		_, client := newFake(t, "admin", time.Hour)

		_, err := client.SignIn(context.Background(), resource.LoginForm{Email: "ada@example.com", Password: "wrong-pass"})

		assert.ErrorIs(t, err, ErrInvalidLogin)
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "Invalid login credentials", authErr.Message)
	})

	t.Run("Should validate credentials before calling the service", func(t *testing.T) {
		fake, client := newFake(t, "admin", time.Hour)

		_, err := client.SignIn(context.Background(), resource.LoginForm{Email: "nope", Password: "x"})

		assert.ErrorIs(t, err, resource.ErrInvalid)
		assert.Zero(t, fake.hits.Load())
	})

	t.Run("Should store full_name on sign up and return an inactive session", func(t *testing.T) {
		fake, client := newFake(t, "authenticated", time.Hour)

		sess, err := client.SignUp(context.Background(), resource.SignupForm{
			FullName: "Grace Hopper", Email: "grace@example.com", Password: "longenough1",
		})

		require.NoError(t, err)
		assert.False(t, sess.Active())
		assert.Equal(t, "grace@example.com", sess.User.Email)
		assert.Equal(t, "Grace Hopper", fake.signupMeta["full_name"])
	})

	t.Run("Should verify tokens with the configured secret", func(t *testing.T) {
		_, client := newFake(t, "admin", time.Hour)

		claims, err := client.Verify(signToken(t, "admin", time.Hour))

		require.NoError(t, err)
		assert.Equal(t, "admin", claims.AppRole())
		assert.Equal(t, "user-1", claims.Subject)
	})
}

func TestParseClaims(t *testing.T) {
	t.Run("Should report expired tokens", func(t *testing.T) {
		_, err := ParseClaims(signToken(t, "admin", -time.Hour), testSecret)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("Should reject a wrong secret", func(t *testing.T) {
		_, err := ParseClaims(signToken(t, "admin", time.Hour), "another-secret")
		assert.Error(t, err)
	})

	t.Run("Should decode without verification when no secret is set", func(t *testing.T) {
		claims, err := ParseClaims(signToken(t, "", -time.Hour), "")
		require.NoError(t, err)
		assert.Equal(t, DefaultRole, claims.AppRole())
	})
}

func TestUser(t *testing.T) {
	t.Run("Should default the role", func(t *testing.T) {
		u := &User{AppMetadata: map[string]any{"provider": "email"}}
		assert.Equal(t, DefaultRole, u.Role())
		assert.False(t, u.IsAdmin())
		var none *User
		assert.False(t, none.IsAdmin())
		assert.Equal(t, "", none.DisplayName())
	})

	t.Run("Should fall back to the email for display", func(t *testing.T) {
		assert.Equal(t, "ada@example.com", (&User{Email: "ada@example.com"}).DisplayName())
	})
}

func TestProvider(t *testing.T) {
	t.Run("Should notify subscribers and serve the token", func(t *testing.T) {
		_, client := newFake(t, "admin", time.Hour)
		p := NewProvider(client)
		var events []Event
		unsubscribe := p.Subscribe(func(e Event, _ *Session) { events = append(events, e) })

		_, err := p.SignIn(context.Background(), goodLogin)
		require.NoError(t, err)
		token, err := p.Token(context.Background())

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, []Event{EventSignedIn}, events)

		unsubscribe()
		require.NoError(t, p.SignOut(context.Background()))
		assert.Equal(t, []Event{EventSignedIn}, events)
	})

	t.Run("Should return ErrNoToken when signed out", func(t *testing.T) {
		_, client := newFake(t, "admin", time.Hour)
		p := NewProvider(client)

		_, err := p.Token(context.Background())

		assert.ErrorIs(t, err, api.ErrNoToken)
		_, err = p.Current(context.Background())
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("Should refresh a token that is about to expire", func(t *testing.T) {
		fake, client := newFake(t, "admin", 30*time.Second)
		p := NewProvider(client)
		_, err := p.SignIn(context.Background(), goodLogin)
		require.NoError(t, err)
		var events []Event
		p.Subscribe(func(e Event, _ *Session) { events = append(events, e) })

		sess, err := p.Current(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int32(1), fake.refreshes.Load())
		assert.False(t, sess.ExpiresWithin(time.Now(), RefreshMargin))
		assert.Equal(t, []Event{EventTokenRefreshed}, events)
	})

	t.Run("Should sign out when the refresh token is rejected", func(t *testing.T) {
		fake, client := newFake(t, "admin", time.Hour)
		fake.refreshOK = false
		p := NewProvider(client)
		_, err := p.SignIn(context.Background(), goodLogin)
		require.NoError(t, err)
		var events []Event
		p.Subscribe(func(e Event, _ *Session) { events = append(events, e) })

		err = p.Refresh(context.Background())

		assert.Error(t, err)
		assert.Nil(t, p.User())
		assert.Equal(t, []Event{EventSignedOut}, events)
	})

	t.Run("Should revoke the session on sign out", func(t *testing.T) {
		fake, client := newFake(t, "admin", time.Hour)
		p := NewProvider(client)
		_, err := p.SignIn(context.Background(), goodLogin)
		require.NoError(t, err)

		require.NoError(t, p.SignOut(context.Background()))

		assert.Equal(t, int32(1), fake.logouts.Load())
		assert.Nil(t, p.User())
	})

	t.Run("Should update profile metadata", func(t *testing.T) {
		_, client := newFake(t, "admin", time.Hour)
		p := NewProvider(client)
		_, err := p.SignIn(context.Background(), goodLogin)
		require.NoError(t, err)

		user, err := p.UpdateProfile(context.Background(), resource.ProfileForm{FullName: "Ada King", Location: "London"})

		require.NoError(t, err)
		assert.Equal(t, "Ada King", user.FullName())
		assert.Equal(t, "London", p.User().Location())
	})
}
