package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/identity"
	"github.com/focitech/focitech/engine/listview"
	"github.com/focitech/focitech/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) Refresh(ctx context.Context, refreshToken string) (*identity.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Session), args.Error(1)
}

func signedIn(expiresIn time.Duration) *Data {
	d := New()
	d.SetAuth(&identity.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(expiresIn).Unix(),
		User:         &identity.User{ID: "u1", AppMetadata: map[string]any{"role": "admin"}},
	})
	return d
}

func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("Should round trip session data", func(t *testing.T) {
		d := signedIn(time.Hour)
		d.SetView("inquiries", listview.State{Query: "acme", Page: 2, Selected: []string{"4"}})
		d.AddFlash(FlashSuccess, "Saved")

		require.NoError(t, store.Save(ctx, d))
		got, err := store.Get(ctx, d.ID)

		require.NoError(t, err)
		assert.True(t, got.IsAdmin())
		st, ok := got.View("inquiries")
		assert.True(t, ok)
		assert.Equal(t, []string{"4"}, st.Selected)
		assert.Equal(t, []Flash{{Kind: FlashSuccess, Message: "Saved"}}, got.TakeFlashes())
		assert.Empty(t, got.Flashes)
	})

	t.Run("Should report missing sessions", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should delete sessions", func(t *testing.T) {
		d := New()
		require.NoError(t, store.Save(ctx, d))

		require.NoError(t, store.Delete(ctx, d.ID))

		_, err := store.Get(ctx, d.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, "", time.Hour)

	storeContract(t, store)

	t.Run("Should apply the prefix and ttl", func(t *testing.T) {
		d := New()
		require.NoError(t, store.Save(context.Background(), d))

		assert.True(t, mr.Exists("focitech:session:"+d.ID))
		assert.Equal(t, time.Hour, mr.TTL("focitech:session:"+d.ID))
	})

	t.Run("Should expire sessions", func(t *testing.T) {
		d := New()
		require.NoError(t, store.Save(context.Background(), d))

		mr.FastForward(2 * time.Hour)

		_, err := store.Get(context.Background(), d.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should treat corrupt payloads as missing", func(t *testing.T) {
		require.NoError(t, mr.Set("focitech:session:bad", "{not json"))

		_, err := store.Get(context.Background(), "bad")

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(2, time.Hour)

	storeContract(t, store)

	t.Run("Should evict the least recently used entry", func(t *testing.T) {
		s := NewMemoryStore(2, time.Hour)
		a, b, c := New(), New(), New()
		for _, d := range []*Data{a, b, c} {
			require.NoError(t, s.Save(context.Background(), d))
		}

		_, err := s.Get(context.Background(), a.ID)

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 2, s.Len())
	})

	t.Run("Should hand out copies", func(t *testing.T) {
		d := New()
		require.NoError(t, store.Save(context.Background(), d))
		got, err := store.Get(context.Background(), d.ID)
		require.NoError(t, err)

		got.AddFlash(FlashInfo, "local only")

		again, err := store.Get(context.Background(), d.ID)
		require.NoError(t, err)
		assert.Empty(t, again.Flashes)
	})
}

func TestNewStore(t *testing.T) {
	t.Run("Should require a redis client for the redis store", func(t *testing.T) {
		_, err := NewStore(&config.SessionConfig{Store: "redis"}, nil)
		assert.Error(t, err)
	})

	t.Run("Should default to memory", func(t *testing.T) {
		s, err := NewStore(&config.SessionConfig{MaxEntries: 5, TTL: time.Minute}, nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})
}

func TestData(t *testing.T) {
	t.Run("Should forget tokens and views on sign out", func(t *testing.T) {
		d := signedIn(time.Hour)
		d.SetView("team", listview.State{Page: 3})

		d.ClearAuth()

		assert.False(t, d.SignedIn())
		assert.False(t, d.IsAdmin())
		_, ok := d.View("team")
		assert.False(t, ok)
	})
}

func TestTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return ErrNoToken for anonymous sessions", func(t *testing.T) {
		tokens := NewTokens(New(), NewMemoryStore(10, time.Hour), nil)

		_, err := tokens.Token(ctx)

		assert.ErrorIs(t, err, api.ErrNoToken)
	})

	t.Run("Should return the stored token when it is fresh", func(t *testing.T) {
		auth := &mockRefresher{}
		tokens := NewTokens(signedIn(time.Hour), NewMemoryStore(10, time.Hour), auth)

		token, err := tokens.Token(ctx)

		require.NoError(t, err)
		assert.Equal(t, "access-1", token)
		auth.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	})

	t.Run("Should refresh once and persist the new tokens", func(t *testing.T) {
		store := NewMemoryStore(10, time.Hour)
		data := signedIn(time.Hour)
		auth := &mockRefresher{}
		auth.On("Refresh", mock.Anything, "refresh-1").Return(&identity.Session{
			AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresAt: time.Now().Add(time.Hour).Unix(),
		}, nil).Once()
		tokens := NewTokens(data, store, auth)

		require.NoError(t, tokens.Refresh(ctx))
		require.NoError(t, tokens.Refresh(ctx))

		saved, err := store.Get(ctx, data.ID)
		require.NoError(t, err)
		assert.Equal(t, "access-2", saved.AccessToken)
		assert.Equal(t, "u1", saved.User.ID)
		auth.AssertExpectations(t)
	})

	t.Run("Should refresh proactively near expiry", func(t *testing.T) {
		auth := &mockRefresher{}
		auth.On("Refresh", mock.Anything, "refresh-1").Return(&identity.Session{
			AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresAt: time.Now().Add(time.Hour).Unix(),
		}, nil).Once()
		tokens := NewTokens(signedIn(10*time.Second), NewMemoryStore(10, time.Hour), auth)

		token, err := tokens.Token(ctx)

		require.NoError(t, err)
		assert.Equal(t, "access-2", token)
	})

	t.Run("Should sign the browser out when refresh fails", func(t *testing.T) {
		store := NewMemoryStore(10, time.Hour)
		data := signedIn(time.Hour)
		auth := &mockRefresher{}
		auth.On("Refresh", mock.Anything, "refresh-1").Return(nil, errors.New("invalid_grant")).Once()
		tokens := NewTokens(data, store, auth)

		err := tokens.Refresh(ctx)

		assert.Error(t, err)
		assert.True(t, tokens.Revoked())
		saved, gerr := store.Get(ctx, data.ID)
		require.NoError(t, gerr)
		assert.False(t, saved.SignedIn())
		_, terr := tokens.Token(ctx)
		assert.ErrorIs(t, terr, api.ErrNoToken)
	})
}
