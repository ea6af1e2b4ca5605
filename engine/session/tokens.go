package session

import (
	"context"
	"sync"
	"time"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/identity"
	"github.com/focitech/focitech/pkg/logger"
)

// TokenRefresher trades a refresh token for a new session.
// *identity.Client satisfies it.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*identity.Session, error)
}

// Tokens adapts one browser session to api.Refresher. It lives for a single
// request and refreshes at most once; a failed refresh signs the browser out.
type Tokens struct {
	store Store
	auth  TokenRefresher
	now   func() time.Time

	mu        sync.Mutex
	data      *Data
	refreshed bool
	revoked   bool
}

var _ api.Refresher = (*Tokens)(nil)

func NewTokens(data *Data, store Store, auth TokenRefresher) *Tokens {
	return &Tokens{data: data, store: store, auth: auth, now: time.Now}
}

func (t *Tokens) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.data.SignedIn() {
		return "", api.ErrNoToken
	}
	if t.data.Auth().ExpiresWithin(t.now(), identity.RefreshMargin) {
		if err := t.refreshLocked(ctx); err != nil {
			logger.FromContext(ctx).Debug("proactive token refresh failed", "error", err)
			if t.revoked {
				return "", api.ErrNoToken
			}
		}
	}
	return t.data.AccessToken, nil
}

func (t *Tokens) Refresh(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refreshLocked(ctx)
}

// Revoked reports whether a refresh failed and the browser was signed out.
func (t *Tokens) Revoked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revoked
}

func (t *Tokens) refreshLocked(ctx context.Context) error {
	if t.refreshed {
		return nil
	}
	if t.revoked || t.auth == nil || t.data.RefreshToken == "" {
		return identity.ErrNoSession
	}
	sess, err := t.auth.Refresh(ctx, t.data.RefreshToken)
	if err != nil {
		t.revoked = true
		t.data.ClearAuth()
		if serr := t.store.Save(ctx, t.data); serr != nil {
			logger.FromContext(ctx).Warn("failed to persist signed out session", "error", serr)
		}
		return err
	}
	t.refreshed = true
	t.data.SetAuth(sess)
	if err := t.store.Save(ctx, t.data); err != nil {
		logger.FromContext(ctx).Warn("failed to persist refreshed session", "error", err)
	}
	return nil
}
