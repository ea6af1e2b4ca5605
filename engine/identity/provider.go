package identity

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/resource"
	"github.com/focitech/focitech/pkg/logger"
)

// RefreshMargin is how early Current renews a token that is about to lapse.
const RefreshMargin = 60 * time.Second

// Listener receives auth state changes. sess is nil after sign out.
type Listener func(event Event, sess *Session)

// Provider holds one signed in session in process. The console uses it as
// the token source of its api.Client.
type Provider struct {
	client *Client
	now    func() time.Time

	mu      sync.RWMutex
	session *Session

	subMu   sync.Mutex
	nextSub int
	subs    map[int]Listener
}

var _ api.Refresher = (*Provider)(nil)

func NewProvider(client *Client) *Provider {
	return &Provider{
		client: client,
		now:    time.Now,
		subs:   make(map[int]Listener),
	}
}

// Current returns the active session, refreshing it first when it is about
// to expire.
func (p *Provider) Current(ctx context.Context) (*Session, error) {
	sess := p.snapshot()
	if !sess.Active() {
		return nil, ErrNoSession
	}
	if sess.ExpiresWithin(p.now(), RefreshMargin) {
		if err := p.Refresh(ctx); err != nil {
			return nil, err
		}
		sess = p.snapshot()
	}
	return sess, nil
}

// User returns the signed in user, or nil.
func (p *Provider) User() *User {
	if sess := p.snapshot(); sess != nil {
		return sess.User
	}
	return nil
}

// Subscribe registers fn for state changes and returns a function that
// removes it.
func (p *Provider) Subscribe(fn Listener) func() {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		delete(p.subs, id)
	}
}

func (p *Provider) SignIn(ctx context.Context, form resource.LoginForm) (*Session, error) {
	sess, err := p.client.SignIn(ctx, form)
	if err != nil {
		return nil, err
	}
	p.set(sess)
	p.emit(EventSignedIn, sess)
	return sess, nil
}

// SignUp registers and, when the service returns a session, signs in.
func (p *Provider) SignUp(ctx context.Context, form resource.SignupForm) (*Session, error) {
	sess, err := p.client.SignUp(ctx, form)
	if err != nil {
		return nil, err
	}
	if sess.Active() {
		p.set(sess)
		p.emit(EventSignedIn, sess)
	}
	return sess, nil
}

// SignOut clears the local session. Server side revocation is best effort.
func (p *Provider) SignOut(ctx context.Context) error {
	sess := p.snapshot()
	p.set(nil)
	if sess.Active() {
		if err := p.client.SignOut(ctx, sess.AccessToken); err != nil {
			logger.FromContext(ctx).Warn("failed to revoke session", "error", err)
		}
	}
	p.emit(EventSignedOut, nil)
	return nil
}

// Refresh renews the token pair. A rejected refresh token signs the user out.
func (p *Provider) Refresh(ctx context.Context) error {
	sess := p.snapshot()
	if sess == nil || sess.RefreshToken == "" {
		return ErrNoSession
	}
	next, err := p.client.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.Status >= http.StatusBadRequest && authErr.Status < 500 {
			p.set(nil)
			p.emit(EventSignedOut, nil)
		}
		return err
	}
	if next.User == nil {
		next.User = sess.User
	}
	p.set(next)
	p.emit(EventTokenRefreshed, next)
	return nil
}

// Token implements api.TokenSource.
func (p *Provider) Token(ctx context.Context) (string, error) {
	sess, err := p.Current(ctx)
	if errors.Is(err, ErrNoSession) {
		return "", api.ErrNoToken
	}
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}

// UpdateProfile writes the profile form into user metadata.
func (p *Provider) UpdateProfile(ctx context.Context, form resource.ProfileForm) (*User, error) {
	if err := resource.Validate(&form); err != nil {
		return nil, err
	}
	sess, err := p.Current(ctx)
	if err != nil {
		return nil, err
	}
	user, err := p.client.UpdateUser(ctx, sess.AccessToken, ProfileData(form))
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	var updated *Session
	if p.session != nil {
		cp := *p.session
		cp.User = user
		p.session = &cp
		updated = &cp
	}
	p.mu.Unlock()
	p.emit(EventUserUpdated, updated)
	return user, nil
}

// ProfileData maps the profile form onto user_metadata keys.
func ProfileData(form resource.ProfileForm) map[string]any {
	return map[string]any{
		"full_name": form.FullName,
		"location":  form.Location,
		"education": form.Education,
	}
}

func (p *Provider) snapshot() *Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.session == nil {
		return nil
	}
	cp := *p.session
	return &cp
}

func (p *Provider) set(sess *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sess == nil {
		p.session = nil
		return
	}
	cp := *sess
	p.session = &cp
}

func (p *Provider) emit(event Event, sess *Session) {
	p.subMu.Lock()
	listeners := make([]Listener, 0, len(p.subs))
	for _, fn := range p.subs {
		listeners = append(listeners, fn)
	}
	p.subMu.Unlock()
	for _, fn := range listeners {
		fn(event, sess)
	}
}
