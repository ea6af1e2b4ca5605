// Package session keeps per browser state: tokens, the signed in user,
// list view states and flash messages.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/focitech/focitech/engine/identity"
	"github.com/focitech/focitech/engine/listview"
	"github.com/focitech/focitech/pkg/config"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session: not found")

// Store persists session data by ID.
type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, data *Data) error
	Delete(ctx context.Context, id string) error
}

// FlashKind styles a flash message.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashInfo    FlashKind = "info"
)

type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// Data is everything stored for one browser.
type Data struct {
	ID           string                    `json:"id"`
	AccessToken  string                    `json:"access_token,omitempty"`
	RefreshToken string                    `json:"refresh_token,omitempty"`
	ExpiresAt    int64                     `json:"expires_at,omitempty"`
	User         *identity.User            `json:"user,omitempty"`
	Views        map[string]listview.State `json:"views,omitempty"`
	Flashes      []Flash                   `json:"flashes,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// New starts an empty session with a random ID.
func New() *Data {
	return &Data{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
}

func (d *Data) SignedIn() bool {
	return d != nil && d.AccessToken != "" && d.User != nil
}

func (d *Data) IsAdmin() bool {
	return d.SignedIn() && d.User.IsAdmin()
}

// SetAuth copies the tokens and user from an identity session.
func (d *Data) SetAuth(sess *identity.Session) {
	d.AccessToken = sess.AccessToken
	d.RefreshToken = sess.RefreshToken
	d.ExpiresAt = sess.ExpiresAt
	if sess.User != nil {
		d.User = sess.User
	}
}

// Auth rebuilds the identity session view of the stored tokens.
func (d *Data) Auth() *identity.Session {
	return &identity.Session{
		AccessToken:  d.AccessToken,
		RefreshToken: d.RefreshToken,
		ExpiresAt:    d.ExpiresAt,
		User:         d.User,
	}
}

// ClearAuth signs the browser out and forgets per user view state.
func (d *Data) ClearAuth() {
	d.AccessToken, d.RefreshToken, d.ExpiresAt = "", "", 0
	d.User = nil
	d.Views = nil
}

func (d *Data) View(key string) (listview.State, bool) {
	st, ok := d.Views[key]
	return st, ok
}

func (d *Data) SetView(key string, st listview.State) {
	if d.Views == nil {
		d.Views = make(map[string]listview.State)
	}
	d.Views[key] = st
}

func (d *Data) AddFlash(kind FlashKind, msg string) {
	d.Flashes = append(d.Flashes, Flash{Kind: kind, Message: msg})
}

// TakeFlashes returns and clears pending flashes.
func (d *Data) TakeFlashes() []Flash {
	out := d.Flashes
	d.Flashes = nil
	return out
}

// NewStore builds the store selected by cfg. rdb is required for "redis".
func NewStore(cfg *config.SessionConfig, rdb RedisClient) (Store, error) {
	switch cfg.Store {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("session store redis requires a redis client")
		}
		return NewRedisStore(rdb, cfg.Prefix, cfg.TTL), nil
	case "", "memory":
		return NewMemoryStore(cfg.MaxEntries, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
