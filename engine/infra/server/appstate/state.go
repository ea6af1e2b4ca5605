package appstate

import (
	"context"
	"fmt"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/directory"
	"github.com/focitech/focitech/engine/fetch"
	"github.com/focitech/focitech/engine/identity"
	"github.com/focitech/focitech/engine/infra/cache"
	"github.com/focitech/focitech/engine/infra/monitoring"
	"github.com/focitech/focitech/engine/session"
	"github.com/focitech/focitech/pkg/config"
	"github.com/gin-gonic/gin"
)

type contextKey string

const (
	stateKey contextKey = "app_state"
)

// BaseDeps are the long lived collaborators built at startup.
type BaseDeps struct {
	Config *config.Config
	// API is unauthenticated; handlers use the per-session client.
	API *api.Client
	// Identity is nil when sign in is not configured.
	Identity *identity.Client
	Sessions session.Store
	Team     directory.Reader
	Cache    *cache.Cache
	Metrics  *monitoring.Service
}

type State struct {
	BaseDeps
	// Fetches cancels superseded admin list loads per session and screen.
	Fetches *fetch.Latest
}

func NewState(deps BaseDeps) (*State, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.API == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if deps.Team == nil {
		deps.Team = directory.FromAPI(deps.API)
	}
	return &State{BaseDeps: deps, Fetches: fetch.NewLatest()}, nil
}

// SignInEnabled reports whether an identity service is configured.
func (s *State) SignInEnabled() bool {
	return s.Identity != nil
}

func WithState(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, stateKey, state)
}

func GetState(ctx context.Context) (*State, error) {
	state, ok := ctx.Value(stateKey).(*State)
	if !ok {
		return nil, fmt.Errorf("app state not found in context")
	}
	return state, nil
}

func StateMiddleware(state *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithState(c.Request.Context(), state)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
