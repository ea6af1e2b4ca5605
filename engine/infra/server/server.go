package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/directory"
	"github.com/focitech/focitech/engine/identity"
	"github.com/focitech/focitech/engine/infra/cache"
	"github.com/focitech/focitech/engine/infra/monitoring"
	"github.com/focitech/focitech/engine/infra/pubsub"
	"github.com/focitech/focitech/engine/infra/server/appstate"
	"github.com/focitech/focitech/engine/infra/server/middleware/auth"
	"github.com/focitech/focitech/engine/infra/server/middleware/ratelimit"
	"github.com/focitech/focitech/engine/infra/server/router"
	"github.com/focitech/focitech/engine/session"
	"github.com/focitech/focitech/pkg/config"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	httpReadTimeout       = 15 * time.Second
	httpWriteTimeout      = 15 * time.Second
	httpIdleTimeout       = 60 * time.Second
	serverShutdownTimeout = 5 * time.Second
	hostAny               = "0.0.0.0"
	hostLoopback          = "127.0.0.1"
)

type Server struct {
	serverConfig *config.ServerConfig
	state        *appstate.State
	redisClient  *redis.Client
	router       *gin.Engine
	auth         *auth.Manager
	pages        *Renderer
	ctx          context.Context
	cancel       context.CancelFunc
	cleanups     []func()
}

// NewServer connects every dependency named by the configuration attached to
// ctx and builds the router.
func NewServer(ctx context.Context) (*Server, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("configuration missing from context; attach it with config.ContextWithConfig")
	}
	s := &Server{}
	state, err := s.setupDependencies(ctx, cfg)
	if err != nil {
		s.cleanup()
		return nil, err
	}
	built, err := Build(ctx, state, s.redisClient)
	if err != nil {
		s.cleanup()
		return nil, err
	}
	built.cleanups = append(built.cleanups, s.cleanups...)
	return built, nil
}

// Build wires routes over an existing state. rdb may be nil, in which case
// rate limits are kept in memory.
func Build(ctx context.Context, state *appstate.State, rdb *redis.Client) (*Server, error) {
	pages, err := NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	serverCtx, cancel := context.WithCancel(ctx)
	cfg := state.Config
	s := &Server{
		serverConfig: &cfg.Server,
		state:        state,
		redisClient:  rdb,
		pages:        pages,
		ctx:          serverCtx,
		cancel:       cancel,
		auth: auth.NewManager(state.Sessions, state.Identity, state.API, auth.CookieConfig{
			Name:   cfg.Server.CookieName,
			Secure: cfg.Server.CookieSecure,
			MaxAge: cfg.Session.TTL,
		}),
	}
	if err := s.buildRouter(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build router: %w", err)
	}
	return s, nil
}

func (s *Server) setupDependencies(ctx context.Context, cfg *config.Config) (*appstate.State, error) {
	log := logger.FromContext(ctx)
	metrics := monitoring.NewMonitoringService()
	client, err := api.New(&cfg.API, api.WithObserver(metrics.ObserveBackend))
	if err != nil {
		return nil, fmt.Errorf("failed to build api client: %w", err)
	}
	idp, err := identity.NewClient(&cfg.Identity)
	switch {
	case errors.Is(err, identity.ErrNotConfigured):
		log.Warn("Identity service not configured; sign in is disabled")
	case err != nil:
		return nil, fmt.Errorf("failed to build identity client: %w", err)
	}
	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedis(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		s.redisClient = rdb
		s.cleanups = append(s.cleanups, func() { _ = rdb.Close() })
	}
	var rc session.RedisClient
	if s.redisClient != nil {
		rc = s.redisClient
	}
	sessions, err := session.NewStore(&cfg.Session, rc)
	if err != nil {
		return nil, err
	}
	var team directory.Reader
	if cfg.Database.ConnString != "" {
		pool, err := directory.Open(ctx, cfg.Database.ConnString.Value())
		if err != nil {
			return nil, err
		}
		s.cleanups = append(s.cleanups, pool.Close)
		team = directory.NewRepository(pool)
		log.Info("Team directory reads from postgres")
	}
	pageCache, err := cache.New(&cfg.Cache)
	if err != nil {
		return nil, err
	}
	s.cleanups = append(s.cleanups, pageCache.Close)
	if s.redisClient != nil && pageCache != nil {
		bus, err := pubsub.NewRedisProvider(s.redisClient)
		if err != nil {
			return nil, err
		}
		if err := pageCache.Share(ctx, bus); err != nil {
			return nil, err
		}
		log.Info("Page cache invalidations shared over redis", "channel", cache.InvalidationChannel)
	}
	return appstate.NewState(appstate.BaseDeps{
		Config:   cfg,
		API:      client,
		Identity: idp,
		Sessions: sessions,
		Team:     team,
		Cache:    pageCache,
		Metrics:  metrics,
	})
}

func (s *Server) buildRouter() error {
	cfg := s.state.Config
	r := gin.New()
	r.HTMLRender = s.pages
	r.Use(gin.Recovery())
	r.Use(router.RequestID())
	r.Use(LoggerMiddleware())
	r.Use(s.state.Metrics.GinMiddleware())
	if cfg.Server.CORSEnabled {
		r.Use(CORSMiddleware(cfg.Server.CORS))
	}
	r.Use(SecurityHeaders())
	r.Use(appstate.StateMiddleware(s.state))
	r.Use(s.auth.Middleware())
	limits, err := ratelimit.NewManager(ratelimit.FromAppConfig(&cfg.RateLimit), s.redisClient, s.state.Metrics)
	if err != nil {
		return err
	}
	if err := RegisterRoutes(r, s, limits); err != nil {
		return err
	}
	s.router = r
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run() error {
	defer s.cleanup()
	srv := s.createHTTPServer()
	errCh := make(chan error, 1)
	go s.startServer(srv, errCh)
	return s.handleGracefulShutdown(srv, errCh)
}

func (s *Server) cleanup() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.state != nil {
		s.state.Fetches.CancelAll()
	}
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
}

func (s *Server) createHTTPServer() *http.Server {
	addr := net.JoinHostPort(s.serverConfig.Host, strconv.Itoa(s.serverConfig.Port))
	logger.FromContext(s.ctx).Info("Starting HTTP server",
		"address", fmt.Sprintf("http://%s", net.JoinHostPort(friendlyHost(s.serverConfig.Host),
			strconv.Itoa(s.serverConfig.Port))),
		"api", s.state.API.BaseURL(),
		"sign_in", s.state.SignInEnabled(),
	)
	return &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  httpReadTimeout,
		WriteTimeout: httpWriteTimeout,
		IdleTimeout:  httpIdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return s.ctx },
	}
}

func (s *Server) startServer(srv *http.Server, errCh chan<- error) {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.FromContext(s.ctx).Error("Server failed to start", "error", err)
		errCh <- err
	}
}

func (s *Server) handleGracefulShutdown(srv *http.Server, errCh <-chan error) error {
	log := logger.FromContext(s.ctx)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
		log.Debug("Received shutdown signal, initiating graceful shutdown")
	case <-s.ctx.Done():
		log.Debug("Server context canceled, initiating graceful shutdown")
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(s.ctx), serverShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server shutdown completed successfully")
	return nil
}

func friendlyHost(h string) string {
	if h == hostAny || h == "::" || h == "" {
		return hostLoopback
	}
	return h
}
