package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/focitech/focitech/cli/helpers"
	"github.com/focitech/focitech/engine/infra/server"
	"github.com/focitech/focitech/pkg/config"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const developmentEnvironment = "development"

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Run the website and admin area",
		Long:    "Serve the public site, sign in pages and the admin area over HTTP until interrupted.",
		RunE:    runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return fmt.Errorf("configuration missing from context; attach it with config.ContextWithConfig")
	}
	if cfg.Runtime.Environment != developmentEnvironment {
		gin.SetMode(gin.ReleaseMode)
		logSecurityWarnings(ctx, cfg)
	}
	if err := helpers.EnsurePortAvailable(ctx, cfg.Server.Host, cfg.Server.Port); err != nil {
		return err
	}
	srv, err := server.NewServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run()
}

// logSecurityWarnings flags settings that are fine locally but weak in
// production.
func logSecurityWarnings(ctx context.Context, cfg *config.Config) {
	log := logger.FromContext(ctx)
	if cfg.Identity.URL != "" && cfg.Identity.JWTSecret.Value() == "" {
		log.Warn("SECURITY WARNING: identity.jwt_secret is empty; access token signatures are not verified")
	}
	if !cfg.Server.CookieSecure {
		log.Warn("SECURITY WARNING: session cookies are sent without the Secure flag",
			"hint", "set server.cookie_secure=true behind HTTPS")
	}
	if cfg.Session.Store == "memory" {
		log.Warn("Sessions are kept in memory and are lost on restart", "hint", "set session.store=redis")
	}
	for _, origin := range cfg.Server.CORS.AllowedOrigins {
		if strings.Contains(origin, "localhost") || origin == "*" {
			log.Warn("SECURITY WARNING: CORS allows a development origin", "origin", origin)
			break
		}
	}
	if !cfg.RateLimit.Enabled {
		log.Warn("Rate limiting is disabled for contact, apply and login forms")
	}
}
