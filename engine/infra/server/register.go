package server

import (
	"net/http"

	"github.com/focitech/focitech/engine/infra/server/middleware/ratelimit"
	"github.com/focitech/focitech/engine/infra/server/router"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, s *Server, limits *ratelimit.Manager) error {
	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(s.state.Metrics.ExporterHandler()))
	s.registerPublic(r, limits)
	s.registerAuth(r, limits)
	setupAdminRoutes(r, s)
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			router.RespondProblemWithCode(c, http.StatusNotFound, router.ErrNotFoundCode, "route not found")
			return
		}
		s.notFound(c)
	})
	logger.FromContext(s.ctx).Info("Completed route registration", "routes", len(r.Routes()))
	return nil
}
