package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
	healthTimeout  = 2 * time.Second
)

// health reports liveness plus the state of optional dependencies. A failing
// redis ping degrades the service because sessions and rate limits live there.
func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()
	status := statusHealthy
	components := gin.H{
		"api":     gin.H{"base_url": s.state.API.BaseURL()},
		"sign_in": gin.H{"enabled": s.state.SignInEnabled()},
		"cache":   gin.H{"enabled": s.state.Cache != nil, "hit_ratio": s.state.Cache.Ratio()},
	}
	if s.redisClient != nil {
		redisStatus := gin.H{"ready": true}
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			redisStatus = gin.H{"ready": false, "error": err.Error()}
			status = statusDegraded
		}
		components["redis"] = redisStatus
	}
	code := http.StatusOK
	if status != statusHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"data": gin.H{
			"status":     status,
			"components": components,
		},
		"message": "Success",
	})
}
