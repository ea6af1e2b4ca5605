package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/infra/server/middleware/auth"
	"github.com/focitech/focitech/engine/infra/server/router"
	"github.com/focitech/focitech/engine/resource"
	"github.com/focitech/focitech/engine/session"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/gin-gonic/gin"
)

const sessionExpiredMessage = "Your session has expired. Please sign in again."

// render fills the shared view fields and renders page name. Pending flashes
// are consumed.
func (s *Server) render(c *gin.Context, status int, name string, v View) {
	data := auth.SessionFrom(c)
	v.Path = c.Request.URL.Path
	v.User = data.User
	v.Admin = data.IsAdmin()
	v.SignIn = s.state.SignInEnabled()
	v.RequestID = router.RequestIDFrom(c)
	v.Year = time.Now().Year()
	if len(data.Flashes) > 0 {
		v.Flashes = data.TakeFlashes()
		s.saveSession(c)
	}
	c.HTML(status, name, v)
}

func (s *Server) saveSession(c *gin.Context) {
	if err := s.auth.Save(c); err != nil {
		logger.FromContext(c.Request.Context()).Warn("Failed to save session", "error", err)
	}
}

// flash queues a message for the next rendered page.
func (s *Server) flash(c *gin.Context, kind session.FlashKind, msg string) {
	auth.SessionFrom(c).AddFlash(kind, msg)
	s.saveSession(c)
}

func redirect(c *gin.Context, to string) {
	c.Redirect(http.StatusSeeOther, to)
	c.Abort()
}

// fail renders the error page for err. A backend 401 on a signed in session
// means the tokens could not be refreshed, so the visitor is sent to sign in
// again.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status := router.StatusOf(err)
	log := logger.FromContext(c.Request.Context())
	if status == http.StatusUnauthorized && errors.Is(err, api.ErrUnauthorized) {
		if endErr := s.auth.End(c); endErr != nil {
			log.Warn("Failed to end session", "error", endErr)
		}
		s.flash(c, session.FlashError, sessionExpiredMessage)
		redirect(c, loginURL(c.Request.URL.RequestURI()))
		return
	}
	if status >= http.StatusInternalServerError {
		log.Error("Page failed", "path", c.Request.URL.Path, "status", status, "error", err)
	} else {
		log.Warn("Page failed", "path", c.Request.URL.Path, "status", status, "error", err)
	}
	s.render(c, status, "error", View{
		Title: http.StatusText(status),
		Error: router.Message(err),
		Data:  gin.H{"Status": status},
	})
	c.Abort()
}

func (s *Server) notFound(c *gin.Context) {
	s.render(c, http.StatusNotFound, "error", View{
		Title: "Page not found",
		Error: "The page you are looking for does not exist.",
		Data:  gin.H{"Status": http.StatusNotFound},
	})
}

// formError re-renders a form page with field messages when err is a
// validation failure, and with a page level message otherwise.
func (s *Server) formError(c *gin.Context, name string, v View, err error) {
	var verr *resource.ValidationError
	if errors.As(err, &verr) {
		v.Fields = verr.Map()
		v.Error = "Please correct the highlighted fields."
		s.render(c, http.StatusUnprocessableEntity, name, v)
		return
	}
	status := router.StatusOf(err)
	if status == http.StatusUnauthorized && errors.Is(err, api.ErrUnauthorized) {
		s.fail(c, err)
		return
	}
	_ = c.Error(err)
	v.Error = router.Message(err)
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}
	s.render(c, status, name, v)
}

func loginURL(next string) string {
	if next == "" || next == "/" {
		return auth.LoginPath
	}
	return auth.LoginPath + "?next=" + url.QueryEscape(next)
}

// safeNext keeps only local redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") ||
		strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
