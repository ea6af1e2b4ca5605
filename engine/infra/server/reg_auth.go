package server

import (
	"fmt"
	"net/http"

	"github.com/focitech/focitech/engine/identity"
	"github.com/focitech/focitech/engine/infra/server/middleware/auth"
	"github.com/focitech/focitech/engine/infra/server/middleware/ratelimit"
	"github.com/focitech/focitech/engine/resource"
	"github.com/focitech/focitech/engine/session"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	signupConfirmMessage = "Account created! Please check your email to confirm your address."
	signedOutMessage     = "You have been signed out."
	profileSavedMessage  = "Profile updated successfully."
)

func (s *Server) registerAuth(r *gin.Engine, limits *ratelimit.Manager) {
	r.GET(auth.LoginPath, s.loginForm)
	r.POST(auth.LoginPath, limits.Middleware(ratelimit.RouteLogin), s.login)
	r.GET("/signup", s.signupForm)
	r.POST("/signup", limits.Middleware(ratelimit.RouteLogin), s.signup)
	r.POST("/logout", s.logout)
	profile := r.Group("/profile", s.auth.RequireAuth())
	{
		profile.GET("", s.profile)
		profile.POST("", s.updateProfile)
	}
}

func loginView(next string, form resource.LoginForm) View {
	form.Password = ""
	return View{Title: "Sign In", Form: form, Data: gin.H{"Next": next}}
}

func (s *Server) loginForm(c *gin.Context) {
	if auth.SessionFrom(c).SignedIn() {
		redirect(c, "/")
		return
	}
	v := loginView(c.Query("next"), resource.LoginForm{})
	if !s.state.SignInEnabled() {
		s.formError(c, "login", v, identity.ErrNotConfigured)
		return
	}
	s.render(c, http.StatusOK, "login", v)
}

func (s *Server) login(c *gin.Context) {
	var form resource.LoginForm
	_ = c.ShouldBind(&form)
	next := c.PostForm("next")
	if !s.state.SignInEnabled() {
		s.formError(c, "login", loginView(next, form), identity.ErrNotConfigured)
		return
	}
	sess, err := s.state.Identity.SignIn(c.Request.Context(), form)
	if err != nil {
		s.formError(c, "login", loginView(next, form), err)
		return
	}
	if err := s.auth.Begin(c, sess); err != nil {
		s.fail(c, fmt.Errorf("failed to start session: %w", err))
		return
	}
	logger.FromContext(c.Request.Context()).Info("User signed in", "user_id", sess.User.ID, "role", sess.User.Role())
	s.flash(c, session.FlashSuccess, "Welcome back, "+sess.User.DisplayName()+"!")
	target := safeNext(next)
	if target == "/" && sess.User.IsAdmin() {
		target = adminBase
	}
	redirect(c, target)
}

func (s *Server) signupForm(c *gin.Context) {
	if auth.SessionFrom(c).SignedIn() {
		redirect(c, "/")
		return
	}
	v := View{Title: "Create Account", Form: resource.SignupForm{}}
	if !s.state.SignInEnabled() {
		s.formError(c, "signup", v, identity.ErrNotConfigured)
		return
	}
	s.render(c, http.StatusOK, "signup", v)
}

func (s *Server) signup(c *gin.Context) {
	var form resource.SignupForm
	_ = c.ShouldBind(&form)
	v := View{Title: "Create Account", Form: resource.SignupForm{FullName: form.FullName, Email: form.Email}}
	if !s.state.SignInEnabled() {
		s.formError(c, "signup", v, identity.ErrNotConfigured)
		return
	}
	sess, err := s.state.Identity.SignUp(c.Request.Context(), form)
	if err != nil {
		s.formError(c, "signup", v, err)
		return
	}
	if !sess.Active() {
		s.flash(c, session.FlashInfo, signupConfirmMessage)
		redirect(c, auth.LoginPath)
		return
	}
	if err := s.auth.Begin(c, sess); err != nil {
		s.fail(c, fmt.Errorf("failed to start session: %w", err))
		return
	}
	s.flash(c, session.FlashSuccess, "Welcome to Focitech, "+sess.User.DisplayName()+"!")
	redirect(c, "/profile")
}

// logout revokes the tokens upstream when possible and always forgets the
// local session.
func (s *Server) logout(c *gin.Context) {
	data := auth.SessionFrom(c)
	log := logger.FromContext(c.Request.Context())
	if s.state.Identity != nil && data.AccessToken != "" {
		if err := s.state.Identity.SignOut(c.Request.Context(), data.AccessToken); err != nil {
			log.Warn("Failed to revoke session upstream", "error", err)
		}
	}
	if err := s.auth.End(c); err != nil {
		log.Warn("Failed to end session", "error", err)
	}
	s.flash(c, session.FlashInfo, signedOutMessage)
	redirect(c, "/")
}

func (s *Server) profileView(user *identity.User, form resource.ProfileForm) View {
	return View{Title: "My Profile", Form: form, Data: gin.H{"Account": user}}
}

func (s *Server) profile(c *gin.Context) {
	user := auth.SessionFrom(c).User
	s.render(c, http.StatusOK, "profile", s.profileView(user, resource.ProfileForm{
		FullName:  user.FullName(),
		Location:  user.Location(),
		Education: user.Education(),
	}))
}

func (s *Server) updateProfile(c *gin.Context) {
	data := auth.SessionFrom(c)
	var form resource.ProfileForm
	_ = c.ShouldBind(&form)
	v := s.profileView(data.User, form)
	if err := resource.Validate(&form); err != nil {
		s.formError(c, "profile", v, err)
		return
	}
	if !s.state.SignInEnabled() {
		s.formError(c, "profile", v, identity.ErrNotConfigured)
		return
	}
	ctx := c.Request.Context()
	token, err := auth.TokensFrom(c).Token(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	user, err := s.state.Identity.UpdateUser(ctx, token, identity.ProfileData(form))
	if err != nil {
		s.formError(c, "profile", v, err)
		return
	}
	data.User = user
	s.flash(c, session.FlashSuccess, profileSavedMessage)
	redirect(c, "/profile")
}
