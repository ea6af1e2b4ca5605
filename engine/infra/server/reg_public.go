package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/infra/cache"
	"github.com/focitech/focitech/engine/infra/server/middleware/auth"
	"github.com/focitech/focitech/engine/infra/server/middleware/ratelimit"
	"github.com/focitech/focitech/engine/infra/server/middleware/size"
	"github.com/focitech/focitech/engine/resource"
	"github.com/focitech/focitech/engine/session"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Cache scopes for public listings. Admin writes invalidate them.
const (
	scopeProjects = "projects"
	scopeOpenings = "openings"
	scopeTeam     = "team"
)

const (
	featuredCount  = 3
	homeOpenings   = 3
	contactMaxBody = 64 << 10
)

const (
	contactThanks = "Thank you for reaching out! We'll get back to you within 24 hours."
	applyThanks   = "Application submitted successfully! We'll review it and get back to you soon."
)

func (s *Server) registerPublic(r *gin.Engine, limits *ratelimit.Manager) {
	r.GET("/", s.home)
	r.GET("/projects", s.projects)
	r.GET("/projects/:slug", s.project)
	r.GET("/team", s.team)
	r.GET("/careers", s.careers)
	r.GET("/careers/:id/apply", s.applyForm)
	r.POST("/careers/:id/apply",
		limits.Middleware(ratelimit.RouteApply),
		size.UploadLimit(s.resumeLimit()),
		s.apply,
	)
	r.GET("/contact", s.contactForm)
	r.POST("/contact",
		limits.Middleware(ratelimit.RouteContact),
		size.BodySizeLimiter(contactMaxBody),
		s.contact,
	)
	r.GET("/businesses", s.static("businesses", "Our Businesses"))
	r.GET("/testimonials", s.static("testimonials", "Testimonials"))
	r.GET("/privacy", s.static("privacy", "Privacy Policy"))
	r.GET("/terms", s.static("terms", "Terms of Service"))
}

func (s *Server) resumeLimit() int64 {
	if n := s.state.Config.Uploads.MaxResumeBytes; n > 0 {
		return n
	}
	return resource.MaxResumeBytes
}

func (s *Server) publicProjects(ctx context.Context) ([]resource.Project, error) {
	return cache.Remember(ctx, s.state.Cache, scopeProjects, "all", func(ctx context.Context) ([]resource.Project, error) {
		return s.state.API.Projects().List(ctx, api.ProjectFilter{})
	})
}

func (s *Server) publicOpenings(ctx context.Context) ([]resource.JobOpening, error) {
	return cache.Remember(ctx, s.state.Cache, scopeOpenings, "all", func(ctx context.Context) ([]resource.JobOpening, error) {
		return s.state.API.Careers().ListOpenings(ctx, api.OpeningFilter{})
	})
}

func (s *Server) publicTeam(ctx context.Context) ([]resource.TeamMember, error) {
	return cache.Remember(ctx, s.state.Cache, scopeTeam, "all", s.state.Team.ListTeam)
}

func (s *Server) home(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		projects []resource.Project
		openings []resource.JobOpening
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		projects, err = s.publicProjects(gctx)
		return err
	})
	g.Go(func() (err error) {
		openings, err = s.publicOpenings(gctx)
		return err
	})
	v := View{Title: "Focitech | Software Engineering Agency"}
	if err := g.Wait(); err != nil {
		// the landing page still renders its static sections
		logger.FromContext(ctx).Warn("Failed to load home listings", "error", err)
		v.Error = api.UserMessage(err)
	}
	active := resource.FilterOpenings(openings, resource.OpeningFilter{})
	v.Data = gin.H{
		"Featured": resource.Featured(projects, featuredCount),
		"Openings": active[:min(homeOpenings, len(active))],
	}
	s.render(c, http.StatusOK, "home", v)
}

func (s *Server) projects(c *gin.Context) {
	projects, err := s.publicProjects(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	tech := c.DefaultQuery("tech", resource.AllTech)
	query := strings.TrimSpace(c.Query("q"))
	s.render(c, http.StatusOK, "projects", View{
		Title: "Our Work",
		Data: gin.H{
			"Projects":   resource.FilterProjects(projects, tech, query),
			"Categories": resource.TechCategories,
			"Tech":       tech,
			"Query":      query,
		},
	})
}

// project serves /projects/{id}-{slug}. Outdated or missing slugs redirect
// to the canonical permalink.
func (s *Server) project(c *gin.Context) {
	raw := c.Param("slug")
	idPart, _, _ := strings.Cut(raw, "-")
	id, err := strconv.Atoi(idPart)
	if err != nil || id <= 0 {
		s.notFound(c)
		return
	}
	ctx := c.Request.Context()
	p, err := cache.Remember(ctx, s.state.Cache, scopeProjects, "id:"+idPart,
		func(ctx context.Context) (*resource.Project, error) {
			return s.state.API.Projects().Get(ctx, id)
		})
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			s.notFound(c)
			return
		}
		s.fail(c, err)
		return
	}
	if link := p.Permalink(); "/projects/"+raw != link {
		c.Redirect(http.StatusMovedPermanently, link)
		return
	}
	s.render(c, http.StatusOK, "project", View{Title: p.Title, Data: p})
}

func (s *Server) team(c *gin.Context) {
	members, err := s.publicTeam(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.render(c, http.StatusOK, "team", View{Title: "Our Team", Data: gin.H{"Members": members}})
}

func (s *Server) careers(c *gin.Context) {
	openings, err := s.publicOpenings(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	filter := resource.OpeningFilter{
		Department: strings.TrimSpace(c.Query("department")),
		Location:   strings.TrimSpace(c.Query("location")),
		JobType:    resource.JobType(strings.TrimSpace(c.Query("job_type"))),
	}
	s.render(c, http.StatusOK, "careers", View{
		Title: "Careers",
		Data: gin.H{
			"Openings":    resource.FilterOpenings(openings, filter),
			"Departments": resource.Departments(openings),
			"JobTypes":    resource.JobTypes,
			"Filter":      filter,
		},
	})
}

// opening finds the active opening named by the :id parameter.
func (s *Server) opening(c *gin.Context) (*resource.JobOpening, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		s.notFound(c)
		return nil, false
	}
	openings, err := s.publicOpenings(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	for _, o := range openings {
		if o.ID == id && o.IsActive {
			return &o, true
		}
	}
	s.notFound(c)
	return nil, false
}

func applyView(o *resource.JobOpening, form resource.ApplicationForm) View {
	return View{
		Title: "Apply for " + o.Title,
		Form:  form,
		Data:  gin.H{"Opening": o},
	}
}

func (s *Server) applyForm(c *gin.Context) {
	o, ok := s.opening(c)
	if !ok {
		return
	}
	s.render(c, http.StatusOK, "apply", applyView(o, resource.ApplicationForm{JobID: o.ID, JobTitle: o.Title}))
}

func (s *Server) apply(c *gin.Context) {
	o, ok := s.opening(c)
	if !ok {
		return
	}
	var form resource.ApplicationForm
	if err := c.ShouldBind(&form); err != nil {
		if size.IsTooLarge(err) {
			err = fieldError("resume", resource.ErrFileTooLarge.Error())
		}
		s.formError(c, "apply", applyView(o, form), err)
		return
	}
	form.JobID = o.ID
	form.JobTitle = o.Title
	form.ResumeLimit = s.resumeLimit()
	if fh, err := c.FormFile("resume"); err == nil {
		upload, err := readUpload(fh, form.ResumeLimit)
		if err != nil {
			s.formError(c, "apply", applyView(o, form), err)
			return
		}
		form.Resume = upload
	}
	if _, err := auth.ClientFrom(c).Careers().Apply(c.Request.Context(), form); err != nil {
		s.formError(c, "apply", applyView(o, form), err)
		return
	}
	s.flash(c, session.FlashSuccess, applyThanks)
	redirect(c, "/careers")
}

// readUpload loads a file part into memory. Oversized parts are returned
// without data so validation reports the size.
func readUpload(fh *multipart.FileHeader, limit int64) (*resource.Upload, error) {
	u := &resource.Upload{Filename: fh.Filename, Size: fh.Size}
	if fh.Size > limit {
		return u, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	u.Data = data
	return u, nil
}

func fieldError(field, msg string) error {
	return &resource.ValidationError{Fields: []resource.FieldError{{Field: field, Message: msg}}}
}

func (s *Server) contactForm(c *gin.Context) {
	s.render(c, http.StatusOK, "contact", View{
		Title: "Contact Us",
		Form:  resource.ContactForm{Subject: resource.DefaultContactSubject},
	})
}

func (s *Server) contact(c *gin.Context) {
	var form resource.ContactForm
	v := View{Title: "Contact Us"}
	if err := c.ShouldBind(&form); err != nil {
		v.Form = form
		s.formError(c, "contact", v, fmt.Errorf("failed to read contact form: %w", err))
		return
	}
	v.Form = form
	if _, err := auth.ClientFrom(c).Inquiries().Create(c.Request.Context(), form); err != nil {
		s.formError(c, "contact", v, err)
		return
	}
	s.flash(c, session.FlashSuccess, contactThanks)
	redirect(c, "/contact")
}

func (s *Server) static(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.render(c, http.StatusOK, name, View{Title: title})
	}
}
