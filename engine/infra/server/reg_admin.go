package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/infra/server/middleware/auth"
	"github.com/focitech/focitech/engine/infra/server/router"
	"github.com/focitech/focitech/engine/listview"
	"github.com/focitech/focitech/engine/resource"
	"github.com/focitech/focitech/engine/session"
	"github.com/focitech/focitech/engine/stats"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const adminBase = "/admin"

func setupAdminRoutes(r *gin.Engine, s *Server) {
	admin := r.Group(adminBase, s.auth.RequireAuth(), s.auth.RequireAdmin(s.forbidden))
	admin.GET("", s.dashboard)
	inquiryScreen().register(admin, s)
	projectScreen().register(admin, s)
	teamScreen().register(admin, s)
	openingScreen().register(admin, s)
	applicationScreen().register(admin, s)

	admin.GET("/inquiries/:id", s.inquiryDetail)
	admin.POST("/inquiries/:id/status", s.inquiryStatus)
	admin.GET("/applications/:id", s.applicationDetail)
	admin.POST("/applications/:id/status", s.applicationStatus)

	admin.GET("/projects/new", s.projectNew)
	admin.POST("/projects", s.projectCreate)
	admin.GET("/projects/:id/edit", s.projectEdit)
	admin.POST("/projects/:id", s.projectUpdate)

	admin.GET("/team/new", s.teamNew)
	admin.POST("/team", s.teamCreate)
	admin.GET("/team/:id/edit", s.teamEdit)
	admin.POST("/team/:id", s.teamUpdate)

	admin.GET("/openings/new", s.openingNew)
	admin.POST("/openings", s.openingCreate)
}

func (s *Server) forbidden(c *gin.Context) {
	s.render(c, http.StatusForbidden, "error", View{
		Title: "Access denied",
		Error: "You do not have permission to view this page.",
		Data:  gin.H{"Status": http.StatusForbidden},
	})
}

func adminOptions(empty string) listview.Options {
	opts := listview.DefaultOptions()
	opts.Selectable = true
	opts.EmptyMessage = empty
	return opts
}

func idURL(prefix string, id string, suffix string) string {
	return adminBase + prefix + id + suffix
}

func dateCell[R listview.Record]() listview.Renderer[R] {
	return listview.Custom(func(value any, _ R, _ int) listview.Cell {
		t, ok := value.(time.Time)
		if !ok || t.IsZero() {
			return listview.Text("-")
		}
		return listview.Text(t.Format("Jan 2, 2006"))
	})
}

func badgeCell[R listview.Record]() listview.Renderer[R] {
	return listview.Custom(func(value any, _ R, _ int) listview.Cell {
		raw, _ := listview.Stringify(value)
		if raw == "" {
			return listview.Text("-")
		}
		return listview.Cell{Text: resource.Label(raw), Class: "badge badge-" + raw}
	})
}

func inquiryScreen() *screen[resource.Inquiry] {
	statuses := make([]string, len(resource.InquiryStatuses))
	for i, st := range resource.InquiryStatuses {
		statuses[i] = string(st)
	}
	return &screen[resource.Inquiry]{
		key:      "inquiries",
		title:    "Inquiries",
		singular: "inquiry",
		columns: []listview.Column[resource.Inquiry]{
			listview.Col[resource.Inquiry]("name", "Name"),
			{Key: "email", Label: "Email", Render: listview.Custom(func(v any, _ resource.Inquiry, _ int) listview.Cell {
				email, _ := v.(string)
				return listview.Cell{Text: email, Href: "mailto:" + email}
			})},
			listview.Col[resource.Inquiry]("subject", "Subject"),
			{Key: "status", Label: "Status", Render: badgeCell[resource.Inquiry]()},
			{Key: "created_at", Label: "Received", Render: dateCell[resource.Inquiry]()},
		},
		options: adminOptions("No inquiries yet."),
		filter:  &screenFilter{Param: "status", Label: "Status", Values: statuses},
		load: func(ctx context.Context, client *api.Client, filter string) ([]resource.Inquiry, error) {
			all, err := client.Inquiries().List(ctx)
			if err != nil || filter == "" {
				return all, err
			}
			out := make([]resource.Inquiry, 0, len(all))
			for _, i := range all {
				if string(i.Status) == filter {
					out = append(out, i)
				}
			}
			return out, nil
		},
		remove: func(ctx context.Context, client *api.Client, id int) error {
			return client.Inquiries().Delete(ctx, id)
		},
		viewURL: func(i resource.Inquiry) string { return idURL("/inquiries/", i.RowID(), "") },
	}
}

func projectScreen() *screen[resource.Project] {
	return &screen[resource.Project]{
		key:      "projects",
		title:    "Projects",
		singular: "project",
		columns: []listview.Column[resource.Project]{
			listview.Col[resource.Project]("title", "Title"),
			{Key: "tech_stack", Label: "Tech Stack", Render: listview.Custom(func(_ any, p resource.Project, _ int) listview.Cell {
				if len(p.TechStack) == 0 {
					return listview.Text("-")
				}
				return listview.Text(strings.Join(p.TechStack, ", "))
			})},
			{Key: "is_featured", Label: "Featured", Render: listview.Custom(func(v any, _ resource.Project, _ int) listview.Cell {
				if f, _ := v.(bool); f {
					return listview.Cell{Text: "Featured", Class: "badge badge-featured"}
				}
				return listview.Text("-")
			})},
			{Key: "created_at", Label: "Created", Render: dateCell[resource.Project]()},
		},
		options: adminOptions("No projects yet."),
		newURL:  adminBase + "/projects/new",
		load: func(ctx context.Context, client *api.Client, _ string) ([]resource.Project, error) {
			return client.Projects().List(ctx, api.ProjectFilter{})
		},
		remove: func(ctx context.Context, client *api.Client, id int) error {
			return client.Projects().Delete(ctx, id)
		},
		viewURL: func(p resource.Project) string { return p.Permalink() },
		editURL: func(p resource.Project) string { return idURL("/projects/", p.RowID(), "/edit") },
		scopes:  []string{scopeProjects},
	}
}

func teamScreen() *screen[resource.TeamMember] {
	return &screen[resource.TeamMember]{
		key:      "team",
		title:    "Team",
		singular: "team member",
		columns: []listview.Column[resource.TeamMember]{
			listview.Col[resource.TeamMember]("name", "Name"),
			listview.Col[resource.TeamMember]("role", "Role"),
			{Key: "linkedin_url", Label: "LinkedIn", Render: listview.Custom(func(v any, _ resource.TeamMember, _ int) listview.Cell {
				link, _ := v.(string)
				if link == "" {
					return listview.Text("-")
				}
				return listview.Cell{Text: "Profile", Href: link}
			})},
		},
		options: adminOptions("No team members yet."),
		newURL:  adminBase + "/team/new",
		load: func(ctx context.Context, client *api.Client, _ string) ([]resource.TeamMember, error) {
			return client.Team().List(ctx)
		},
		remove: func(ctx context.Context, client *api.Client, id int) error {
			return client.Team().Delete(ctx, id)
		},
		viewURL: func(m resource.TeamMember) string { return "/team#member-" + m.RowID() },
		editURL: func(m resource.TeamMember) string { return idURL("/team/", m.RowID(), "/edit") },
		scopes:  []string{scopeTeam},
	}
}

func openingScreen() *screen[resource.JobOpening] {
	return &screen[resource.JobOpening]{
		key:      "openings",
		title:    "Openings",
		singular: "opening",
		columns: []listview.Column[resource.JobOpening]{
			listview.Col[resource.JobOpening]("title", "Title"),
			listview.Col[resource.JobOpening]("department", "Department"),
			listview.Col[resource.JobOpening]("location", "Location"),
			{Key: "job_type", Label: "Type", Render: badgeCell[resource.JobOpening]()},
			{Key: "is_active", Label: "Status", Render: listview.Custom(func(v any, _ resource.JobOpening, _ int) listview.Cell {
				if active, _ := v.(bool); active {
					return listview.Cell{Text: "Active", Class: "badge badge-active"}
				}
				return listview.Cell{Text: "Closed", Class: "badge badge-closed"}
			})},
			{Key: "posted_date", Label: "Posted", Render: dateCell[resource.JobOpening]()},
		},
		options: adminOptions("No openings yet."),
		newURL:  adminBase + "/openings/new",
		load: func(ctx context.Context, client *api.Client, _ string) ([]resource.JobOpening, error) {
			return client.Careers().ListOpenings(ctx, api.OpeningFilter{})
		},
		remove: func(ctx context.Context, client *api.Client, id int) error {
			return client.Careers().DeleteOpening(ctx, id)
		},
		viewURL: func(o resource.JobOpening) string { return "/careers#opening-" + o.RowID() },
		scopes:  []string{scopeOpenings},
	}
}

func applicationScreen() *screen[resource.Application] {
	statuses := make([]string, len(resource.ApplicationStatuses))
	for i, st := range resource.ApplicationStatuses {
		statuses[i] = string(st)
	}
	return &screen[resource.Application]{
		key:      "applications",
		title:    "Applications",
		singular: "application",
		columns: []listview.Column[resource.Application]{
			listview.Col[resource.Application]("name", "Candidate"),
			listview.Col[resource.Application]("email", "Email"),
			listview.Col[resource.Application]("job_title", "Position"),
			{Key: "status", Label: "Status", Render: badgeCell[resource.Application]()},
			{Key: "applied_at", Label: "Applied", Render: dateCell[resource.Application]()},
		},
		options: adminOptions("No applications yet."),
		filter:  &screenFilter{Param: "status", Label: "Status", Values: statuses},
		load: func(ctx context.Context, client *api.Client, filter string) ([]resource.Application, error) {
			return client.Careers().ListApplications(ctx, api.ApplicationFilter{
				Status: resource.ApplicationStatus(filter),
			})
		},
		remove: func(ctx context.Context, client *api.Client, id int) error {
			return client.Careers().DeleteApplication(ctx, id)
		},
		viewURL: func(a resource.Application) string { return idURL("/applications/", a.RowID(), "") },
	}
}

func (s *Server) dashboard(c *gin.Context) {
	client := auth.ClientFrom(c)
	var (
		overview *stats.Overview
		careers  *stats.Careers
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		overview, err = stats.LoadOverview(ctx, client)
		return err
	})
	g.Go(func() (err error) {
		careers, err = stats.LoadCareers(ctx, client)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(c, err)
		return
	}
	recent := overview.Inquiries[:min(5, len(overview.Inquiries))]
	s.render(c, http.StatusOK, "admin/dashboard", View{
		Title: "Dashboard",
		Data: gin.H{
			"Tiles":       overview.Tiles(),
			"CareerTiles": careers.Tiles(),
			"Recent":      recent,
		},
	})
}

func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	return id, err == nil && id > 0
}

func (s *Server) inquiryDetail(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		s.notFound(c)
		return
	}
	all, err := auth.ClientFrom(c).Inquiries().List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	for _, i := range all {
		if i.ID == id {
			s.render(c, http.StatusOK, "admin/inquiry", View{
				Title: i.Subject,
				Data:  gin.H{"Inquiry": i, "Statuses": resource.InquiryStatuses},
			})
			return
		}
	}
	s.notFound(c)
}

func (s *Server) inquiryStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		s.notFound(c)
		return
	}
	status := resource.InquiryStatus(c.PostForm("status"))
	back := idURL("/inquiries/", strconv.Itoa(id), "")
	if _, err := auth.ClientFrom(c).Inquiries().UpdateStatus(c.Request.Context(), id, status); err != nil {
		s.flash(c, session.FlashError, router.Message(err))
		redirect(c, back)
		return
	}
	s.flash(c, session.FlashSuccess, "Inquiry marked as "+status.Label()+".")
	redirect(c, back)
}

func (s *Server) applicationDetail(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		s.notFound(c)
		return
	}
	all, err := auth.ClientFrom(c).Careers().ListApplications(c.Request.Context(), api.ApplicationFilter{})
	if err != nil {
		s.fail(c, err)
		return
	}
	for _, a := range all {
		if a.ID == id {
			s.render(c, http.StatusOK, "admin/application", View{
				Title: a.Name,
				Data:  gin.H{"Application": a, "Statuses": resource.ApplicationStatuses},
			})
			return
		}
	}
	s.notFound(c)
}

func (s *Server) applicationStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		s.notFound(c)
		return
	}
	status := resource.ApplicationStatus(c.PostForm("status"))
	back := idURL("/applications/", strconv.Itoa(id), "")
	if _, err := auth.ClientFrom(c).Careers().UpdateApplicationStatus(c.Request.Context(), id, status); err != nil {
		s.flash(c, session.FlashError, router.Message(err))
		redirect(c, back)
		return
	}
	s.flash(c, session.FlashSuccess, "Application moved to "+status.Label()+".")
	redirect(c, back)
}
