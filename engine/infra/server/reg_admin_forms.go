package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/infra/server/middleware/auth"
	"github.com/focitech/focitech/engine/resource"
	"github.com/focitech/focitech/engine/session"
	"github.com/gin-gonic/gin"
)

// formPage describes an admin create or edit form.
type formPage struct {
	Heading string
	Action  string
	Cancel  string
	Submit  string
}

func formView(title string, page formPage, form any) View {
	return View{Title: title, Form: form, Data: page}
}

// loadForEdit fetches the record behind :id, rendering not found or the
// error page itself when it fails.
func loadForEdit[T any](s *Server, c *gin.Context, get func(id int) (*T, error)) (*T, int, bool) {
	id, ok := paramID(c)
	if !ok {
		s.notFound(c)
		return nil, 0, false
	}
	rec, err := get(id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			s.notFound(c)
			return nil, 0, false
		}
		s.fail(c, err)
		return nil, 0, false
	}
	return rec, id, true
}

func projectPage(id int) formPage {
	if id == 0 {
		return formPage{Heading: "New Project", Action: adminBase + "/projects", Cancel: adminBase + "/projects", Submit: "Create Project"}
	}
	return formPage{
		Heading: "Edit Project",
		Action:  adminBase + "/projects/" + strconv.Itoa(id),
		Cancel:  adminBase + "/projects",
		Submit:  "Save Changes",
	}
}

func (s *Server) projectNew(c *gin.Context) {
	s.render(c, http.StatusOK, "admin/project_form", formView("New Project", projectPage(0), resource.ProjectForm{}))
}

func (s *Server) projectCreate(c *gin.Context) {
	var form resource.ProjectForm
	_ = c.ShouldBind(&form)
	if _, err := auth.ClientFrom(c).Projects().Create(c.Request.Context(), form); err != nil {
		s.formError(c, "admin/project_form", formView("New Project", projectPage(0), form), err)
		return
	}
	s.state.Cache.Invalidate(scopeProjects)
	s.flash(c, session.FlashSuccess, "Project created.")
	redirect(c, adminBase+"/projects")
}

func (s *Server) projectEdit(c *gin.Context) {
	ctx := c.Request.Context()
	p, id, ok := loadForEdit(s, c, func(id int) (*resource.Project, error) {
		return auth.ClientFrom(c).Projects().Get(ctx, id)
	})
	if !ok {
		return
	}
	s.render(c, http.StatusOK, "admin/project_form",
		formView("Edit Project", projectPage(id), resource.ProjectFormFrom(*p)))
}

func (s *Server) projectUpdate(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		s.notFound(c)
		return
	}
	var form resource.ProjectForm
	_ = c.ShouldBind(&form)
	if _, err := auth.ClientFrom(c).Projects().Update(c.Request.Context(), id, form); err != nil {
		s.formError(c, "admin/project_form", formView("Edit Project", projectPage(id), form), err)
		return
	}
	s.state.Cache.Invalidate(scopeProjects)
	s.flash(c, session.FlashSuccess, "Project updated.")
	redirect(c, adminBase+"/projects")
}

func teamPage(id int) formPage {
	if id == 0 {
		return formPage{Heading: "New Team Member", Action: adminBase + "/team", Cancel: adminBase + "/team", Submit: "Add Member"}
	}
	return formPage{
		Heading: "Edit Team Member",
		Action:  adminBase + "/team/" + strconv.Itoa(id),
		Cancel:  adminBase + "/team",
		Submit:  "Save Changes",
	}
}

func (s *Server) teamNew(c *gin.Context) {
	s.render(c, http.StatusOK, "admin/team_form", formView("New Team Member", teamPage(0), resource.TeamForm{}))
}

func (s *Server) teamCreate(c *gin.Context) {
	var form resource.TeamForm
	_ = c.ShouldBind(&form)
	if _, err := auth.ClientFrom(c).Team().Create(c.Request.Context(), form); err != nil {
		s.formError(c, "admin/team_form", formView("New Team Member", teamPage(0), form), err)
		return
	}
	s.state.Cache.Invalidate(scopeTeam)
	s.flash(c, session.FlashSuccess, "Team member added.")
	redirect(c, adminBase+"/team")
}

func (s *Server) teamEdit(c *gin.Context) {
	ctx := c.Request.Context()
	m, id, ok := loadForEdit(s, c, func(id int) (*resource.TeamMember, error) {
		return auth.ClientFrom(c).Team().Get(ctx, id)
	})
	if !ok {
		return
	}
	s.render(c, http.StatusOK, "admin/team_form",
		formView("Edit Team Member", teamPage(id), resource.TeamFormFrom(*m)))
}

func (s *Server) teamUpdate(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		s.notFound(c)
		return
	}
	var form resource.TeamForm
	_ = c.ShouldBind(&form)
	if _, err := auth.ClientFrom(c).Team().Update(c.Request.Context(), id, form); err != nil {
		s.formError(c, "admin/team_form", formView("Edit Team Member", teamPage(id), form), err)
		return
	}
	s.state.Cache.Invalidate(scopeTeam)
	s.flash(c, session.FlashSuccess, "Team member updated.")
	redirect(c, adminBase+"/team")
}

func openingView(form resource.OpeningForm) View {
	v := formView("New Opening", formPage{
		Heading: "New Opening",
		Action:  adminBase + "/openings",
		Cancel:  adminBase + "/openings",
		Submit:  "Publish Opening",
	}, form)
	v.Data = gin.H{"Page": v.Data, "JobTypes": resource.JobTypes}
	return v
}

func (s *Server) openingNew(c *gin.Context) {
	s.render(c, http.StatusOK, "admin/opening_form", openingView(resource.OpeningForm{
		JobType:  resource.JobFullTime,
		IsActive: true,
	}))
}

func (s *Server) openingCreate(c *gin.Context) {
	var form resource.OpeningForm
	_ = c.ShouldBind(&form)
	if _, err := auth.ClientFrom(c).Careers().CreateOpening(c.Request.Context(), form); err != nil {
		s.formError(c, "admin/opening_form", openingView(form), err)
		return
	}
	s.state.Cache.Invalidate(scopeOpenings)
	s.flash(c, session.FlashSuccess, "Opening published.")
	redirect(c, adminBase+"/openings")
}
