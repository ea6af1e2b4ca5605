// Package stats computes the admin dashboard figures.
package stats

import (
	"context"
	"fmt"
	"strings"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/resource"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

// Tile is one figure on the dashboard.
type Tile struct {
	Label string
	Value int
	Href  string
	Tone  string
}

// Overview holds the collections behind the main dashboard.
type Overview struct {
	Inquiries []resource.Inquiry
	Projects  []resource.Project
	Team      []resource.TeamMember
}

// Tiles returns Projects, Pending Leads and Team.
func (o *Overview) Tiles() []Tile {
	pending := 0
	for _, i := range o.Inquiries {
		if i.Status == resource.InquiryPending {
			pending++
		}
	}
	return []Tile{
		{Label: "Projects", Value: len(o.Projects), Href: "/admin/projects", Tone: "blue"},
		{Label: "Pending Leads", Value: pending, Href: "/admin/inquiries", Tone: "amber"},
		{Label: "Team", Value: len(o.Team), Href: "/admin/team", Tone: "indigo"},
	}
}

// LoadOverview fetches inquiries, projects and team in parallel. The first
// failure cancels the other calls.
func LoadOverview(ctx context.Context, client *api.Client) (*Overview, error) {
	var o Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		o.Inquiries, err = client.Inquiries().List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		o.Projects, err = client.Projects().List(gctx, api.ProjectFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		o.Team, err = client.Team().List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return &o, nil
}

// Careers holds openings and applications for the careers dashboard.
type Careers struct {
	Openings     []resource.JobOpening
	Applications []resource.Application
}

// Tiles returns Active Jobs, Total Applications, Pending Review and
// Shortlisted.
func (c *Careers) Tiles() []Tile {
	active := 0
	for _, o := range c.Openings {
		if o.IsActive {
			active++
		}
	}
	counts := StatusCounts(c.Applications)
	return []Tile{
		{Label: "Active Jobs", Value: active, Href: "/admin/openings", Tone: "blue"},
		{Label: "Total Applications", Value: len(c.Applications), Href: "/admin/applications", Tone: "indigo"},
		{
			Label: "Pending Review",
			Value: counts[resource.ApplicationPending],
			Href:  "/admin/applications?status=pending",
			Tone:  "amber",
		},
		{
			Label: "Shortlisted",
			Value: counts[resource.ApplicationShortlisted],
			Href:  "/admin/applications?status=shortlisted",
			Tone:  "emerald",
		},
	}
}

// LoadCareers fetches openings and applications in parallel.
func LoadCareers(ctx context.Context, client *api.Client) (*Careers, error) {
	var c Careers
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		c.Openings, err = client.Careers().ListOpenings(gctx, api.OpeningFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		c.Applications, err = client.Careers().ListApplications(gctx, api.ApplicationFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load careers: %w", err)
	}
	return &c, nil
}

// StatusCounts tallies applications per status.
func StatusCounts(apps []resource.Application) map[resource.ApplicationStatus]int {
	out := make(map[resource.ApplicationStatus]int, len(resource.ApplicationStatuses))
	for _, a := range apps {
		out[a.Status]++
	}
	return out
}

// FilterApplications keeps applications with the given status (empty or
// "all" keeps every status) whose name, email or job title contains query.
func FilterApplications(apps []resource.Application, query string, status resource.ApplicationStatus) []resource.Application {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))
	out := make([]resource.Application, 0, len(apps))
	for _, a := range apps {
		if status != "" && status != "all" && a.Status != status {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(a.Name), needle) &&
			!strings.Contains(fold.String(a.Email), needle) &&
			!strings.Contains(fold.String(a.JobTitle), needle) {
			continue
		}
		out = append(out, a)
	}
	return out
}
