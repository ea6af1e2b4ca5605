package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/focitech/focitech/cli/tui/components"
	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/fetch"
	"github.com/focitech/focitech/engine/listview"
	"github.com/focitech/focitech/engine/resource"
)

const pageSize = 15

// pane is one console tab. The generic table is hidden behind it so the
// model can hold tabs of different record types.
type pane interface {
	Name() string
	Searching() bool
	SetSize(width, height int)
	SetLoading(loading bool)
	Update(msg tea.Msg) tea.Cmd
	View() string
	load(ctx context.Context, client *api.Client, latest *fetch.Latest) tea.Cmd
	loaded(msg loadedMsg)
	remove(ctx context.Context, client *api.Client, ids []string) tea.Cmd
}

type loadedMsg struct {
	table string
	rows  any
	err   error
}

type deletedMsg struct {
	table   string
	deleted int
	err     error
}

type tab[R listview.Record] struct {
	*components.ListTable[R]
	fetchRows  func(ctx context.Context, client *api.Client) ([]R, error)
	removeByID func(ctx context.Context, client *api.Client, id int) error
}

func newTab[R listview.Record](
	name string,
	columns []listview.Column[R],
	fetchRows func(context.Context, *api.Client) ([]R, error),
	removeByID func(context.Context, *api.Client, int) error,
) (*tab[R], error) {
	opts := listview.DefaultOptions()
	opts.PageSize = pageSize
	opts.EmptyMessage = "No " + strings.ToLower(name) + " yet."
	lt, err := components.NewListTable(name, columns, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s table: %w", name, err)
	}
	return &tab[R]{ListTable: lt, fetchRows: fetchRows, removeByID: removeByID}, nil
}

// load fetches through the latest-wins coordinator, so a second refresh
// cancels the first and a stale result never reaches the table.
func (t *tab[R]) load(ctx context.Context, client *api.Client, latest *fetch.Latest) tea.Cmd {
	name := t.Name()
	key := fetch.Key("console", name, nil)
	return func() tea.Msg {
		rows, err := fetch.Run(ctx, latest, key, func(ctx context.Context) ([]R, error) {
			return t.fetchRows(ctx, client)
		})
		if errors.Is(err, fetch.ErrStale) {
			return nil
		}
		return loadedMsg{table: name, rows: rows, err: err}
	}
}

func (t *tab[R]) loaded(msg loadedMsg) {
	if msg.err != nil {
		t.SetLoading(false)
		return
	}
	rows, _ := msg.rows.([]R)
	t.SetData(rows)
}

// remove deletes ids one by one and stops at the first failure.
func (t *tab[R]) remove(ctx context.Context, client *api.Client, ids []string) tea.Cmd {
	name := t.Name()
	return func() tea.Msg {
		deleted := 0
		for _, raw := range ids {
			id, err := strconv.Atoi(raw)
			if err != nil {
				return deletedMsg{table: name, deleted: deleted, err: fmt.Errorf("invalid id %q", raw)}
			}
			if err := t.removeByID(ctx, client, id); err != nil {
				return deletedMsg{table: name, deleted: deleted, err: err}
			}
			deleted++
		}
		return deletedMsg{table: name, deleted: deleted}
	}
}

func dateCell[R listview.Record]() listview.Renderer[R] {
	return listview.Custom(func(v any, _ R, _ int) listview.Cell {
		if ts, ok := v.(time.Time); ok && !ts.IsZero() {
			return listview.Text(ts.Format(time.DateOnly))
		}
		return listview.Text("-")
	})
}

func labelCell[R listview.Record]() listview.Renderer[R] {
	return listview.Custom(func(v any, _ R, _ int) listview.Cell {
		s, _ := listview.Stringify(v)
		return listview.Text(resource.Label(s))
	})
}

func defaultPanes() ([]pane, error) {
	inquiries, err := newTab("Inquiries",
		[]listview.Column[resource.Inquiry]{
			listview.Col[resource.Inquiry]("name", "Name"),
			listview.Col[resource.Inquiry]("email", "Email"),
			listview.Col[resource.Inquiry]("subject", "Subject"),
			{Key: "status", Label: "Status", Render: labelCell[resource.Inquiry]()},
			{Key: "created_at", Label: "Received", Render: dateCell[resource.Inquiry]()},
		},
		func(ctx context.Context, c *api.Client) ([]resource.Inquiry, error) {
			return c.Inquiries().List(ctx)
		},
		func(ctx context.Context, c *api.Client, id int) error { return c.Inquiries().Delete(ctx, id) },
	)
	if err != nil {
		return nil, err
	}
	projects, err := newTab("Projects",
		[]listview.Column[resource.Project]{
			listview.Col[resource.Project]("title", "Title"),
			listview.Col[resource.Project]("tech_stack", "Tech Stack"),
			listview.Col[resource.Project]("is_featured", "Featured"),
			{Key: "created_at", Label: "Created", Render: dateCell[resource.Project]()},
		},
		func(ctx context.Context, c *api.Client) ([]resource.Project, error) {
			return c.Projects().List(ctx, api.ProjectFilter{})
		},
		func(ctx context.Context, c *api.Client, id int) error { return c.Projects().Delete(ctx, id) },
	)
	if err != nil {
		return nil, err
	}
	team, err := newTab("Team",
		[]listview.Column[resource.TeamMember]{
			listview.Col[resource.TeamMember]("name", "Name"),
			listview.Col[resource.TeamMember]("role", "Role"),
			listview.Col[resource.TeamMember]("linkedin_url", "LinkedIn"),
		},
		func(ctx context.Context, c *api.Client) ([]resource.TeamMember, error) {
			return c.Team().List(ctx)
		},
		func(ctx context.Context, c *api.Client, id int) error { return c.Team().Delete(ctx, id) },
	)
	if err != nil {
		return nil, err
	}
	openings, err := newTab("Openings",
		[]listview.Column[resource.JobOpening]{
			listview.Col[resource.JobOpening]("title", "Title"),
			listview.Col[resource.JobOpening]("department", "Department"),
			listview.Col[resource.JobOpening]("location", "Location"),
			{Key: "job_type", Label: "Type", Render: labelCell[resource.JobOpening]()},
			listview.Col[resource.JobOpening]("is_active", "Active"),
		},
		func(ctx context.Context, c *api.Client) ([]resource.JobOpening, error) {
			return c.Careers().ListOpenings(ctx, api.OpeningFilter{})
		},
		func(ctx context.Context, c *api.Client, id int) error { return c.Careers().DeleteOpening(ctx, id) },
	)
	if err != nil {
		return nil, err
	}
	applications, err := newTab("Applications",
		[]listview.Column[resource.Application]{
			listview.Col[resource.Application]("name", "Candidate"),
			listview.Col[resource.Application]("email", "Email"),
			listview.Col[resource.Application]("job_title", "Position"),
			{Key: "status", Label: "Status", Render: labelCell[resource.Application]()},
			{Key: "applied_at", Label: "Applied", Render: dateCell[resource.Application]()},
		},
		func(ctx context.Context, c *api.Client) ([]resource.Application, error) {
			return c.Careers().ListApplications(ctx, api.ApplicationFilter{})
		},
		func(ctx context.Context, c *api.Client, id int) error { return c.Careers().DeleteApplication(ctx, id) },
	)
	if err != nil {
		return nil, err
	}
	return []pane{inquiries, projects, team, openings, applications}, nil
}
