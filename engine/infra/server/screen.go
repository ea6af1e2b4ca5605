package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/export"
	"github.com/focitech/focitech/engine/fetch"
	"github.com/focitech/focitech/engine/infra/server/middleware/auth"
	"github.com/focitech/focitech/engine/infra/server/router"
	"github.com/focitech/focitech/engine/listview"
	"github.com/focitech/focitech/engine/resource"
	"github.com/focitech/focitech/engine/session"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const bulkDeleteConcurrency = 4

// screenFilter narrows a screen's collection through one query parameter.
type screenFilter struct {
	Param  string
	Label  string
	Values []string
}

// screen is an admin list page over one backend collection. All table
// interaction goes through a listview.View whose state lives in the session,
// so every GET with parameters redirects back to the clean URL.
type screen[R listview.Record] struct {
	key      string
	title    string
	singular string
	columns  []listview.Column[R]
	options  listview.Options
	filter   *screenFilter
	newURL   string
	load     func(ctx context.Context, client *api.Client, filter string) ([]R, error)
	remove   func(ctx context.Context, client *api.Client, id int) error
	viewURL  func(R) string
	editURL  func(R) string
	// scopes are the public cache scopes a delete invalidates.
	scopes []string
}

// listData is what admin/list.html renders.
type listData struct {
	Key         string
	Base        string
	Link        string
	Page        any
	Singular    string
	NewURL      string
	ActionURL   string
	BulkURL     string
	Exports     []navLink
	Filter      *screenFilter
	FilterValue string
	FilterLinks []navLink
}

type navLink struct {
	Label  string
	URL    string
	Active bool
}

// hooks collects what the row callbacks asked for during one request.
type hooks[R listview.Record] struct {
	target  string
	deletes []R
}

func (sc *screen[R]) path() string {
	return adminBase + "/" + sc.key
}

func (sc *screen[R]) register(g *gin.RouterGroup, s *Server) {
	base := "/" + sc.key
	g.GET(base, sc.list(s))
	g.GET(base+"/export", sc.export(s))
	if sc.remove != nil {
		g.POST(base+"/action", sc.action(s))
		g.POST(base+"/bulk-delete", sc.bulkDelete(s))
	}
}

func (sc *screen[R]) filterValue(c *gin.Context) string {
	if sc.filter == nil {
		return ""
	}
	v := strings.TrimSpace(c.Query(sc.filter.Param))
	if slices.Contains(sc.filter.Values, v) {
		return v
	}
	return ""
}

// cleanURL is the list URL carrying only the filter.
func (sc *screen[R]) cleanURL(filter string) string {
	return sc.sub("", filter)
}

// sub is a path under the screen carrying the filter.
func (sc *screen[R]) sub(suffix, filter string) string {
	if filter == "" {
		return sc.path() + suffix
	}
	return sc.path() + suffix + "?" + url.Values{sc.filter.Param: {filter}}.Encode()
}

func (sc *screen[R]) exportLinks(filter string) []navLink {
	out := make([]navLink, 0, 2)
	for _, f := range []export.Format{export.CSV, export.PDF} {
		q := url.Values{"format": {string(f)}}
		if filter != "" {
			q.Set(sc.filter.Param, filter)
		}
		out = append(out, navLink{Label: strings.ToUpper(string(f)), URL: sc.path() + "/export?" + q.Encode()})
	}
	return out
}

func (sc *screen[R]) filterLinks(filter string) []navLink {
	if sc.filter == nil {
		return nil
	}
	out := []navLink{{Label: "All", URL: sc.path(), Active: filter == ""}}
	for _, v := range sc.filter.Values {
		out = append(out, navLink{Label: resource.Label(v), URL: sc.cleanURL(v), Active: v == filter})
	}
	return out
}

// link is the prefix templates append list parameters to.
func (sc *screen[R]) link(filter string) string {
	if filter == "" {
		return sc.path() + "?"
	}
	return sc.cleanURL(filter) + "&"
}

func (sc *screen[R]) viewKey(filter string) string {
	if filter == "" {
		return sc.key
	}
	return sc.key + ":" + filter
}

func (sc *screen[R]) noun(n int) string {
	if n == 1 {
		return sc.singular
	}
	return strings.ToLower(sc.title)
}

func (sc *screen[R]) actions(h *hooks[R]) listview.Actions[R] {
	var acts listview.Actions[R]
	if sc.viewURL != nil {
		acts.OnView = func(row R, _ int) { h.target = sc.viewURL(row) }
		acts.OnRowClick = acts.OnView
	}
	if sc.editURL != nil {
		acts.OnEdit = func(row R, _ int) { h.target = sc.editURL(row) }
	}
	if sc.remove != nil {
		acts.OnDelete = func(row R, _ int) { h.deletes = append(h.deletes, row) }
	}
	return acts
}

// fetchRows loads the collection for this session. A newer load for the
// same session and screen supersedes this one.
func (sc *screen[R]) fetchRows(c *gin.Context, s *Server, filter string) ([]R, error) {
	client := auth.ClientFrom(c)
	key := fetch.Key(auth.SessionFrom(c).ID, sc.key, map[string]string{"filter": filter})
	return fetch.Run(c.Request.Context(), s.state.Fetches, key, func(ctx context.Context) ([]R, error) {
		return sc.load(ctx, client, filter)
	})
}

// open loads the rows and restores the session's view over them.
func (sc *screen[R]) open(c *gin.Context, s *Server, acts listview.Actions[R]) (*listview.View[R], string, bool) {
	filter := sc.filterValue(c)
	rows, err := sc.fetchRows(c, s, filter)
	if errors.Is(err, fetch.ErrStale) {
		c.Status(http.StatusNoContent)
		return nil, "", false
	}
	if err != nil {
		s.fail(c, err)
		return nil, "", false
	}
	v, err := listview.New(sc.columns, rows, sc.options, acts)
	if err != nil {
		s.fail(c, err)
		return nil, "", false
	}
	if st, ok := auth.SessionFrom(c).View(sc.viewKey(filter)); ok {
		v.Restore(st)
	}
	return v, filter, true
}

func (sc *screen[R]) store(c *gin.Context, s *Server, filter string, v *listview.View[R]) {
	auth.SessionFrom(c).SetView(sc.viewKey(filter), v.State())
	s.saveSession(c)
}

func (sc *screen[R]) list(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var h hooks[R]
		v, filter, ok := sc.open(c, s, sc.actions(&h))
		if !ok {
			return
		}
		log := logger.FromContext(c.Request.Context())
		q := router.ParseListQuery(c)
		router.ApplyListQuery(v, q)
		interacted := !q.Empty()
		if id := c.Query("click"); id != "" {
			interacted = true
			if err := v.Click(id); err != nil {
				log.Debug("Ignoring row click", "screen", sc.key, "error", err)
			}
		}
		if a := c.Query("action"); a == string(listview.ActionView) || a == string(listview.ActionEdit) {
			interacted = true
			if err := v.Invoke(listview.Action(a), c.Query("id")); err != nil {
				log.Debug("Ignoring row action", "screen", sc.key, "action", a, "error", err)
			}
		}
		sc.store(c, s, filter, v)
		switch {
		case h.target != "":
			redirect(c, h.target)
			return
		case interacted:
			redirect(c, sc.cleanURL(filter))
			return
		}
		s.render(c, http.StatusOK, "admin/list", View{
			Title: sc.title,
			Data: listData{
				Key:         sc.key,
				Base:        sc.path(),
				Link:        sc.link(filter),
				Page:        v.Page(),
				Singular:    sc.singular,
				NewURL:      sc.newURL,
				ActionURL:   sc.sub("/action", filter),
				BulkURL:     sc.sub("/bulk-delete", filter),
				Exports:     sc.exportLinks(filter),
				Filter:      sc.filter,
				FilterValue: filter,
				FilterLinks: sc.filterLinks(filter),
			},
		})
	}
}

// action runs a row button posted from the table. Only rows on the current
// page can be acted on.
func (sc *screen[R]) action(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var h hooks[R]
		v, filter, ok := sc.open(c, s, sc.actions(&h))
		if !ok {
			return
		}
		if err := v.Invoke(listview.Action(c.PostForm("action")), c.PostForm("id")); err != nil {
			s.flash(c, session.FlashError, "That row is no longer on this page. Please try again.")
			redirect(c, sc.cleanURL(filter))
			return
		}
		if h.target != "" {
			redirect(c, h.target)
			return
		}
		if len(h.deletes) > 0 {
			deleted, err := sc.removeAll(c.Request.Context(), auth.ClientFrom(c), h.deletes)
			sc.afterDelete(c, s, deleted, len(h.deletes), err)
		}
		sc.store(c, s, filter, v)
		redirect(c, sc.cleanURL(filter))
	}
}

func (sc *screen[R]) bulkDelete(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, filter, ok := sc.open(c, s, listview.Actions[R]{})
		if !ok {
			return
		}
		selected := v.Selected()
		if len(selected) == 0 {
			s.flash(c, session.FlashInfo, "Select at least one row first.")
			redirect(c, sc.cleanURL(filter))
			return
		}
		deleted, err := sc.removeAll(c.Request.Context(), auth.ClientFrom(c), selected)
		v.ClearSelection()
		sc.store(c, s, filter, v)
		sc.afterDelete(c, s, deleted, len(selected), err)
		redirect(c, sc.cleanURL(filter))
	}
}

// removeAll deletes rows with bounded concurrency. Every row is attempted;
// the first error is returned with the number that succeeded.
func (sc *screen[R]) removeAll(ctx context.Context, client *api.Client, rows []R) (int, error) {
	var (
		g       errgroup.Group
		deleted atomic.Int32
	)
	g.SetLimit(bulkDeleteConcurrency)
	for _, row := range rows {
		g.Go(func() error {
			id, err := strconv.Atoi(row.RowID())
			if err != nil {
				return fmt.Errorf("invalid row id %q: %w", row.RowID(), err)
			}
			if err := sc.remove(ctx, client, id); err != nil {
				return err
			}
			deleted.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return int(deleted.Load()), err
}

func (sc *screen[R]) afterDelete(c *gin.Context, s *Server, deleted, total int, err error) {
	if deleted > 0 {
		s.state.Cache.Invalidate(sc.scopes...)
	}
	if err != nil {
		_ = c.Error(err)
		logger.FromContext(c.Request.Context()).Warn("Delete failed",
			"screen", sc.key, "deleted", deleted, "requested", total, "error", err)
		msg := router.Message(err)
		if total > 1 {
			msg = fmt.Sprintf("Deleted %d of %d %s. %s", deleted, total, sc.noun(total), msg)
		}
		s.flash(c, session.FlashError, msg)
		return
	}
	if total == 1 {
		s.flash(c, session.FlashSuccess, fmt.Sprintf("Deleted %s.", sc.singular))
		return
	}
	s.flash(c, session.FlashSuccess, fmt.Sprintf("Deleted %d %s.", deleted, sc.noun(deleted)))
}

// export writes every row matching the saved search, in the saved order.
func (sc *screen[R]) export(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		format, err := export.ParseFormat(c.Query("format"))
		if err != nil {
			s.fail(c, fieldError("format", err.Error()))
			return
		}
		collector := export.NewCollector(sc.title, sc.columns)
		v, _, ok := sc.open(c, s, listview.Actions[R]{OnExport: collector.Add})
		if !ok {
			return
		}
		n := v.Export()
		var buf bytes.Buffer
		if err := export.Write(&buf, format, collector.Table()); err != nil {
			s.fail(c, fmt.Errorf("failed to export %s: %w", sc.key, err))
			return
		}
		logger.FromContext(c.Request.Context()).Info("Exported rows", "screen", sc.key, "format", format, "rows", n)
		name := format.Filename(sc.key, time.Now())
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
	}
}
