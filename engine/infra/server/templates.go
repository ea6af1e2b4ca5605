package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/focitech/focitech/engine/identity"
	"github.com/focitech/focitech/engine/listview"
	"github.com/focitech/focitech/engine/resource"
	"github.com/focitech/focitech/engine/session"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates
var templateFS embed.FS

const layoutName = "layout"

// Renderer holds one template set per page: the shared layout and partials
// plus the page's own "content" block.
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

func NewRenderer() (*Renderer, error) {
	base, err := template.New(layoutName).Funcs(funcMap()).
		ParseFS(templateFS, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	err = fs.WalkDir(templateFS, "templates/pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".html" {
			return err
		}
		t, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(templateFS, p); err != nil {
			return fmt.Errorf("parsing %s: %w", p, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/pages/"), ".html")
		r.pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Instance renders page name inside the layout. Unknown pages render the
// error page so a typo never panics a request.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		t = r.pages["error"]
	}
	return render.HTML{Template: t, Name: layoutName, Data: data}
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

func funcMap() template.FuncMap {
	fm := sprig.HtmlFuncMap()
	fm["label"] = resource.Label
	fm["query"] = queryString
	fm["flashClass"] = flashClass
	fm["sortMark"] = sortMark
	fm["shortDate"] = func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("Jan 2, 2006")
	}
	return fm
}

// queryString builds "?k=v&..." from alternating keys and values, skipping
// empty values.
func queryString(pairs ...any) string {
	q := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v := fmt.Sprint(pairs[i+1])
		if v != "" {
			q.Add(fmt.Sprint(pairs[i]), v)
		}
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func flashClass(kind session.FlashKind) string {
	switch kind {
	case session.FlashSuccess:
		return "flash flash-success"
	case session.FlashError:
		return "flash flash-error"
	default:
		return "flash flash-info"
	}
}

func sortMark(h listview.Header) string {
	if !h.Sorted {
		return ""
	}
	if h.Direction == listview.Descending {
		return " ▼"
	}
	return " ▲"
}

// View is the data every page template receives.
type View struct {
	Title     string
	Path      string
	User      *identity.User
	Admin     bool
	SignIn    bool
	Flashes   []session.Flash
	RequestID string
	Year      int
	// Error is a page level message; Fields holds per-field messages.
	Error  string
	Fields map[string]string
	Form   any
	Data   any
}
