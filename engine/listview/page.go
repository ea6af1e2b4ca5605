package listview

import "fmt"

// Header describes one column heading.
type Header struct {
	Key       string
	Label     string
	Sorted    bool
	Direction SortDirection
}

// Row is one rendered record on the current page.
type Row[R Record] struct {
	ID       string
	Index    int
	Record   R
	Cells    []Cell
	Selected bool
}

// ActionSet reports which per-row buttons have a callback.
type ActionSet struct {
	View   bool
	Edit   bool
	Delete bool
}

func (a ActionSet) Any() bool {
	return a.View || a.Edit || a.Delete
}

// Page is an immutable snapshot of what a view renders.
type Page[R Record] struct {
	Headers   []Header
	Rows      []Row[R]
	Loading   bool
	Skeletons int

	// EmptyMessage is set when the page has no rows.
	EmptyMessage string

	Query      string
	Searchable bool
	Sortable   bool
	Selectable bool
	Actions    ActionSet

	Number     int
	TotalPages int
	Total      int
	From       int
	To         int
	Strip      []int
	More       bool
	HasPrev    bool
	HasNext    bool
	ShowFooter bool

	AllSelected   bool
	SelectedCount int
}

// Empty reports whether the placeholder row should be shown.
func (p Page[R]) Empty() bool {
	return !p.Loading && len(p.Rows) == 0
}

// Span is the number of table columns including selection and action cells.
func (p Page[R]) Span() int {
	n := len(p.Headers)
	if p.Selectable {
		n++
	}
	if p.Actions.Any() {
		n++
	}
	return n
}

// Summary renders the footer text.
func (p Page[R]) Summary() string {
	return fmt.Sprintf("Showing %d to %d of %d entries", p.From, p.To, p.Total)
}

// Page builds the snapshot for the current state. While loading, only the
// headers and skeleton count are filled in.
func (v *View[R]) Page() Page[R] {
	p := Page[R]{
		Headers:    v.headers(),
		Searchable: v.opts.Searchable,
		Sortable:   v.opts.Sortable,
		Selectable: v.opts.Selectable,
		Actions: ActionSet{
			View:   v.actions.OnView != nil,
			Edit:   v.actions.OnEdit != nil,
			Delete: v.actions.OnDelete != nil,
		},
	}
	if v.loading {
		p.Loading = true
		p.Skeletons = SkeletonRows
		return p
	}
	start, end := v.pageBounds()
	rows := v.visible[start:end]
	p.Rows = make([]Row[R], 0, len(rows))
	for i, rec := range rows {
		cells := make([]Cell, len(v.columns))
		for c, col := range v.columns {
			cells[c] = col.Render.Render(rec.Field(col.Key), rec, i)
		}
		_, sel := v.selected[rec.RowID()]
		p.Rows = append(p.Rows, Row[R]{
			ID:       rec.RowID(),
			Index:    i,
			Record:   rec,
			Cells:    cells,
			Selected: sel,
		})
	}
	if len(p.Rows) == 0 {
		p.EmptyMessage = v.opts.EmptyMessage
	}
	p.Query = v.query
	p.Number = v.page
	p.TotalPages = v.TotalPages()
	p.Total = len(v.visible)
	if end > start {
		p.From, p.To = start+1, end
	}
	p.Strip, p.More = pageStrip(p.Number, p.TotalPages)
	p.HasPrev = p.Number > 1
	p.HasNext = p.Number < p.TotalPages
	p.ShowFooter = v.opts.Pagination && p.TotalPages > 1
	p.AllSelected = v.allSelected(rows)
	p.SelectedCount = len(v.selected)
	return p
}

func (v *View[R]) headers() []Header {
	out := make([]Header, len(v.columns))
	for i, col := range v.columns {
		out[i] = Header{Key: col.Key, Label: col.Label}
		if col.Key == v.sortKey {
			out[i].Sorted = true
			out[i].Direction = v.sortDir
		}
	}
	return out
}

// pageStrip returns up to five page numbers around current and whether pages
// exist past the last one shown.
func pageStrip(current, total int) ([]int, bool) {
	n := min(stripWidth, total)
	start := max(1, min(current-stripWidth/2, total-n+1))
	strip := make([]int, n)
	for i := range strip {
		strip[i] = start + i
	}
	return strip, start+n-1 < total
}
