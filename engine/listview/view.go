package listview

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

const (
	DefaultPageSize     = 10
	DefaultEmptyMessage = "No data available"
	// SkeletonRows is the number of placeholder rows shown while loading.
	SkeletonRows = 5
	stripWidth   = 5
)

// Options configures the behaviour of a View.
type Options struct {
	Searchable   bool
	Sortable     bool
	Selectable   bool
	Pagination   bool
	PageSize     int
	EmptyMessage string
}

// DefaultOptions enables search, sorting and pagination with ten rows per page.
func DefaultOptions() Options {
	return Options{
		Searchable:   true,
		Sortable:     true,
		Selectable:   false,
		Pagination:   true,
		PageSize:     DefaultPageSize,
		EmptyMessage: DefaultEmptyMessage,
	}
}

// Actions holds the optional callbacks fired by a View. index is the row
// position on the current page, except for OnExport where it is the position
// in the filtered and sorted set.
type Actions[R Record] struct {
	OnRowClick func(row R, index int)
	OnView     func(row R, index int)
	OnEdit     func(row R, index int)
	OnDelete   func(row R, index int)
	OnRefresh  func()
	OnExport   func(row R, index int)
}

// Action names a per-row action button.
type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// State is the serialisable part of a view. Selected holds row IDs.
type State struct {
	Query         string        `json:"query,omitempty"`
	SortKey       string        `json:"sort_key,omitempty"`
	SortDirection SortDirection `json:"sort_direction,omitempty"`
	Page          int           `json:"page,omitempty"`
	Selected      []string      `json:"selected,omitempty"`
}

// View is the state machine behind a tabular list. It is not safe for
// concurrent use.
type View[R Record] struct {
	columns []Column[R]
	opts    Options
	actions Actions[R]
	data    []R
	loading bool

	query    string
	sortKey  string
	sortDir  SortDirection
	page     int
	selected map[string]struct{}

	// visible is data after search and sort.
	visible []R
}

// New builds a view over data. columns must not be empty and opts.PageSize
// must be positive.
func New[R Record](columns []Column[R], data []R, opts Options, actions Actions[R]) (*View[R], error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	if opts.PageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, opts.PageSize)
	}
	if opts.EmptyMessage == "" {
		opts.EmptyMessage = DefaultEmptyMessage
	}
	v := &View[R]{
		columns:  slices.Clone(columns),
		opts:     opts,
		actions:  actions,
		data:     slices.Clone(data),
		sortDir:  Ascending,
		page:     1,
		selected: make(map[string]struct{}),
	}
	v.recompute()
	return v, nil
}

// Restore applies a previously saved state. Unknown sort keys and selected
// IDs that are no longer visible are dropped, and the page is clamped.
func (v *View[R]) Restore(st State) {
	v.query = ""
	if v.opts.Searchable {
		v.query = st.Query
	}
	v.sortKey, v.sortDir = "", Ascending
	if v.opts.Sortable && v.hasColumn(st.SortKey) {
		v.sortKey = st.SortKey
		if st.SortDirection == Descending {
			v.sortDir = Descending
		}
	}
	v.page = st.Page
	v.selected = make(map[string]struct{}, len(st.Selected))
	if v.opts.Selectable {
		for _, id := range st.Selected {
			v.selected[id] = struct{}{}
		}
	}
	v.recompute()
}

// State snapshots the current state.
func (v *View[R]) State() State {
	st := State{
		Query: v.query,
		Page:  v.page,
	}
	if v.sortKey != "" {
		st.SortKey = v.sortKey
		st.SortDirection = v.sortDir
	}
	for _, row := range v.visible {
		if _, ok := v.selected[row.RowID()]; ok {
			st.Selected = append(st.Selected, row.RowID())
		}
	}
	return st
}

// SetData replaces the collection.
func (v *View[R]) SetData(data []R) {
	v.data = slices.Clone(data)
	v.recompute()
}

// SetLoading toggles the loading placeholder.
func (v *View[R]) SetLoading(loading bool) {
	v.loading = loading
}

// Search filters rows whose configured columns contain query, ignoring case.
// The page resets to the first one.
func (v *View[R]) Search(query string) {
	if !v.opts.Searchable {
		return
	}
	v.query = query
	v.page = 1
	v.recompute()
}

// Sort flips the direction when key is already the sort column, otherwise it
// sorts ascending by key.
func (v *View[R]) Sort(key string) error {
	if !v.opts.Sortable {
		return nil
	}
	if !v.hasColumn(key) {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	if v.sortKey == key {
		v.sortDir = v.sortDir.Flip()
	} else {
		v.sortKey = key
		v.sortDir = Ascending
	}
	v.recompute()
	return nil
}

// GoTo moves to page, clamped to the available range.
func (v *View[R]) GoTo(page int) {
	v.page = page
	v.clamp()
}

func (v *View[R]) Next() {
	v.GoTo(v.page + 1)
}

func (v *View[R]) Prev() {
	v.GoTo(v.page - 1)
}

func (v *View[R]) First() {
	v.GoTo(1)
}

func (v *View[R]) Last() {
	v.GoTo(v.TotalPages())
}

// CurrentPage returns the 1-based page number.
func (v *View[R]) CurrentPage() int {
	return v.page
}

// TotalPages is never less than one.
func (v *View[R]) TotalPages() int {
	if !v.opts.Pagination {
		return 1
	}
	return max(1, (len(v.visible)+v.opts.PageSize-1)/v.opts.PageSize)
}

// Toggle flips the selection of the row with id. It reports whether the id
// belongs to the filtered set.
func (v *View[R]) Toggle(id string) bool {
	if !v.opts.Selectable || !v.isVisible(id) {
		return false
	}
	if _, ok := v.selected[id]; ok {
		delete(v.selected, id)
	} else {
		v.selected[id] = struct{}{}
	}
	return true
}

// ToggleAll selects every row on the current page, or deselects them when
// they are all selected already.
func (v *View[R]) ToggleAll() {
	if !v.opts.Selectable {
		return
	}
	rows := v.pageRows()
	if len(rows) == 0 {
		return
	}
	all := v.allSelected(rows)
	for _, row := range rows {
		if all {
			delete(v.selected, row.RowID())
		} else {
			v.selected[row.RowID()] = struct{}{}
		}
	}
}

func (v *View[R]) ClearSelection() {
	clear(v.selected)
}

func (v *View[R]) IsSelected(id string) bool {
	_, ok := v.selected[id]
	return ok
}

// Selected returns the selected records in display order.
func (v *View[R]) Selected() []R {
	var out []R
	for _, row := range v.visible {
		if _, ok := v.selected[row.RowID()]; ok {
			out = append(out, row)
		}
	}
	return out
}

// Visible returns every row that passes the search, in sort order.
func (v *View[R]) Visible() []R {
	return slices.Clone(v.visible)
}

// Click fires OnRowClick for a row on the current page.
func (v *View[R]) Click(id string) error {
	row, index, ok := v.findOnPage(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRowNotVisible, id)
	}
	if v.actions.OnRowClick != nil {
		v.actions.OnRowClick(row, index)
	}
	return nil
}

// Invoke fires the callback bound to action. It never fires OnRowClick.
func (v *View[R]) Invoke(action Action, id string) error {
	var fn func(R, int)
	switch action {
	case ActionView:
		fn = v.actions.OnView
	case ActionEdit:
		fn = v.actions.OnEdit
	case ActionDelete:
		fn = v.actions.OnDelete
	default:
		return fmt.Errorf("listview: unknown action %q", action)
	}
	row, index, ok := v.findOnPage(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRowNotVisible, id)
	}
	if fn != nil {
		fn(row, index)
	}
	return nil
}

func (v *View[R]) Refresh() {
	if v.actions.OnRefresh != nil {
		v.actions.OnRefresh()
	}
}

// Export hands every filtered row to OnExport in display order and returns
// how many rows were exported.
func (v *View[R]) Export() int {
	if v.actions.OnExport == nil {
		return 0
	}
	for i, row := range v.visible {
		v.actions.OnExport(row, i)
	}
	return len(v.visible)
}

func (v *View[R]) recompute() {
	filtered := v.filter()
	if v.sortKey != "" {
		key, dir := v.sortKey, v.sortDir
		slices.SortStableFunc(filtered, func(a, b R) int {
			return compareSorted(a.Field(key), b.Field(key), dir)
		})
	}
	v.visible = filtered
	v.pruneSelection()
	v.clamp()
}

func (v *View[R]) filter() []R {
	if v.query == "" {
		return slices.Clone(v.data)
	}
	fold := cases.Fold()
	needle := fold.String(v.query)
	out := make([]R, 0, len(v.data))
	for _, row := range v.data {
		for _, col := range v.columns {
			s, ok := Stringify(row.Field(col.Key))
			if ok && strings.Contains(fold.String(s), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func (v *View[R]) pruneSelection() {
	if len(v.selected) == 0 {
		return
	}
	keep := make(map[string]struct{}, len(v.visible))
	for _, row := range v.visible {
		keep[row.RowID()] = struct{}{}
	}
	for id := range v.selected {
		if _, ok := keep[id]; !ok {
			delete(v.selected, id)
		}
	}
}

func (v *View[R]) clamp() {
	v.page = min(max(v.page, 1), v.TotalPages())
}

func (v *View[R]) pageBounds() (int, int) {
	if !v.opts.Pagination {
		return 0, len(v.visible)
	}
	start := (v.page - 1) * v.opts.PageSize
	if start >= len(v.visible) {
		return len(v.visible), len(v.visible)
	}
	return start, min(start+v.opts.PageSize, len(v.visible))
}

func (v *View[R]) pageRows() []R {
	start, end := v.pageBounds()
	return v.visible[start:end]
}

func (v *View[R]) findOnPage(id string) (R, int, bool) {
	for i, row := range v.pageRows() {
		if row.RowID() == id {
			return row, i, true
		}
	}
	var zero R
	return zero, -1, false
}

func (v *View[R]) isVisible(id string) bool {
	return slices.ContainsFunc(v.visible, func(r R) bool { return r.RowID() == id })
}

func (v *View[R]) allSelected(rows []R) bool {
	if len(rows) == 0 {
		return false
	}
	for _, row := range rows {
		if _, ok := v.selected[row.RowID()]; !ok {
			return false
		}
	}
	return true
}

func (v *View[R]) hasColumn(key string) bool {
	if key == "" {
		return false
	}
	return slices.ContainsFunc(v.columns, func(c Column[R]) bool { return c.Key == key })
}
