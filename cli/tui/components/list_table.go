package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/focitech/focitech/cli/tui/styles"
	"github.com/focitech/focitech/engine/export"
	"github.com/focitech/focitech/engine/listview"
)

const (
	selectWidth  = 3
	skeletonCell = "░░░░░░"
	// chromeLines is the header, search and pagination lines around the table.
	chromeLines = 4
)

// ListTableKeyMap defines key bindings for a list table.
type ListTableKeyMap struct {
	Search      key.Binding
	ClearSearch key.Binding
	NextPage    key.Binding
	PrevPage    key.Binding
	FirstPage   key.Binding
	LastPage    key.Binding
	Toggle      key.Binding
	ToggleAll   key.Binding
	ClearSelect key.Binding
	Open        key.Binding
	Delete      key.Binding
	Refresh     key.Binding
	Export      key.Binding
}

func DefaultListTableKeyMap() ListTableKeyMap {
	return ListTableKeyMap{
		Search:      newBinding([]string{"/"}, "search", "/"),
		ClearSearch: newBinding([]string{escKey}, "clear search", escKey),
		NextPage:    newBinding([]string{"n", "right"}, "next page", "n/→"),
		PrevPage:    newBinding([]string{"p", "left"}, "prev page", "p/←"),
		FirstPage:   newBinding([]string{"home"}, "first page", "home"),
		LastPage:    newBinding([]string{"end"}, "last page", "end"),
		Toggle:      newBinding([]string{" "}, "select", "space"),
		ToggleAll:   newBinding([]string{"a"}, "select page", "a"),
		ClearSelect: newBinding([]string{"c"}, "clear selection", "c"),
		Open:        newBinding([]string{"enter"}, "open", "enter"),
		Delete:      newBinding([]string{"d"}, "delete", "d"),
		Refresh:     newBinding([]string{"r"}, "refresh", "r"),
		Export:      newBinding([]string{"x"}, "export csv", "x"),
	}
}

func newBinding(keys []string, help, display string) key.Binding {
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(display, help),
	)
}

// ListTable renders a listview.View in a bubbles table. Every interaction is
// forwarded to the view, and requests the console must act on (refresh,
// delete, open, export) come back as messages.
type ListTable[R listview.Record] struct {
	name    string
	columns []listview.Column[R]
	view    *listview.View[R]
	table   table.Model
	search  textinput.Model
	keyMap  ListTableKeyMap
	width   int
	height  int

	searching bool
	// rowIDs maps table rows to record IDs for the current page.
	rowIDs    []string
	collector *export.Collector[R]

	// filled by view callbacks while handling one key
	opened    *OpenMsg
	deletes   []string
	refreshed bool
}

// RefreshMsg asks the owner to reload the named table.
type RefreshMsg struct {
	Table string
}

// DeleteMsg asks the owner to delete the listed rows.
type DeleteMsg struct {
	Table string
	IDs   []string
}

// OpenMsg carries the rendered fields of the row under the cursor.
type OpenMsg struct {
	Table  string
	ID     string
	Fields [][2]string
}

// ExportMsg carries the filtered rows in display order.
type ExportMsg struct {
	Table *export.Table
}

// NewListTable builds a selectable table over columns. It fails under the
// same conditions as listview.New.
func NewListTable[R listview.Record](name string, columns []listview.Column[R], opts listview.Options) (*ListTable[R], error) {
	lt := &ListTable[R]{
		name:      name,
		columns:   columns,
		keyMap:    DefaultListTableKeyMap(),
		collector: export.NewCollector(name, columns),
	}
	opts.Selectable = true
	view, err := listview.New(columns, nil, opts, listview.Actions[R]{
		OnRowClick: lt.open,
		OnDelete: func(row R, _ int) {
			lt.deletes = append(lt.deletes, row.RowID())
		},
		OnRefresh: func() { lt.refreshed = true },
		OnExport:  lt.collector.Add,
	})
	if err != nil {
		return nil, err
	}
	lt.view = view
	lt.search = textinput.New()
	lt.search.Prompt = "/ "
	lt.search.Placeholder = "search"
	lt.table = table.New(table.WithFocused(true), table.WithHeight(listview.DefaultPageSize))
	lt.table.SetStyles(defaultListTableStyles())
	lt.view.SetLoading(true)
	lt.sync()
	return lt, nil
}

func defaultListTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Border).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.Highlight).
		Background(styles.Surface).
		Bold(true)
	return s
}

func (lt *ListTable[R]) Name() string { return lt.name }

// View exposes the underlying list view.
func (lt *ListTable[R]) ListView() *listview.View[R] { return lt.view }

// Searching reports whether key presses go to the search box.
func (lt *ListTable[R]) Searching() bool { return lt.searching }

func (lt *ListTable[R]) SetSize(width, height int) {
	lt.width = width
	lt.height = height
	lt.table.SetHeight(max(3, height-chromeLines))
	lt.search.Width = max(10, width/3)
	lt.sync()
}

// SetData replaces the rows and leaves the loading state.
func (lt *ListTable[R]) SetData(rows []R) {
	lt.view.SetData(rows)
	lt.view.SetLoading(false)
	lt.sync()
}

func (lt *ListTable[R]) SetLoading(loading bool) {
	lt.view.SetLoading(loading)
	lt.sync()
}

// Cursor returns the ID of the row under the cursor.
func (lt *ListTable[R]) Cursor() (string, bool) {
	i := lt.table.Cursor()
	if i < 0 || i >= len(lt.rowIDs) || lt.rowIDs[i] == "" {
		return "", false
	}
	return lt.rowIDs[i], true
}

func (lt *ListTable[R]) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		lt.table, cmd = lt.table.Update(msg)
		return cmd
	}
	if lt.searching {
		return lt.updateSearch(keyMsg)
	}
	if col, ok := sortColumn(keyMsg); ok {
		if col < len(lt.columns) {
			_ = lt.view.Sort(lt.columns[col].Key)
			lt.sync()
		}
		return nil
	}
	switch {
	case key.Matches(keyMsg, lt.keyMap.Search):
		lt.searching = true
		lt.search.SetValue(lt.view.State().Query)
		return lt.search.Focus()
	case key.Matches(keyMsg, lt.keyMap.ClearSearch):
		lt.view.Search("")
	case key.Matches(keyMsg, lt.keyMap.NextPage):
		lt.view.Next()
	case key.Matches(keyMsg, lt.keyMap.PrevPage):
		lt.view.Prev()
	case key.Matches(keyMsg, lt.keyMap.FirstPage):
		lt.view.First()
	case key.Matches(keyMsg, lt.keyMap.LastPage):
		lt.view.Last()
	case key.Matches(keyMsg, lt.keyMap.Toggle):
		if id, ok := lt.Cursor(); ok {
			lt.view.Toggle(id)
		}
	case key.Matches(keyMsg, lt.keyMap.ToggleAll):
		lt.view.ToggleAll()
	case key.Matches(keyMsg, lt.keyMap.ClearSelect):
		lt.view.ClearSelection()
	case key.Matches(keyMsg, lt.keyMap.Open):
		return lt.openCursor()
	case key.Matches(keyMsg, lt.keyMap.Delete):
		return lt.deleteRequest()
	case key.Matches(keyMsg, lt.keyMap.Refresh):
		return lt.refresh()
	case key.Matches(keyMsg, lt.keyMap.Export):
		return lt.export()
	default:
		var cmd tea.Cmd
		lt.table, cmd = lt.table.Update(msg)
		return cmd
	}
	lt.sync()
	return nil
}

func (lt *ListTable[R]) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case escKey:
		lt.searching = false
		lt.search.Blur()
		lt.view.Search("")
		lt.sync()
		return nil
	case "enter":
		lt.searching = false
		lt.search.Blur()
		return nil
	}
	var cmd tea.Cmd
	lt.search, cmd = lt.search.Update(msg)
	lt.view.Search(lt.search.Value())
	lt.sync()
	return cmd
}

// sortColumn maps the keys 1 to 9 to a column index.
func sortColumn(msg tea.KeyMsg) (int, bool) {
	s := msg.String()
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	return int(s[0] - '1'), true
}

func (lt *ListTable[R]) open(row R, index int) {
	fields := make([][2]string, len(lt.columns))
	for i, col := range lt.columns {
		fields[i] = [2]string{col.Label, col.Render.Render(row.Field(col.Key), row, index).Text}
	}
	lt.opened = &OpenMsg{Table: lt.name, ID: row.RowID(), Fields: fields}
}

func (lt *ListTable[R]) openCursor() tea.Cmd {
	id, ok := lt.Cursor()
	if !ok {
		return nil
	}
	lt.opened = nil
	if err := lt.view.Click(id); err != nil || lt.opened == nil {
		return nil
	}
	msg := *lt.opened
	return func() tea.Msg { return msg }
}

// deleteRequest targets the selection, or the cursor row when nothing is
// selected.
func (lt *ListTable[R]) deleteRequest() tea.Cmd {
	var ids []string
	if sel := lt.view.Selected(); len(sel) > 0 {
		for _, row := range sel {
			ids = append(ids, row.RowID())
		}
	} else if id, ok := lt.Cursor(); ok {
		lt.deletes = nil
		if err := lt.view.Invoke(listview.ActionDelete, id); err != nil {
			return nil
		}
		ids = lt.deletes
	}
	if len(ids) == 0 {
		return nil
	}
	msg := DeleteMsg{Table: lt.name, IDs: ids}
	return func() tea.Msg { return msg }
}

func (lt *ListTable[R]) refresh() tea.Cmd {
	lt.refreshed = false
	lt.view.Refresh()
	if !lt.refreshed {
		return nil
	}
	lt.SetLoading(true)
	name := lt.name
	return func() tea.Msg { return RefreshMsg{Table: name} }
}

func (lt *ListTable[R]) export() tea.Cmd {
	lt.collector.Reset()
	if lt.view.Export() == 0 {
		return nil
	}
	src := lt.collector.Table()
	t := &export.Table{Title: src.Title, Headers: src.Headers, Rows: src.Rows}
	return func() tea.Msg { return ExportMsg{Table: t} }
}

// sync copies the view's current page into the bubbles table.
func (lt *ListTable[R]) sync() {
	page := lt.view.Page()
	lt.table.SetColumns(lt.tableColumns(page.Headers))
	width := len(lt.columns) + 1
	var rows []table.Row
	lt.rowIDs = lt.rowIDs[:0]
	switch {
	case page.Loading:
		for range page.Skeletons {
			row := make(table.Row, width)
			for i := range row {
				row[i] = skeletonCell
			}
			rows = append(rows, row)
			lt.rowIDs = append(lt.rowIDs, "")
		}
	case page.Empty():
		row := make(table.Row, width)
		row[1] = page.EmptyMessage
		rows = append(rows, row)
		lt.rowIDs = append(lt.rowIDs, "")
	default:
		for _, r := range page.Rows {
			row := make(table.Row, 0, width)
			mark := "[ ]"
			if r.Selected {
				mark = "[x]"
			}
			row = append(row, mark)
			for _, cell := range r.Cells {
				row = append(row, cell.Text)
			}
			rows = append(rows, row)
			lt.rowIDs = append(lt.rowIDs, r.ID)
		}
	}
	lt.table.SetRows(rows)
	if lt.table.Cursor() >= len(rows) {
		lt.table.SetCursor(max(0, len(rows)-1))
	}
}

func (lt *ListTable[R]) tableColumns(headers []listview.Header) []table.Column {
	cols := make([]table.Column, 0, len(headers)+1)
	cols = append(cols, table.Column{Title: "", Width: selectWidth})
	avail := max(len(headers)*8, lt.width-selectWidth-2*len(headers)-4)
	each := avail / max(1, len(headers))
	for i, h := range headers {
		title := fmt.Sprintf("%d %s", i+1, h.Label)
		if h.Sorted {
			if h.Direction == listview.Descending {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		cols = append(cols, table.Column{Title: title, Width: max(8, each)})
	}
	return cols
}

func (lt *ListTable[R]) View() string {
	page := lt.view.Page()
	sections := []string{lt.renderHeader(page)}
	if lt.searching {
		sections = append(sections, lt.search.View())
	}
	sections = append(sections, lt.table.View(), lt.renderPagination(page))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (lt *ListTable[R]) renderHeader(page listview.Page[R]) string {
	var parts []string
	st := lt.view.State()
	if st.SortKey != "" {
		parts = append(parts, styles.InfoStyle.Render(fmt.Sprintf("Sort: %s %s", st.SortKey, st.SortDirection)))
	}
	if page.Query != "" && !lt.searching {
		parts = append(parts, styles.WarningStyle.Render("Search: "+page.Query))
	}
	if page.SelectedCount > 0 {
		parts = append(parts, styles.SuccessStyle.Render(fmt.Sprintf("%d selected", page.SelectedCount)))
	}
	parts = append(parts, styles.HelpStyle.Render(fmt.Sprintf("Total: %d", page.Total)))
	return strings.Join(parts, " • ")
}

func (lt *ListTable[R]) renderPagination(page listview.Page[R]) string {
	if page.Loading {
		return styles.PaginationStyle.Render("Loading…")
	}
	if page.Total == 0 {
		return styles.PaginationStyle.Render(page.EmptyMessage)
	}
	if !page.ShowFooter {
		return styles.PaginationStyle.Render(fmt.Sprintf("%d entries", page.Total))
	}
	return styles.PaginationStyle.Render(fmt.Sprintf("%s • Page %d of %d", page.Summary(), page.Number, page.TotalPages))
}
