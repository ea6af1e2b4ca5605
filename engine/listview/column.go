// Package listview implements a searchable, sortable, paginated and selectable
// view over a caller-owned collection of records.
//
// A View performs no I/O. Callers feed it records, drive it with Search, Sort,
// GoTo and selection calls, and read a Page snapshot to render. Row actions are
// reported back through the callbacks in Actions.
package listview

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoColumns       = errors.New("listview: at least one column is required")
	ErrInvalidPageSize = errors.New("listview: page size must be positive")
	ErrUnknownColumn   = errors.New("listview: unknown column")
	ErrRowNotVisible   = errors.New("listview: row is not on the current page")
)

// Record is a row with string-keyed fields and a stable identity.
type Record interface {
	Field(key string) any
	RowID() string
}

// Cell is the rendered content of one table cell.
type Cell struct {
	Text  string
	Class string
	Href  string
}

// Text is shorthand for a plain cell.
func Text(s string) Cell {
	return Cell{Text: s}
}

// Renderer turns a field value into a cell. The zero value is the default
// renderer; Custom wraps a caller function.
type Renderer[R Record] struct {
	fn func(value any, row R, index int) Cell
}

// Default renders the stringified value, or "-" when it is empty.
func Default[R Record]() Renderer[R] {
	return Renderer[R]{}
}

// Custom renders through fn. index is the row position on the current page.
func Custom[R Record](fn func(value any, row R, index int) Cell) Renderer[R] {
	return Renderer[R]{fn: fn}
}

func (r Renderer[R]) IsCustom() bool {
	return r.fn != nil
}

func (r Renderer[R]) Render(value any, row R, index int) Cell {
	if r.fn != nil {
		return r.fn(value, row, index)
	}
	s, ok := Stringify(value)
	if !ok || s == "" {
		return Text("-")
	}
	return Text(s)
}

// Column describes one rendered field.
type Column[R Record] struct {
	Key    string
	Label  string
	Render Renderer[R]
}

// Col builds a column using the default renderer.
func Col[R Record](key, label string) Column[R] {
	return Column[R]{Key: key, Label: label}
}

// Stringify converts a raw field value to its display form. It reports false
// for nil values, which never match a search.
func Stringify(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case []string:
		return strings.Join(v, ","), true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.Format(time.RFC3339), true
	case *time.Time:
		if v == nil || v.IsZero() {
			return "", false
		}
		return v.Format(time.RFC3339), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
