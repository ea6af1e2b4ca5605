// Package export writes list view rows to CSV or PDF.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/focitech/focitech/engine/listview"
)

// Format is an export file type.
type Format string

const (
	CSV Format = "csv"
	PDF Format = "pdf"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, PDF:
		return f, nil
	case "":
		return CSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == PDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns base-YYYYMMDD.ext.
func (f Format) Filename(base string, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", base, now.Format("20060102"), f)
}

// Table is a titled grid of exported cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Collector accumulates rows handed to it by a view's OnExport callback.
type Collector[R listview.Record] struct {
	keys  []string
	table Table
}

func NewCollector[R listview.Record](title string, columns []listview.Column[R]) *Collector[R] {
	c := &Collector[R]{table: Table{Title: title}}
	for _, col := range columns {
		c.keys = append(c.keys, col.Key)
		c.table.Headers = append(c.table.Headers, col.Label)
	}
	return c
}

// Add records one row. Its signature matches listview.Actions.OnExport.
func (c *Collector[R]) Add(row R, _ int) {
	cells := make([]string, len(c.keys))
	for i, key := range c.keys {
		s, _ := listview.Stringify(row.Field(key))
		cells[i] = s
	}
	c.table.Rows = append(c.table.Rows, cells)
}

func (c *Collector[R]) Reset() {
	c.table.Rows = nil
}

func (c *Collector[R]) Table() *Table {
	return &c.table
}

// Write encodes t in format f.
func Write(w io.Writer, f Format, t *Table) error {
	switch f {
	case CSV:
		return WriteCSV(w, t)
	case PDF:
		return WritePDF(w, t)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteCSV writes the header line followed by every row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range t.Rows {
		safe := make([]string, len(row))
		for i, cell := range row {
			safe[i] = neutralize(cell)
		}
		if err := cw.Write(safe); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// neutralize stops spreadsheet apps from evaluating submitted text as a formula.
func neutralize(cell string) string {
	if cell != "" && strings.ContainsRune("=+-@", rune(cell[0])) {
		return "'" + cell
	}
	return cell
}
