package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/focitech/focitech/engine/listview"
	"github.com/focitech/focitech/engine/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inquiryColumns() []listview.Column[resource.Inquiry] {
	return []listview.Column[resource.Inquiry]{
		listview.Col[resource.Inquiry]("name", "Name"),
		listview.Col[resource.Inquiry]("email", "Email"),
		listview.Col[resource.Inquiry]("status", "Status"),
	}
}

func TestParseFormat(t *testing.T) {
	t.Run("Should default to csv", func(t *testing.T) {
		f, err := ParseFormat("")
		require.NoError(t, err)
		assert.Equal(t, CSV, f)
	})

	t.Run("Should reject unknown formats", func(t *testing.T) {
		_, err := ParseFormat("xlsx")
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})

	t.Run("Should build a dated filename", func(t *testing.T) {
		f, err := ParseFormat(" PDF ")
		require.NoError(t, err)
		assert.Equal(t, "inquiries-20261017.pdf", f.Filename("inquiries", time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)))
		assert.Equal(t, "application/pdf", f.ContentType())
	})
}

func TestCollector(t *testing.T) {
	t.Run("Should collect exactly the filtered rows in display order", func(t *testing.T) {
		cols := inquiryColumns()
		c := NewCollector("Inquiries", cols)
		data := []resource.Inquiry{
			{ID: 1, Name: "Zed", Email: "zed@acme.io", Status: resource.InquiryPending},
			{ID: 2, Name: "Amy", Email: "amy@acme.io", Status: resource.InquiryResolved},
			{ID: 3, Name: "Bob", Email: "bob@other.io", Status: resource.InquirySpam},
		}
		opts := listview.DefaultOptions()
		view, err := listview.New(cols, data, opts, listview.Actions[resource.Inquiry]{OnExport: c.Add})
		require.NoError(t, err)
		view.Search("acme")
		require.NoError(t, view.Sort("name"))

		n := view.Export()

		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"Name", "Email", "Status"}, c.Table().Headers)
		assert.Equal(t, [][]string{
			{"Amy", "amy@acme.io", "resolved"},
			{"Zed", "zed@acme.io", "pending"},
		}, c.Table().Rows)

		c.Reset()
		assert.Empty(t, c.Table().Rows)
	})
}

func TestWriteCSV(t *testing.T) {
	t.Run("Should quote and neutralise formula cells", func(t *testing.T) {
		table := &Table{
			Headers: []string{"Name", "Message"},
			Rows:    [][]string{{"Ada, L.", "=HYPERLINK(\"x\")"}, {"Bob", "hello"}},
		}
		var buf bytes.Buffer

		require.NoError(t, Write(&buf, CSV, table))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"Name", "Message"},
			{"Ada, L.", "'=HYPERLINK(\"x\")"},
			{"Bob", "hello"},
		}, records)
	})
}

func TestWritePDF(t *testing.T) {
	t.Run("Should render a multi page document", func(t *testing.T) {
		table := &Table{Title: "Applications", Headers: []string{"Name", "Email", "Cover letter"}}
		for range 80 {
			table.Rows = append(table.Rows, []string{"Ada Lovelace", "ada@example.com", strings.Repeat("long text ", 40)})
		}
		var buf bytes.Buffer

		require.NoError(t, WritePDF(&buf, table))

		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
		assert.Greater(t, bytes.Count(buf.Bytes(), []byte("/Type /Page\n")), 1)
	})
}
