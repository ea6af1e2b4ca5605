package console

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/resource"
	"github.com/focitech/focitech/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	inquiries []resource.Inquiry
	deleted   []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1"), "/")
	switch {
	case r.Method == http.MethodGet && path == "contact":
		writeJSON(w, http.StatusOK, f.inquiries)
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "contact/"):
		id := strings.TrimPrefix(path, "contact/")
		f.deleted = append(f.deleted, id)
		kept := f.inquiries[:0]
		for _, i := range f.inquiries {
			if strconv.Itoa(i.ID) != id {
				kept = append(kept, i)
			}
		}
		f.inquiries = kept
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && path == "portfolio":
		writeJSON(w, http.StatusOK, []resource.Project{{ID: 1, Title: "Acme Portal", TechStack: []string{"React"}}})
	case r.Method == http.MethodGet && path == "corporate":
		writeJSON(w, http.StatusOK, []resource.TeamMember{{ID: 1, Name: "Kemi Ade", Role: "CTO"}})
	case r.Method == http.MethodGet && path == "careers/openings":
		writeJSON(w, http.StatusOK, []resource.JobOpening{{ID: 7, Title: "Go Engineer", JobType: resource.JobFullTime, IsActive: true}})
	case r.Method == http.MethodGet && path == "careers/applications":
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Applications are unavailable"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	}
}

func (f *fakeAPI) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newConsole(t *testing.T, opts ...Option) (*Model, *fakeAPI) {
	t.Helper()
	fake := &fakeAPI{inquiries: []resource.Inquiry{
		{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com", Subject: "Analytics engine", Status: resource.InquiryPending},
		{ID: 2, Name: "Grace Hopper", Email: "grace@example.com", Subject: "Compiler work", Status: resource.InquiryResolved},
	}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client, err := api.New(&config.APIConfig{BaseURL: srv.URL + "/api/v1", Timeout: 2 * time.Second})
	require.NoError(t, err)
	m, err := New(t.Context(), client, "admin@focitech.dev", opts...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	drain(m, m.Init())
	return m, fake
}

// drain runs cmd and feeds every resulting message back into m until no
// commands remain.
func drain(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			drain(m, c)
		}
		return
	}
	if msg == nil {
		return
	}
	_, next := m.Update(msg)
	drain(m, next)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConsole_Load(t *testing.T) {
	t.Run("Should fill every tab on start", func(t *testing.T) {
		m, _ := newConsole(t)
		view := m.View()
		assert.Contains(t, view, "Ada Lovelace")
		assert.Contains(t, view, "admin@focitech.dev")
		for _, name := range []string{"Inquiries", "Projects", "Team", "Openings", "Applications"} {
			assert.Contains(t, view, name)
		}
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		assert.Nil(t, cmd)
		assert.Contains(t, m.View(), "Acme Portal")
	})
	t.Run("Should report a failed load with the backend detail", func(t *testing.T) {
		m, _ := newConsole(t)
		assert.Contains(t, m.View(), "Applications: Applications are unavailable")
	})
	t.Run("Should cycle tabs backwards", func(t *testing.T) {
		m, _ := newConsole(t)
		m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
		assert.Equal(t, "Applications", m.current().Name())
	})
}

func TestConsole_Delete(t *testing.T) {
	t.Run("Should delete the cursor row after confirmation", func(t *testing.T) {
		m, fake := newConsole(t)
		_, cmd := m.Update(key("d"))
		drain(m, cmd)
		assert.Contains(t, m.View(), "Delete 1 inquiries row(s)? (y/n)")
		_, cmd = m.Update(key("y"))
		drain(m, cmd)
		assert.Equal(t, []string{"1"}, fake.deletedIDs())
		view := m.View()
		assert.Contains(t, view, "Deleted 1 inquiries row(s).")
		assert.NotContains(t, view, "Ada Lovelace")
		assert.Contains(t, view, "Grace Hopper")
	})
	t.Run("Should keep rows when the delete is cancelled", func(t *testing.T) {
		m, fake := newConsole(t)
		_, cmd := m.Update(key("d"))
		drain(m, cmd)
		_, cmd = m.Update(key("n"))
		drain(m, cmd)
		assert.Empty(t, fake.deletedIDs())
		assert.Contains(t, m.View(), "Delete cancelled.")
		assert.Contains(t, m.View(), "Ada Lovelace")
	})
}

func TestConsole_Open(t *testing.T) {
	t.Run("Should show the row detail until escape", func(t *testing.T) {
		m, _ := newConsole(t)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		drain(m, cmd)
		view := m.View()
		assert.Contains(t, view, "Inquiries #1")
		assert.Contains(t, view, "ada@example.com")
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		assert.Nil(t, m.detail)
	})
}

func TestConsole_Export(t *testing.T) {
	t.Run("Should write the visible rows as CSV", func(t *testing.T) {
		dir := t.TempDir()
		now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
		m, _ := newConsole(t, WithExportDir(dir), WithClock(func() time.Time { return now }))
		_, cmd := m.Update(key("x"))
		drain(m, cmd)
		data, err := os.ReadFile(filepath.Join(dir, "inquiries-20261017.csv"))
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "Name,Email,Subject,Status,Received", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "Ada Lovelace,ada@example.com"))
		assert.Contains(t, m.View(), "Exported 2 row(s)")
	})
}

func TestConsole_Keys(t *testing.T) {
	t.Run("Should toggle help and quit on q", func(t *testing.T) {
		m, _ := newConsole(t)
		m.Update(key("?"))
		assert.Contains(t, m.View(), "Keyboard Shortcuts")
		m.Update(key("?"))
		assert.NotContains(t, m.View(), "Keyboard Shortcuts")
		_, cmd := m.Update(key("q"))
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.True(t, m.IsQuitting())
	})
	t.Run("Should send q to the search box while searching", func(t *testing.T) {
		m, _ := newConsole(t)
		m.Update(key("/"))
		m.Update(key("q"))
		assert.False(t, m.IsQuitting())
	})
}
