package components

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/focitech/focitech/cli/tui/models"
)

// FormWrapper runs a huh form as a standalone program and records how it
// ended.
type FormWrapper struct {
	models.BaseModel
	form      *huh.Form
	canceled  bool
	completed bool
}

func NewFormWrapper(ctx context.Context, form *huh.Form) *FormWrapper {
	return &FormWrapper{
		BaseModel: models.NewBaseModel(ctx),
		form:      form,
	}
}

func (f *FormWrapper) Init() tea.Cmd {
	return f.form.Init()
}

func (f *FormWrapper) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+c" {
		f.canceled = true
		return f, tea.Quit
	}
	f.BaseModel.Update(msg)
	form, cmd := f.form.Update(msg)
	if frm, ok := form.(*huh.Form); ok {
		f.form = frm
		switch f.form.State {
		case huh.StateCompleted:
			f.completed = true
			return f, tea.Quit
		case huh.StateAborted:
			f.canceled = true
			return f, tea.Quit
		}
	}
	return f, cmd
}

func (f *FormWrapper) View() string {
	if f.completed || f.canceled {
		return ""
	}
	return f.form.View()
}

func (f *FormWrapper) IsCanceled() bool {
	return f.canceled
}

func (f *FormWrapper) IsCompleted() bool {
	return f.completed
}

// RunForm shows form until it is submitted or aborted. It returns
// huh.ErrUserAborted when the user backs out.
func RunForm(ctx context.Context, form *huh.Form, opts ...tea.ProgramOption) error {
	w := NewFormWrapper(ctx, form)
	opts = append(opts, tea.WithContext(ctx))
	if _, err := tea.NewProgram(w, opts...).Run(); err != nil {
		return err
	}
	if w.IsCanceled() {
		return huh.ErrUserAborted
	}
	return nil
}
