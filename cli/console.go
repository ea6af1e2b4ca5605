package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/focitech/focitech/cli/helpers"
	"github.com/focitech/focitech/cli/tui/components"
	"github.com/focitech/focitech/cli/tui/console"
	"github.com/focitech/focitech/engine/api"
	"github.com/focitech/focitech/engine/identity"
	"github.com/focitech/focitech/engine/resource"
	"github.com/focitech/focitech/pkg/config"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	ErrNotInteractive = errors.New("the console needs an interactive terminal")
	ErrAdminRequired  = errors.New("the console is limited to admin accounts")
)

func ConsoleCmd() *cobra.Command {
	var (
		email     string
		exportDir string
	)
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Manage inquiries, projects, team, openings and applications in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, email, exportDir)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Admin email (prompted when empty)")
	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "Directory for CSV exports")
	return cmd
}

func runConsole(cmd *cobra.Command, email, exportDir string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	log := logger.FromContext(ctx)
	if !helpers.IsInteractive() {
		return ErrNotInteractive
	}
	idp, err := identity.NewClient(&cfg.Identity)
	if err != nil {
		if errors.Is(err, identity.ErrNotConfigured) {
			return fmt.Errorf("sign in is not configured; set SUPABASE_URL: %w", err)
		}
		return err
	}
	provider := identity.NewProvider(idp)
	unsubscribe := provider.Subscribe(func(event identity.Event, _ *identity.Session) {
		log.Debug("Auth state changed", "event", event)
	})
	defer unsubscribe()

	fmt.Fprintln(cmd.OutOrStdout(), components.RenderASCIIHeader(0))
	form, err := promptLogin(ctx, email)
	if err != nil {
		return err
	}
	sess, err := provider.SignIn(ctx, form)
	if err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}
	defer func() {
		if err := provider.SignOut(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to sign out", "error", err)
		}
	}()
	if !sess.User.IsAdmin() {
		return ErrAdminRequired
	}
	client, err := api.New(&cfg.API, api.WithTokenSource(provider))
	if err != nil {
		return fmt.Errorf("failed to build api client: %w", err)
	}
	model, err := console.New(ctx, client, sess.User.DisplayName(), console.WithExportDir(exportDir))
	if err != nil {
		return err
	}
	defer model.Close()
	log.Info("Starting console", "user", sess.User.Email, "api", client.BaseURL())
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("console stopped: %w", err)
	}
	return nil
}

func promptLogin(ctx context.Context, email string) (resource.LoginForm, error) {
	form := resource.LoginForm{Email: email}
	required := func(label string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", label)
			}
			return nil
		}
	}
	f := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Email").Value(&form.Email).Validate(required("email")),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&form.Password).Validate(required("password")),
	).Title("Sign in"))
	if err := components.RunForm(ctx, f); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return form, errors.New("sign in cancelled")
		}
		return form, err
	}
	form.Normalize()
	return form, nil
}
