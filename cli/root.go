package cli

import (
	"fmt"

	"github.com/focitech/focitech/pkg/config"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	defaultConfigFile = "focitech.yaml"
	defaultEnvFile    = ".env"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "focitech",
		Short:             "Focitech agency website and admin console",
		SilenceUsage:      true,
		PersistentPreRunE: setupCommand,
	}
	addGlobalFlags(root)
	root.AddCommand(
		ServeCmd(),
		ConsoleCmd(),
		ConfigCmd(),
	)
	return root
}

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", defaultConfigFile, "Path to the YAML configuration file")
	flags.String("env-file", defaultEnvFile, "Path to a dotenv file loaded before configuration")
	flags.String("log-level", string(logger.InfoLevel), "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", false, "Emit logs as JSON")
	flags.Bool("log-source", false, "Include source locations in logs")
	flags.String("host", "", "Server host")
	flags.Int("port", 0, "Server port")
	flags.String("api-url", "", "Backend REST API base URL")
	flags.Duration("api-timeout", 0, "Backend request timeout")
	flags.String("session-store", "", "Session store (memory or redis)")
	flags.String("redis-url", "", "Redis URL for sessions and rate limits")
	flags.String("database-url", "", "Postgres URL for the team directory")
	flags.String("supabase-url", "", "Supabase project URL")
}

// setupCommand loads configuration and attaches it, plus a logger, to the
// command context.
func setupCommand(cmd *cobra.Command, _ []string) error {
	level, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cmd.Flags().Changed("log-level") && cfg.Runtime.LogLevel != "" {
		level = cfg.Runtime.LogLevel
	}
	log := logger.SetupLogger(level, logJSON, logSource)
	ctx := logger.ContextWithLogger(cmd.Context(), log)
	ctx = config.ContextWithConfig(ctx, cfg)
	cmd.SetContext(ctx)
	log.Debug("Loaded configuration", "environment", cfg.Runtime.Environment, "api", cfg.API.BaseURL)
	return nil
}
