package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/focitech/focitech/pkg/config"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	formatYAML  = "yaml"
	formatJSON  = "json"
	formatTable = "table"
)

// configSources lists the sources in precedence order. Only flags the user
// actually set are passed on, so flag defaults never mask YAML or env values.
func configSources(cmd *cobra.Command) ([]config.Source, error) {
	flags := cmd.Flags()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cli := make(map[string]any)
	for name := range config.CLIFlagPaths {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		v, err := flagValue(flags, f)
		if err != nil {
			return nil, err
		}
		cli[name] = v
	}
	return []config.Source{
		config.NewDefaultProvider(),
		config.NewYAMLProvider(path),
		config.NewEnvProvider(),
		config.NewCLIProvider(cli),
	}, nil
}

func flagValue(flags *pflag.FlagSet, f *pflag.Flag) (any, error) {
	switch f.Value.Type() {
	case "int":
		return flags.GetInt(f.Name)
	case "duration":
		return flags.GetDuration(f.Name)
	case "bool":
		return flags.GetBool(f.Name)
	default:
		return f.Value.String(), nil
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, config.Service, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	sources, err := configSources(cmd)
	if err != nil {
		return nil, nil, err
	}
	svc := config.NewService()
	cfg, err := svc.Load(cmd.Context(), sources...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, svc, nil
}

// ConfigCmd groups configuration inspection commands.
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(configShowCmd(), configValidateCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Long: `Print the configuration after defaults, the YAML file, environment variables
and flags have been applied. The table format also shows which source set each value.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, svc, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), cfg, svc, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatYAML, "Output format (yaml, json, table)")
	return cmd
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := loadConfig(cmd); err != nil {
				return fmt.Errorf("configuration is invalid: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	}
}

// configMap flattens cfg through its koanf tags so the output uses the same
// keys as the YAML file.
func configMap(cfg *config.Config) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to flatten configuration: %w", err)
	}
	return k, nil
}

func writeConfig(w io.Writer, cfg *config.Config, svc config.Service, format string) error {
	k, err := configMap(cfg)
	if err != nil {
		return err
	}
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(k.Raw()); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(k.Raw())
	case formatTable:
		all := k.All()
		keys := make([]string, 0, len(all))
		for key := range all {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
		for _, key := range keys {
			value := all[key]
			if config.IsSensitiveConfigPath(key) {
				value = config.SensitiveString(fmt.Sprint(value)).String()
			}
			fmt.Fprintf(tw, "%s\t%v\t%s\n", key, value, svc.GetSource(key))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q: use yaml, json or table", format)
	}
}
