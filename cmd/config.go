package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/momentics/hioload-shard/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Print the configuration after applying the config file, HIOLOAD_*
environment variables, flags and defaults.

Examples:
  hioload-shard config show
  hioload-shard config show --format json
  HIOLOAD_SERVER_PORT=9100 hioload-shard config show`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, err := loadViper(cmd)
		if err != nil {
			return err
		}
		if _, err := config.Load(v); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd)
	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "output format (yaml, json)")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	v, err := loadViper(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch configFormat {
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		settings := cfg.Settings()
		settings["log.level"] = cfg.Log.Level
		settings["log.format"] = cfg.Log.Format
		return enc.Encode(settings)
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", configFormat)
	}
}
