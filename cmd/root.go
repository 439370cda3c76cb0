// Package cmd provides the hioload-shard command line.
//
// Configuration sources, highest precedence first:
//  1. command-line flags (--port, --shards, ...)
//  2. HIOLOAD_<SECTION>_<OPTION> environment variables (HIOLOAD_SHARD_COUNT)
//  3. the YAML file named by --config or HIOLOAD_CONFIG_FILE
//  4. built-in defaults
package cmd

import (
	"os"

	"github.com/momentics/hioload-shard/internal/config"
	"github.com/momentics/hioload-shard/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hioload-shard",
	Short: "Sharded readiness-driven TCP acknowledgement server",
	Long: `hioload-shard accepts TCP connections on one epoll-driven event loop,
pins every connection to a shard, and answers each received chunk from that
shard's worker with the chunk (trailing CR/LF removed) followed by ":OK\r\n".

Quick Start:
  hioload-shard serve                       Listen on 0.0.0.0:9000
  hioload-shard serve --port 9100 --shards 4
  hioload-shard config show                 Print the effective configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (YAML; can also use "+config.EnvConfigFile+")")
	pf.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", logging.FormatConsole, "log format (console, json)")
}

// configFile resolves the config file path: flag first, then environment.
func configFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return os.Getenv(config.EnvConfigFile)
}

// loadViper builds a viper instance and binds the given flag sets to their
// config keys.
func loadViper(cmd *cobra.Command) (*viper.Viper, error) {
	v, err := config.New(configFile())
	if err != nil {
		return nil, err
	}
	bind := map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
	}
	for key, name := range flagKeys {
		bind[key] = name
	}
	for key, name := range bind {
		if f := lookupFlag(cmd, name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}
	return cmd.InheritedFlags().Lookup(name)
}

// newLogger builds the process logger from the loaded config.
func newLogger(c *config.Config) (*zap.Logger, error) {
	return logging.New(c.Log.Level, c.Log.Format)
}
