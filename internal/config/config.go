// Package config loads server settings with viper from, in increasing
// precedence, built-in defaults, an optional YAML file, HIOLOAD_* environment
// variables and bound command-line flags.
//
// Keys mirror the YAML layout (server.port, shard.count, log.level, ...); the
// environment form replaces dots with underscores (HIOLOAD_SHARD_COUNT).
package config

import (
	"fmt"
	"strings"

	"github.com/momentics/hioload-shard/internal/logging"
	"github.com/momentics/hioload-shard/server"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HIOLOAD"

// EnvConfigFile names the environment variable holding a config file path.
const EnvConfigFile = EnvPrefix + "_CONFIG_FILE"

// LogConfig selects the logger level and encoder.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Config is the full effective configuration.
type Config struct {
	server.Config `mapstructure:",squash" yaml:",inline"`
	Log           LogConfig `mapstructure:"log" yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Config: server.DefaultConfig(),
		Log:    LogConfig{Level: "info", Format: logging.FormatConsole},
	}
}

// New returns a viper instance with defaults and environment binding set
// up. If file is non-empty it is read as YAML and must exist.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}
	return v, nil
}

// SetDefaults registers every known key so environment overrides apply
// even when no file sets them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	for k, val := range d.Settings() {
		v.SetDefault(k, val)
	}
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &c, nil
}

// Validate checks server and logging settings.
func (c Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case logging.FormatConsole, logging.FormatJSON:
		return nil
	}
	return fmt.Errorf("log.format %q: want %s or %s", c.Log.Format, logging.FormatConsole, logging.FormatJSON)
}
