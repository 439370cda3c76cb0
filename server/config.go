// File: server/config.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server configuration, defaults and validation.

package server

import (
	"fmt"
	"time"

	"github.com/momentics/hioload-shard/api"
	"github.com/momentics/hioload-shard/protocol"
)

// ListenConfig controls the listening socket and the event loop.
type ListenConfig struct {
	BindAddr        string        `mapstructure:"bind_addr" yaml:"bind_addr"`
	Port            int           `mapstructure:"port" yaml:"port"`
	MaxConnections  int           `mapstructure:"max_connections" yaml:"max_connections"` // 0 = unbounded
	PollTimeout     time.Duration `mapstructure:"poll_timeout" yaml:"poll_timeout"`
	MaxEvents       int           `mapstructure:"max_events" yaml:"max_events"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ShardConfig controls the shard queues and their workers.
type ShardConfig struct {
	Count          int                `mapstructure:"count" yaml:"count"`
	QueueCapacity  int                `mapstructure:"queue_capacity" yaml:"queue_capacity"`
	MaxPayload     int                `mapstructure:"max_payload" yaml:"max_payload"`
	OverflowPolicy api.OverflowPolicy `mapstructure:"overflow_policy" yaml:"overflow_policy"`
	BlockTimeout   time.Duration      `mapstructure:"block_timeout" yaml:"block_timeout"`
	WriteTimeout   time.Duration      `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// Config holds all server-side configuration parameters.
type Config struct {
	Server ListenConfig `mapstructure:"server" yaml:"server"`
	Shard  ShardConfig  `mapstructure:"shard" yaml:"shard"`
}

// DefaultConfig returns the defaults used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		Server: ListenConfig{
			BindAddr:        "0.0.0.0",
			Port:            9000,
			MaxConnections:  20,
			PollTimeout:     10 * time.Second,
			MaxEvents:       128,
			ShutdownTimeout: 5 * time.Second,
		},
		Shard: ShardConfig{
			Count:          2,
			QueueCapacity:  4096,
			MaxPayload:     512,
			OverflowPolicy: api.OverflowDrop,
			BlockTimeout:   50 * time.Millisecond,
			WriteTimeout:   10 * time.Second,
		},
	}
}

// Validate checks every field and reports the first offending key.
func (c Config) Validate() error {
	s, sh := c.Server, c.Shard
	switch {
	case s.Port < 0 || s.Port > 65535:
		return invalid("server.port", s.Port, "must be in [0, 65535]")
	case s.MaxConnections < 0:
		return invalid("server.max_connections", s.MaxConnections, "must be >= 0")
	case s.PollTimeout <= 0:
		return invalid("server.poll_timeout", s.PollTimeout, "must be positive")
	case s.MaxEvents < 1:
		return invalid("server.max_events", s.MaxEvents, "must be >= 1")
	case s.ShutdownTimeout <= 0:
		return invalid("server.shutdown_timeout", s.ShutdownTimeout, "must be positive")
	case sh.Count < 1:
		return invalid("shard.count", sh.Count, "must be >= 1")
	case sh.QueueCapacity < 1:
		return invalid("shard.queue_capacity", sh.QueueCapacity, "must be >= 1")
	case sh.MaxPayload < protocol.MinMaxPayload:
		return invalid("shard.max_payload", sh.MaxPayload, fmt.Sprintf("must be >= %d", protocol.MinMaxPayload))
	case !sh.OverflowPolicy.Valid():
		return invalid("shard.overflow_policy", sh.OverflowPolicy, "must be drop, block or reject")
	case sh.OverflowPolicy == api.OverflowBlock && sh.BlockTimeout <= 0:
		return invalid("shard.block_timeout", sh.BlockTimeout, "must be positive with the block policy")
	case sh.WriteTimeout <= 0:
		return invalid("shard.write_timeout", sh.WriteTimeout, "must be positive")
	}
	return nil
}

// Settings flattens the config into dotted keys.
func (c Config) Settings() map[string]any {
	return map[string]any{
		"server.bind_addr":        c.Server.BindAddr,
		"server.port":             c.Server.Port,
		"server.max_connections":  c.Server.MaxConnections,
		"server.poll_timeout":     c.Server.PollTimeout.String(),
		"server.max_events":       c.Server.MaxEvents,
		"server.shutdown_timeout": c.Server.ShutdownTimeout.String(),
		"shard.count":             c.Shard.Count,
		"shard.queue_capacity":    c.Shard.QueueCapacity,
		"shard.max_payload":       c.Shard.MaxPayload,
		"shard.overflow_policy":   string(c.Shard.OverflowPolicy),
		"shard.block_timeout":     c.Shard.BlockTimeout.String(),
		"shard.write_timeout":     c.Shard.WriteTimeout.String(),
	}
}

func invalid(key string, value any, why string) error {
	return api.WrapError(api.ErrCodeInvalidArgument,
		fmt.Sprintf("%s=%v %s", key, value, why), api.ErrInvalidArgument).
		WithContext("key", key)
}
