// File: server/options.go
// Package server defines functional options for the Server facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/momentics/hioload-shard/control"
	"github.com/momentics/hioload-shard/internal/eventloop"
	"go.uber.org/zap"
)

// Option customizes server initialization.
type Option func(*Server)

// WithLogger sets the logger; components log under named children.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithController shares a controller across server generations.
func WithController(ctrl *control.Controller) Option {
	return func(s *Server) {
		if ctrl != nil {
			s.ctrl = ctrl
		}
	}
}

// WithWriteFunc replaces the response writer used by shard workers.
func WithWriteFunc(fn eventloop.WriteFunc) Option {
	return func(s *Server) {
		s.write = fn
	}
}
