// File: server/supervisor.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Supervisor restarts the server in-process when asked to, replacing the
// re-exec-on-SIGHUP pattern: the running generation is drained and stopped
// before the next one binds the port.

package server

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-shard/api"
	"go.uber.org/zap"
)

// Factory builds a fresh server, typically after reloading configuration.
type Factory func() (*Server, error)

// Supervisor runs successive server generations.
type Supervisor struct {
	build       Factory
	restart     <-chan struct{}
	log         *zap.Logger
	generations atomic.Int64
	current     atomic.Pointer[Server]
}

// NewSupervisor creates a supervisor. A receive on restart stops the current
// generation and starts the next; restart may be nil.
func NewSupervisor(build Factory, restart <-chan struct{}, log *zap.Logger) *Supervisor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Supervisor{build: build, restart: restart, log: log}
}

// Run blocks until ctx is done, a generation fails on its own, or a
// rebuild fails.
func (sv *Supervisor) Run(ctx context.Context) error {
	for {
		srv, err := sv.build()
		if err != nil {
			return err
		}
		sv.current.Store(srv)
		gen := sv.generations.Add(1)
		sv.log.Info("server generation started", zap.Int64("generation", gen), zap.Stringer("addr", srv.Addr()))

		errc := make(chan error, 1)
		go func() { errc <- srv.Run(ctx) }()

		select {
		case <-ctx.Done():
			return sv.stop(srv, errc)
		case err := <-errc:
			if err == nil && ctx.Err() == nil {
				err = errors.New("server stopped unexpectedly")
			}
			return err
		case <-sv.restart:
			sv.log.Info("restart requested", zap.Int64("generation", gen))
			if err := sv.stop(srv, errc); err != nil {
				return err
			}
		}
	}
}

// stop shuts srv down and collects the result of its Run.
func (sv *Supervisor) stop(srv *Server, errc <-chan error) error {
	if err := srv.Shutdown(); err != nil {
		sv.log.Warn("shutdown incomplete", zap.Error(err))
		return err
	}
	select {
	case err := <-errc:
		if errors.Is(err, api.ErrServerClosed) {
			// Shut down before Run got going.
			return nil
		}
		return err
	case <-time.After(srv.cfg.Server.ShutdownTimeout):
		return errors.New("server run did not return after shutdown")
	}
}

// Generations returns how many servers have been started.
func (sv *Supervisor) Generations() int64 {
	return sv.generations.Load()
}

// Current returns the most recently started server, or nil.
func (sv *Supervisor) Current() *Server {
	return sv.current.Load()
}
