// File: server/server.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server wires the reactor, listener, shard queues, worker pool and event
// loop together and owns their lifecycle.

package server

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"

	"github.com/momentics/hioload-shard/api"
	"github.com/momentics/hioload-shard/control"
	"github.com/momentics/hioload-shard/internal/concurrency"
	"github.com/momentics/hioload-shard/internal/eventloop"
	"github.com/momentics/hioload-shard/internal/logging"
	"github.com/momentics/hioload-shard/internal/session"
	"github.com/momentics/hioload-shard/internal/transport"
	"github.com/momentics/hioload-shard/pool"
	"github.com/momentics/hioload-shard/reactor"
	"go.uber.org/zap"
)

var _ api.GracefulShutdown = (*Server)(nil)

// ErrAlreadyRunning is returned by a second Run.
var ErrAlreadyRunning = errors.New("server already running")

// Server is the high-level facade over one listening port.
type Server struct {
	cfg   Config
	log   *zap.Logger
	ctrl  *control.Controller
	write eventloop.WriteFunc

	addr    netip.AddrPort
	shards  *concurrency.ShardSet[session.Request]
	workers *concurrency.WorkerPool[session.Request]
	loop    *eventloop.Loop
	bufs    *pool.BytePool
	probes  []string

	mu      sync.Mutex
	started bool
	ready   chan struct{}
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New validates cfg, opens the listener and reactor, and builds the shard
// pipeline. Socket or reactor failures are returned as ErrCodeStartup.
func New(cfg Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:   cfg,
		log:   zap.NewNop(),
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.ctrl == nil {
		s.ctrl = control.NewController()
	}

	r, err := reactor.New()
	if err != nil {
		return nil, api.WrapError(api.ErrCodeStartup, "create reactor", err)
	}
	ln, err := transport.Listen(transport.ListenConfig{
		BindAddr: cfg.Server.BindAddr,
		Port:     cfg.Server.Port,
	})
	if err != nil {
		_ = r.Close()
		return nil, api.WrapError(api.ErrCodeStartup, "listen", err).
			WithContext("port", cfg.Server.Port)
	}
	s.addr = ln.Addr

	metrics := s.ctrl.Metrics()
	closeq := session.NewCloseQueue()
	s.bufs = pool.NewBytePool(cfg.Shard.MaxPayload)
	s.shards = concurrency.NewShardSet[session.Request](cfg.Shard.Count, cfg.Shard.QueueCapacity)
	s.loop = eventloop.New(eventloop.Config{
		MaxPayload:   cfg.Shard.MaxPayload,
		MaxEvents:    cfg.Server.MaxEvents,
		PollTimeout:  cfg.Server.PollTimeout,
		Overflow:     cfg.Shard.OverflowPolicy,
		BlockTimeout: cfg.Shard.BlockTimeout,
	}, eventloop.Deps{
		Reactor:  r,
		Listener: ln,
		Shards:   s.shards,
		Registry: session.NewRegistry(cfg.Server.MaxConnections),
		CloseQ:   closeq,
		Buffers:  s.bufs,
		Metrics:  metrics,
		Log:      logging.Named(s.log, "eventloop"),
	})
	responder := &eventloop.Responder{
		MaxPayload:   cfg.Shard.MaxPayload,
		WriteTimeout: cfg.Shard.WriteTimeout,
		Buffers:      s.bufs,
		CloseQ:       closeq,
		Waker:        s.loop,
		Metrics:      metrics,
		Log:          logging.Named(s.log, "worker"),
		Write:        s.write,
	}
	s.workers = concurrency.NewWorkerPool(s.shards, responder.Handle, logging.Named(s.log, "workers"))

	s.registerProbes()
	s.ctrl.Config().SetConfig(cfg.Settings())
	return s, nil
}

func (s *Server) registerProbes() {
	probe := func(name string, fn func() any) {
		s.ctrl.RegisterDebugProbe(name, fn)
		s.probes = append(s.probes, name)
	}
	for i := 0; i < s.shards.Count(); i++ {
		q := s.shards.Shard(i)
		probe(fmt.Sprintf("shard.%d.len", i), func() any { return q.Len() })
	}
	probe("sessions.active", func() any { return s.loop.Active() })
	probe("buffers.in_use", func() any { return s.bufs.Stats().InUse })
}

// unregisterProbes drops this server's probes so a controller shared across
// restarts does not keep sampling a stopped pipeline.
func (s *Server) unregisterProbes() {
	for _, name := range s.probes {
		s.ctrl.UnregisterDebugProbe(name)
	}
	s.probes = nil
}

// Started is closed once Run has started the workers and entered the event
// loop.
func (s *Server) Started() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listening address.
func (s *Server) Addr() netip.AddrPort {
	return s.addr
}

// Run starts the workers and runs the event loop on the calling goroutine
// until ctx is done or Shutdown is called. On return every socket is closed
// and every worker has exited.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.stopped:
		s.mu.Unlock()
		return api.ErrServerClosed
	case s.started:
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	s.started = true
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	s.workers.Start()
	close(s.ready)
	s.log.Info("server listening",
		zap.Stringer("addr", s.addr),
		zap.Int("shards", s.cfg.Shard.Count),
		zap.Int("queue_capacity", s.cfg.Shard.QueueCapacity),
		zap.Int("max_payload", s.cfg.Shard.MaxPayload))

	err := s.loop.Run(ctx)
	if err != nil {
		s.log.Error("event loop failed", zap.Error(err))
	}
	s.workers.Stop()
	if cerr := s.loop.Close(); cerr != nil && err == nil {
		err = cerr
	}
	s.unregisterProbes()

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.log.Info("server stopped", zap.Any("stats", s.ctrl.Metrics().GetSnapshot()))
	close(s.done)
	return err
}

// Shutdown stops intake, drains in-flight work and releases resources,
// waiting at most Server.ShutdownTimeout.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.ShutdownContext(ctx)
}

// ShutdownContext is Shutdown bounded by ctx. It is idempotent; a server
// that never ran just releases its sockets.
func (s *Server) ShutdownContext(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		if s.stopped {
			s.mu.Unlock()
			return nil
		}
		s.stopped = true
		s.mu.Unlock()
		err := s.loop.Close()
		s.unregisterProbes()
		close(s.done)
		return err
	}
	s.cancel()
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown: %w", ctx.Err())
	}
}

// Done is closed once the server has fully stopped.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Control exposes runtime metrics and debug probes.
func (s *Server) Control() api.Control {
	return s.ctrl
}

// Stats returns a snapshot of counters, probes and settings.
func (s *Server) Stats() map[string]any {
	return s.ctrl.Stats()
}

// Metrics returns the counter registry.
func (s *Server) Metrics() *control.MetricsRegistry {
	return s.ctrl.Metrics()
}
