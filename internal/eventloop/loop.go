// File: internal/eventloop/loop.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package eventloop

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-shard/api"
	"github.com/momentics/hioload-shard/control"
	"github.com/momentics/hioload-shard/internal/concurrency"
	"github.com/momentics/hioload-shard/internal/session"
	"github.com/momentics/hioload-shard/internal/transport"
	"github.com/momentics/hioload-shard/pool"
	"go.uber.org/zap"
)

// drainRounds bounds the zero-timeout polls performed after intake stops.
const drainRounds = 64

// Config tunes the loop.
type Config struct {
	MaxPayload   int
	MaxEvents    int
	PollTimeout  time.Duration
	Overflow     api.OverflowPolicy
	BlockTimeout time.Duration
}

// Deps are the collaborators the loop drives. The loop takes ownership of
// the listener and every accepted descriptor.
type Deps struct {
	Reactor  api.Reactor
	Listener *transport.Listener
	Shards   *concurrency.ShardSet[session.Request]
	Registry *session.Registry
	CloseQ   *session.CloseQueue
	Buffers  *pool.BytePool
	Metrics  *control.MetricsRegistry
	Log      *zap.Logger
}

// Loop is the single readiness-driven I/O goroutine.
type Loop struct {
	cfg      Config
	reactor  api.Reactor
	listener *transport.Listener
	shards   *concurrency.ShardSet[session.Request]
	registry *session.Registry
	closeq   *session.CloseQueue
	bufs     *pool.BytePool
	metrics  *control.MetricsRegistry
	log      *zap.Logger

	events         []api.Event
	seq            uint64
	listening      bool
	listenerClosed bool
	stopping       atomic.Bool
	active         atomic.Int64
}

// New wires a loop. It does not touch any descriptor until Run.
func New(cfg Config, d Deps) *Loop {
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = 128
	}
	if !cfg.Overflow.Valid() {
		cfg.Overflow = api.OverflowDrop
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	metrics := d.Metrics
	if metrics == nil {
		metrics = control.NewMetricsRegistry()
	}
	return &Loop{
		cfg:      cfg,
		reactor:  d.Reactor,
		listener: d.Listener,
		shards:   d.Shards,
		registry: d.Registry,
		closeq:   d.CloseQ,
		bufs:     d.Buffers,
		metrics:  metrics,
		log:      log,
		events:   make([]api.Event, cfg.MaxEvents),
	}
}

// Run processes readiness events until ctx is done, then stops accepting and
// drains readable connections. The caller stops the workers and calls Close
// afterwards.
func (l *Loop) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if l.listener != nil {
		if err := l.reactor.Add(l.listener.Fd); err != nil {
			return api.WrapError(api.ErrCodeStartup, "register listener", err)
		}
		l.listening = true
	}
	stop := context.AfterFunc(ctx, func() {
		l.stopping.Store(true)
		_ = l.reactor.Wake()
	})
	defer stop()

	l.log.Info("event loop started",
		zap.Int("shards", l.shards.Count()),
		zap.Int("max_payload", l.cfg.MaxPayload),
		zap.String("overflow", string(l.cfg.Overflow)))

	for !l.stopping.Load() {
		n, err := l.reactor.Wait(l.events, l.cfg.PollTimeout)
		if err != nil {
			return fmt.Errorf("event loop: %w", err)
		}
		if n == 0 {
			l.log.Debug("poll idle", zap.Int("connections", l.registry.Len()))
		}
		l.dispatch(l.events[:n])
		l.reap()
	}
	l.drain()
	return nil
}

// Wake interrupts the readiness wait. Safe from any goroutine.
func (l *Loop) Wake() error {
	return l.reactor.Wake()
}

// Active returns the number of registered connections. Safe from any goroutine.
func (l *Loop) Active() int64 {
	return l.active.Load()
}

func (l *Loop) dispatch(events []api.Event) {
	for _, ev := range events {
		l.safe(ev)
	}
}

// safe isolates one descriptor's failure from the rest of the loop.
func (l *Loop) safe(ev api.Event) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("event handler recovered from panic", zap.Int("fd", ev.Fd), zap.Any("panic", r))
		}
	}()
	if l.listening && ev.Fd == l.listener.Fd {
		l.accept()
		return
	}
	l.serve(ev)
}

func (l *Loop) accept() {
	fd, peer, err := transport.Accept(l.listener.Fd)
	if err != nil {
		if !transport.IsTransient(err) {
			l.log.Warn("accept failed", zap.Error(err))
		}
		return
	}
	if l.registry.Full() {
		l.log.Warn("connection is full, cannot accept",
			zap.Stringer("peer", peer), zap.Int("connections", l.registry.Len()))
		_ = transport.Close(fd)
		l.metrics.Inc(control.ConnRejected)
		return
	}
	s := session.New(fd, l.shards.For(fd), peer)
	if err := l.reactor.Add(fd); err != nil {
		l.log.Error("register connection failed", zap.Int("fd", fd), zap.Error(err))
		_ = transport.Close(fd)
		return
	}
	l.registry.Add(s)
	s.Activate()
	l.active.Store(int64(l.registry.Len()))
	l.metrics.Inc(control.ConnAccepted)
	l.log.Info("accepted",
		zap.Stringer("peer", peer), zap.Int("fd", fd), zap.Int("shard", s.Shard()))
}

func (l *Loop) serve(ev api.Event) {
	s, ok := l.registry.Get(ev.Fd)
	if !ok || !s.Registered() {
		return
	}
	buf := l.bufs.Acquire(l.cfg.MaxPayload)
	n, err := transport.Read(s.Fd(), buf)
	switch {
	case err != nil && transport.IsTransient(err):
		l.bufs.Release(buf)
	case err != nil:
		l.bufs.Release(buf)
		l.log.Error("read failed", zap.Int("fd", s.Fd()), zap.Error(err))
		l.terminate(s)
	case n == 0:
		l.bufs.Release(buf)
		l.log.Debug("recv EOF", zap.Int("fd", s.Fd()))
		l.terminate(s)
	default:
		l.seq++
		l.metrics.Add(control.BytesIn, int64(n))
		l.admit(session.Request{Session: s, Seq: l.seq, Payload: buf[:n]})
	}
}

// admit offers req to its shard and applies the overflow policy when the
// shard is full. A full shard is never overwritten.
func (l *Loop) admit(req session.Request) {
	s := req.Session
	q := l.shards.Shard(s.Shard())
	err := q.Offer(req)
	if err == nil {
		l.metrics.Inc(control.ReqEnqueued)
		return
	}
	if errors.Is(err, api.ErrQueueFull) && l.cfg.Overflow == api.OverflowBlock &&
		q.EnqueueWait(req, l.cfg.BlockTimeout) {
		l.metrics.Inc(control.ReqEnqueued)
		return
	}
	l.bufs.Release(req.Payload)
	l.metrics.Inc(control.ReqDropped)
	fields := []zap.Field{
		zap.Int("fd", s.Fd()), zap.Int("shard", s.Shard()),
		zap.Uint64("seq", req.Seq), zap.Int("bytes", req.Len()),
		zap.Error(err),
	}
	if l.cfg.Overflow == api.OverflowReject {
		l.log.Warn("shard full, closing connection", fields...)
		l.terminate(s)
		return
	}
	l.log.Warn("shard full, message dropped", fields...)
}

// terminate is the read-side detection path.
func (l *Loop) terminate(s *session.Session) {
	s.BeginClose()
	l.retire(s)
}

// retire deregisters s and, once no worker holds it, closes it. It is
// idempotent and runs on the loop goroutine only.
func (l *Loop) retire(s *session.Session) {
	if s.Registered() {
		if err := l.reactor.Remove(s.Fd()); err != nil {
			l.log.Debug("deregister failed", zap.Int("fd", s.Fd()), zap.Error(err))
		}
		s.MarkDeregistered()
	}
	if s.Finalize() {
		l.registry.Remove(s)
		l.active.Store(int64(l.registry.Len()))
		if err := transport.Close(s.Fd()); err != nil {
			l.log.Warn("close failed", zap.Int("fd", s.Fd()), zap.Error(err))
		}
		l.metrics.Inc(control.ConnClosed)
		l.log.Info("closed", zap.Int("fd", s.Fd()), zap.Stringer("peer", s.Peer()))
		return
	}
	if s.Busy() {
		// A worker is mid-write; make it fail fast. It hands the session
		// back through the close queue when it lets go.
		_ = transport.Shutdown(s.Fd())
	}
}

// reap finalizes sessions handed back by workers.
func (l *Loop) reap() {
	if l.closeq != nil {
		l.closeq.Drain(l.retire)
	}
}

// drain stops intake and consumes whatever is still readable.
func (l *Loop) drain() {
	l.closeListener()
	for i := 0; i < drainRounds; i++ {
		n, err := l.reactor.Wait(l.events, 0)
		if err != nil || n == 0 {
			break
		}
		l.dispatch(l.events[:n])
		l.reap()
	}
}

func (l *Loop) closeListener() {
	if l.listener == nil || l.listenerClosed {
		return
	}
	if l.listening {
		if err := l.reactor.Remove(l.listener.Fd); err != nil {
			l.log.Debug("deregister listener failed", zap.Error(err))
		}
		l.listening = false
	}
	_ = transport.Close(l.listener.Fd)
	l.listenerClosed = true
	l.log.Info("stopped accepting")
}

// Close releases the listener, every remaining connection and the reactor.
// Call it after Run has returned and the shard workers have been joined.
func (l *Loop) Close() error {
	l.closeListener()
	l.reap()
	l.registry.Range(func(s *session.Session) {
		l.terminate(s)
	})
	l.active.Store(int64(l.registry.Len()))
	return l.reactor.Close()
}
