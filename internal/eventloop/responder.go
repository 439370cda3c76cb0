// File: internal/eventloop/responder.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package eventloop

import (
	"time"

	"github.com/momentics/hioload-shard/api"
	"github.com/momentics/hioload-shard/control"
	"github.com/momentics/hioload-shard/internal/session"
	"github.com/momentics/hioload-shard/internal/transport"
	"github.com/momentics/hioload-shard/pool"
	"github.com/momentics/hioload-shard/protocol"
	"go.uber.org/zap"
)

// Waker interrupts the event loop's readiness wait.
type Waker interface {
	Wake() error
}

// WriteFunc writes all of p to fd. transport.WriteFull in production.
type WriteFunc func(fd int, p []byte, timeout time.Duration) (int, error)

// Responder is the shard worker handler: it turns a Request into an
// acknowledgement and writes it back on the same connection.
type Responder struct {
	MaxPayload   int
	WriteTimeout time.Duration
	Buffers      *pool.BytePool
	CloseQ       *session.CloseQueue
	Waker        Waker
	Metrics      *control.MetricsRegistry
	Log          *zap.Logger
	Write        WriteFunc
}

// Handle implements concurrency.HandlerFunc.
func (r *Responder) Handle(shard int, req session.Request) {
	defer r.Buffers.Release(req.Payload)
	s := req.Session
	if !s.Acquire() {
		r.Metrics.Inc(control.ReqDropped)
		r.Log.Debug("response dropped",
			zap.Int("fd", s.Fd()), zap.Uint64("seq", req.Seq), zap.Error(api.ErrSessionClosed))
		return
	}

	r.Log.Debug("request",
		zap.Int("fd", s.Fd()), zap.Int("shard", shard), zap.Uint64("seq", req.Seq),
		zap.ByteString("line", protocol.TrimLine(req.Payload)))

	if cut := protocol.Truncated(req.Payload, r.MaxPayload); cut > 0 {
		r.Metrics.Inc(control.RespTrunc)
		r.Log.Debug("response truncated",
			zap.Int("fd", s.Fd()), zap.Uint64("seq", req.Seq), zap.Int("dropped_bytes", cut))
	}
	resp := protocol.AppendAck(r.Buffers.Acquire(r.MaxPayload)[:0], req.Payload, r.MaxPayload)
	write := r.Write
	if write == nil {
		write = transport.WriteFull
	}
	n, err := write(s.Fd(), resp, r.WriteTimeout)
	r.Buffers.Release(resp)
	if err != nil {
		r.Metrics.Inc(control.RespFailed)
		fields := []zap.Field{zap.Int("fd", s.Fd()), zap.Uint64("seq", req.Seq), zap.Int("written", n), zap.Error(err)}
		if code := transport.Classify(err); code == api.ErrCodePeerClosed {
			r.Log.Info("peer gone during write", fields...)
		} else {
			r.Log.Error("write failed", fields...)
		}
		s.BeginClose()
	} else {
		r.Metrics.Inc(control.RespWritten)
		r.Metrics.Add(control.BytesOut, int64(n))
	}

	if s.Release() {
		r.CloseQ.Push(s)
		if werr := r.Waker.Wake(); werr != nil {
			r.Log.Warn("wake event loop failed", zap.Error(werr))
		}
	}
}
