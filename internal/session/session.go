// File: internal/session/session.go
// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-connection lifecycle with a single close owner.
//
// Either the event loop (read side) or a shard worker (write side) may detect
// that a connection is dead; both report it through BeginClose. Only the event
// loop deregisters and closes the descriptor, and only after every worker hold
// taken with Acquire has been released. Finalize flips the state to closed
// exactly once.

package session

import (
	"net/netip"
	"sync"

	"github.com/momentics/hioload-shard/api"
)

// Session holds per-connection state.
type Session struct {
	fd    int
	shard int
	peer  netip.AddrPort

	mu       sync.Mutex
	state    api.ConnState
	closing  bool
	inflight int

	// Touched by the event loop only.
	registered bool
}

// New creates a session in the accepted state.
func New(fd, shard int, peer netip.AddrPort) *Session {
	return &Session{fd: fd, shard: shard, peer: peer, state: api.ConnAccepted}
}

// Fd returns the socket descriptor, which is also the connection identifier.
func (s *Session) Fd() int { return s.fd }

// Shard returns the shard this connection is pinned to.
func (s *Session) Shard() int { return s.shard }

// Peer returns the remote address.
func (s *Session) Peer() netip.AddrPort { return s.peer }

// State returns the current lifecycle state.
func (s *Session) State() api.ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Activate moves an accepted session to active once it is registered for
// read readiness. Called by the event loop only.
func (s *Session) Activate() {
	s.mu.Lock()
	if s.state == api.ConnAccepted {
		s.state = api.ConnActive
	}
	s.mu.Unlock()
	s.registered = true
}

// Registered reports whether the descriptor is still in the reactor's
// interest list. Event loop only.
func (s *Session) Registered() bool { return s.registered }

// MarkDeregistered records removal from the reactor. Event loop only.
func (s *Session) MarkDeregistered() { s.registered = false }

// Acquire takes a write hold. It fails once the session is closing or
// closed, which is what rules out writes after close.
func (s *Session) Acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing || s.state != api.ConnActive {
		return false
	}
	s.inflight++
	return true
}

// Release drops a write hold. It returns true when the caller released the
// last hold of a closing session and must hand it to the event loop.
func (s *Session) Release() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	return s.closing && s.inflight == 0 && s.state != api.ConnClosed
}

// BeginClose marks the session as dying. Only the first caller gets true.
func (s *Session) BeginClose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing || s.state == api.ConnClosed {
		return false
	}
	s.closing = true
	return true
}

// Busy reports whether a worker currently holds the session.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Finalize transitions a closing, idle session to closed. It returns true
// exactly once per session; the caller then owns the descriptor close.
func (s *Session) Finalize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closing || s.inflight > 0 || s.state == api.ConnClosed {
		return false
	}
	s.state = api.ConnClosed
	return true
}
