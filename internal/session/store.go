// File: internal/session/store.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Connection registry owned by the event loop.

package session

import "sort"

// Registry maps live descriptors to their sessions. It is owned by the event
// loop goroutine and is not safe for concurrent use; other goroutines learn
// about sessions only through Requests and the CloseQueue.
type Registry struct {
	limit    int
	sessions map[int]*Session
}

// NewRegistry creates a registry admitting at most limit sessions
// (limit <= 0 means unbounded).
func NewRegistry(limit int) *Registry {
	return &Registry{limit: limit, sessions: make(map[int]*Session)}
}

// Full reports whether admitting one more session would exceed the limit.
func (r *Registry) Full() bool {
	return r.limit > 0 && len(r.sessions) >= r.limit
}

// Add stores s under its descriptor.
func (r *Registry) Add(s *Session) {
	r.sessions[s.fd] = s
}

// Get fetches a session if present.
func (r *Registry) Get(fd int) (*Session, bool) {
	s, ok := r.sessions[fd]
	return s, ok
}

// Remove deletes the entry for s. A newer session that happens to share the
// descriptor number is left untouched.
func (r *Registry) Remove(s *Session) bool {
	if cur, ok := r.sessions[s.fd]; ok && cur == s {
		delete(r.sessions, s.fd)
		return true
	}
	return false
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

// Range applies fn to all sessions in descriptor order.
func (r *Registry) Range(fn func(*Session)) {
	fds := make([]int, 0, len(r.sessions))
	for fd := range r.sessions {
		fds = append(fds, fd)
	}
	sort.Ints(fds)
	for _, fd := range fds {
		fn(r.sessions[fd])
	}
}
