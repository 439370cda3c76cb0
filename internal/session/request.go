// Package session
// Author: momentics <momentics@gmail.com>

package session

// Request is one readiness-triggered read. It is immutable once enqueued:
// the event loop fills Payload from a pooled buffer and never touches it
// again; the shard worker releases it after the response is written.
type Request struct {
	Session *Session
	Seq     uint64 // arrival order, monotonically increasing per server
	Payload []byte
}

// Len returns the payload length.
func (r Request) Len() int { return len(r.Payload) }
