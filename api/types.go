// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

// ConnState enumerates the lifecycle of an accepted connection.
type ConnState int32

const (
	ConnAccepted ConnState = iota
	ConnActive
	ConnClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnAccepted:
		return "accepted"
	case ConnActive:
		return "active"
	case ConnClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// OverflowPolicy selects what the event loop does when a shard is full.
type OverflowPolicy string

const (
	// OverflowDrop discards the new message and logs it.
	OverflowDrop OverflowPolicy = "drop"
	// OverflowBlock waits up to a bounded timeout for room, then drops.
	OverflowBlock OverflowPolicy = "block"
	// OverflowReject closes the connection whose message did not fit.
	OverflowReject OverflowPolicy = "reject"
)

// Valid reports whether p is a known policy.
func (p OverflowPolicy) Valid() bool {
	switch p {
	case OverflowDrop, OverflowBlock, OverflowReject:
		return true
	}
	return false
}
