// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract interface for level-triggered readiness reactors.

package api

import "time"

// Event encapsulates the result of an OS-level readiness notification
type Event struct {
	Fd       int  // file descriptor reported ready
	Readable bool // data (or a pending accept) is available
	Hangup   bool // peer hung up or the descriptor is in error
}

// Reactor multiplexes readiness for a set of descriptors.
type Reactor interface {
	// Add registers fd for read-readiness.
	Add(fd int) error
	// Remove deregisters fd. It must be called before fd is closed.
	Remove(fd int) error
	// Wait blocks up to timeout (negative = forever) and fills events.
	Wait(events []Event, timeout time.Duration) (int, error)
	// Wake interrupts a concurrent Wait.
	Wake() error
	// Close releases the reactor's descriptors.
	Close() error
}
