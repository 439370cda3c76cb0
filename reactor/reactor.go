// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Package reactor provides the level-triggered readiness reactor used by the
// event loop. The Linux implementation is epoll(7) with an eventfd(2) wake
// source; other platforms get a stub that reports ErrNotSupported.
//
// Descriptors are always registered level-triggered. The event loop performs
// exactly one bounded read per readiness report and relies on the kernel
// re-reporting a descriptor while unread data remains. Switching to
// edge-triggered mode would require draining until EAGAIN on every event.
package reactor

import "github.com/momentics/hioload-shard/api"

// Compile-time interface compliance for the platform implementation.
var _ func() (api.Reactor, error) = New
