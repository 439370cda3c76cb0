// Package transport
// Author: momentics <momentics@gmail.com>
//
// Raw non-blocking IPv4 TCP socket operations used by the event loop and the
// shard workers. Descriptors are plain ints owned by the caller; nothing in
// this package is registered with the Go runtime netpoller, so the reactor
// can multiplex them directly.

package transport

import (
	"fmt"
	"net/netip"

	"github.com/momentics/hioload-shard/api"
)

// Listener is a bound, listening IPv4 socket.
type Listener struct {
	Fd   int
	Addr netip.AddrPort
}

// ListenConfig describes the listening socket.
type ListenConfig struct {
	BindAddr string // IPv4 literal; empty means 0.0.0.0
	Port     int    // 0 picks an ephemeral port
	Backlog  int    // <= 0 means SOMAXCONN
}

func (c ListenConfig) addr() (netip.Addr, error) {
	if c.BindAddr == "" {
		return netip.IPv4Unspecified(), nil
	}
	a, err := netip.ParseAddr(c.BindAddr)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("bind address %q: %w", c.BindAddr, err)
	}
	if !a.Is4() {
		return netip.Addr{}, fmt.Errorf("bind address %q: %w: not IPv4", c.BindAddr, api.ErrInvalidArgument)
	}
	return a, nil
}

// IsTransient reports whether err should be retried silently.
func IsTransient(err error) bool {
	return Classify(err) == api.ErrCodeTransient
}
