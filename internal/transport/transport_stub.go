//go:build !linux
// +build !linux

// Author: momentics <momentics@gmail.com>
//
// Stub socket layer for platforms without the epoll reactor.

package transport

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/momentics/hioload-shard/api"
)

var errUnsupported = fmt.Errorf("transport: %w on this platform", api.ErrNotSupported)

func Listen(ListenConfig) (*Listener, error) { return nil, errUnsupported }
func Accept(int) (int, netip.AddrPort, error) { return -1, netip.AddrPort{}, errUnsupported }
func Read(int, []byte) (int, error) { return 0, errUnsupported }
func WriteFull(int, []byte, time.Duration) (int, error) { return 0, errUnsupported }
func Shutdown(int) error { return errUnsupported }
func Close(int) error { return errUnsupported }

// Classify maps every error to a fatal socket error on unsupported platforms.
func Classify(err error) api.ErrorCode {
	if err == nil {
		return api.ErrCodeOK
	}
	return api.ErrCodeFatalSocket
}
