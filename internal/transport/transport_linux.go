// internal/transport/transport_linux.go
//go:build linux
// +build linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux socket calls via golang.org/x/sys/unix.

package transport

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/momentics/hioload-shard/api"
	"golang.org/x/sys/unix"
)

// Listen creates a non-blocking, close-on-exec, SO_REUSEADDR listening socket.
func Listen(cfg ListenConfig) (*Listener, error) {
	ip, err := cfg.addr()
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	sa := &unix.SockaddrInet4{Port: cfg.Port, Addr: ip.As4()}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("bind %s:%d: %w", ip, cfg.Port, err)
	}
	backlog := cfg.Backlog
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}
	bound, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	return &Listener{Fd: fd, Addr: addrPort(bound)}, nil
}

// Accept takes one pending connection off the listener. The returned
// descriptor is non-blocking and close-on-exec.
func Accept(lfd int) (int, netip.AddrPort, error) {
	for {
		fd, sa, err := unix.Accept4(lfd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return -1, netip.AddrPort{}, err
		}
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		return fd, addrPort(sa), nil
	}
}

// Read performs one read of at most len(buf) bytes.
func Read(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

// WriteFull writes all of p, looping over partial writes. When the socket
// buffer is full it waits for writability; the total time spent waiting is
// bounded by timeout (<= 0 waits indefinitely).
func WriteFull(fd int, p []byte, timeout time.Duration) (int, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	written := 0
	for written < len(p) {
		n, err := unix.SendmsgN(fd, p[written:], nil, nil, unix.MSG_NOSIGNAL)
		if n > 0 {
			written += n
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			if werr := waitWritable(fd, deadline); werr != nil {
				return written, werr
			}
		default:
			return written, err
		}
	}
	return written, nil
}

func waitWritable(fd int, deadline time.Time) error {
	for {
		ms := -1
		if !deadline.IsZero() {
			left := time.Until(deadline)
			if left <= 0 {
				return api.ErrWriteTimeout
			}
			ms = int(left/time.Millisecond) + 1
		}
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
		n, err := unix.Poll(fds, ms)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 && fds[0].Revents&unix.POLLOUT == 0 {
			return unix.EPIPE
		}
		return nil
	}
}

// Shutdown disables both directions without releasing the descriptor, so
// a writer blocked on fd fails fast while the number stays reserved.
func Shutdown(fd int) error {
	return unix.Shutdown(fd, unix.SHUT_RDWR)
}

// Close releases the descriptor.
func Close(fd int) error {
	return unix.Close(fd)
}

// Classify maps a socket error onto the error taxonomy.
func Classify(err error) api.ErrorCode {
	switch {
	case err == nil:
		return api.ErrCodeOK
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return api.ErrCodeTransient
	case errors.Is(err, unix.EPIPE), errors.Is(err, unix.ECONNRESET), errors.Is(err, unix.ENOTCONN):
		return api.ErrCodePeerClosed
	default:
		return api.ErrCodeFatalSocket
	}
}

func addrPort(sa unix.Sockaddr) netip.AddrPort {
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return netip.AddrPortFrom(netip.AddrFrom4(in4.Addr), uint16(in4.Port))
	}
	return netip.AddrPort{}
}
