//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based reactor implementation and factory.

package reactor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/momentics/hioload-shard/api"
	"golang.org/x/sys/unix"
)

// linuxReactor is an epoll-based, level-triggered event reactor.
type linuxReactor struct {
	epfd   int
	wakefd int
	raw    []unix.EpollEvent
}

// New constructs a new platform-specific Reactor for Linux.
func New() (api.Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	r := &linuxReactor{epfd: epfd, wakefd: wakefd}
	if err := r.Add(wakefd); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(epfd)
		return nil, err
	}
	return r, nil
}

// Add registers fd for level-triggered read readiness.
func (r *linuxReactor) Add(fd int) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLRDHUP,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl add fd=%d: %w", fd, err)
	}
	return nil
}

// Remove deregisters fd from the interest list.
func (r *linuxReactor) Remove(fd int) error {
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del fd=%d: %w", fd, err)
	}
	return nil
}

// Wait blocks up to timeout and fills events with ready descriptors.
// The wake descriptor is drained here and never reported to the caller.
// EINTR is reported as zero events.
func (r *linuxReactor) Wait(events []api.Event, timeout time.Duration) (int, error) {
	if len(events) == 0 {
		return 0, api.ErrInvalidArgument
	}
	if cap(r.raw) < len(events) {
		r.raw = make([]unix.EpollEvent, len(events))
	}
	raw := r.raw[:len(events)]

	n, err := unix.EpollWait(r.epfd, raw, timeoutMillis(timeout))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}

	out := 0
	for i := 0; i < n; i++ {
		fd := int(raw[i].Fd)
		if fd == r.wakefd {
			r.drainWake()
			continue
		}
		flags := raw[i].Events
		events[out] = api.Event{
			Fd:       fd,
			Readable: flags&unix.EPOLLIN != 0,
			Hangup:   flags&(unix.EPOLLHUP|unix.EPOLLERR|unix.EPOLLRDHUP) != 0,
		}
		out++
	}
	return out, nil
}

// timeoutMillis converts a Wait timeout to epoll milliseconds. Positive
// timeouts round up so a sub-millisecond timeout still blocks instead of
// polling.
func timeoutMillis(d time.Duration) int {
	switch {
	case d < 0:
		return -1
	case d == 0:
		return 0
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}

// Wake interrupts a concurrent Wait. Safe from any goroutine.
func (r *linuxReactor) Wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(r.wakefd, buf[:])
	if err != nil && !errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("eventfd write: %w", err)
	}
	return nil
}

func (r *linuxReactor) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(r.wakefd, buf[:]); err != nil {
			return
		}
	}
}

// Close closes the epoll instance and the wake descriptor.
func (r *linuxReactor) Close() error {
	err := unix.Close(r.wakefd)
	if cerr := unix.Close(r.epfd); err == nil {
		err = cerr
	}
	return err
}
