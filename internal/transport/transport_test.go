//go:build linux

// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package transport_test

import (
	"errors"
	"io"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/momentics/hioload-shard/api"
	"github.com/momentics/hioload-shard/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func listen(t *testing.T) *transport.Listener {
	t.Helper()
	ln, err := transport.Listen(transport.ListenConfig{BindAddr: "127.0.0.1"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = transport.Close(ln.Fd) })
	require.NotZero(t, ln.Addr.Port())
	return ln
}

// acceptOne polls the non-blocking listener until a connection arrives.
func acceptOne(t *testing.T, ln *transport.Listener) (int, netip.AddrPort) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		fd, peer, err := transport.Accept(ln.Fd)
		if err == nil {
			t.Cleanup(func() { _ = transport.Close(fd) })
			return fd, peer
		}
		require.True(t, transport.IsTransient(err), "accept: %v", err)
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no connection accepted")
	return -1, netip.AddrPort{}
}

func TestListenAcceptReadWrite(t *testing.T) {
	ln := listen(t)
	_, _, err := transport.Accept(ln.Fd)
	require.Error(t, err)
	assert.Equal(t, api.ErrCodeTransient, transport.Classify(err), "empty backlog would block")

	client, err := net.Dial("tcp", ln.Addr.String())
	require.NoError(t, err)
	defer client.Close()

	fd, peer := acceptOne(t, ln)
	assert.Equal(t, client.LocalAddr().String(), peer.String())

	_, err = client.Write([]byte("ping\r\n"))
	require.NoError(t, err)
	buf := make([]byte, 64)
	var n int
	require.Eventually(t, func() bool {
		n, err = transport.Read(fd, buf)
		return err == nil
	}, time.Second, time.Millisecond)
	assert.Equal(t, "ping\r\n", string(buf[:n]))

	w, err := transport.WriteFull(fd, []byte("ping:OK\r\n"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 9, w)
	got := make([]byte, 9)
	_, err = io.ReadFull(client, got)
	require.NoError(t, err)
	assert.Equal(t, "ping:OK\r\n", string(got))
}

func TestReadEOFAfterPeerClose(t *testing.T) {
	ln := listen(t)
	client, err := net.Dial("tcp", ln.Addr.String())
	require.NoError(t, err)
	fd, _ := acceptOne(t, ln)
	require.NoError(t, client.Close())

	buf := make([]byte, 8)
	require.Eventually(t, func() bool {
		n, err := transport.Read(fd, buf)
		return err == nil && n == 0
	}, time.Second, time.Millisecond)
}

func TestWriteFullTimesOutOnStalledPeer(t *testing.T) {
	ln := listen(t)
	client, err := net.Dial("tcp", ln.Addr.String())
	require.NoError(t, err)
	defer client.Close()
	fd, _ := acceptOne(t, ln)
	require.NoError(t, unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, 4096))

	// The client never reads, so the send path eventually fills up.
	big := make([]byte, 32<<20)
	n, err := transport.WriteFull(fd, big, 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrWriteTimeout), "got %v", err)
	assert.Less(t, n, len(big))
}

func TestShutdownFailsWriter(t *testing.T) {
	ln := listen(t)
	client, err := net.Dial("tcp", ln.Addr.String())
	require.NoError(t, err)
	defer client.Close()
	fd, _ := acceptOne(t, ln)

	require.NoError(t, transport.Shutdown(fd))
	_, err = transport.WriteFull(fd, []byte("late"), time.Second)
	require.Error(t, err)
	assert.Equal(t, api.ErrCodePeerClosed, transport.Classify(err))
}

func TestListenRejectsNonIPv4(t *testing.T) {
	_, err := transport.Listen(transport.ListenConfig{BindAddr: "::1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, api.ErrCodeOK, transport.Classify(nil))
	assert.Equal(t, api.ErrCodeTransient, transport.Classify(unix.EINTR))
	assert.Equal(t, api.ErrCodePeerClosed, transport.Classify(unix.ECONNRESET))
	assert.Equal(t, api.ErrCodeFatalSocket, transport.Classify(unix.EBADF))
	assert.True(t, transport.IsTransient(unix.EAGAIN))
}
