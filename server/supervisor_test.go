//go:build linux

// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package server_test

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/momentics/hioload-shard/control"
	"github.com/momentics/hioload-shard/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func ping(t *testing.T, srv *server.Server, msg string) {
	t.Helper()
	c, err := net.DialTimeout("tcp", srv.Addr().String(), 2*time.Second)
	require.NoError(t, err)
	defer c.Close()
	_, err = c.Write([]byte(msg + "\n"))
	require.NoError(t, err)
	assert.Equal(t, msg+":OK\r\n", readAck(t, bufio.NewReader(c), c))
}

func TestSupervisorRestart(t *testing.T) {
	log := zaptest.NewLogger(t)
	hub := control.NewReloadHub()
	ctrl := control.NewController()

	// The first generation picks a port; later ones rebind the same port.
	port := 0
	build := func() (*server.Server, error) {
		cfg := testConfig()
		cfg.Server.Port = port
		srv, err := server.New(cfg, server.WithLogger(log), server.WithController(ctrl))
		if err == nil {
			port = int(srv.Addr().Port())
		}
		return srv, err
	}

	sv := server.NewSupervisor(build, hub.Subscribe(), log)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- sv.Run(ctx) }()

	require.Eventually(t, func() bool { return sv.Generations() == 1 }, 3*time.Second, 5*time.Millisecond)
	first := sv.Current()
	ping(t, first, "gen1")

	hub.Trigger()
	require.Eventually(t, func() bool { return sv.Generations() == 2 }, 3*time.Second, 5*time.Millisecond)
	<-first.Done()
	second := sv.Current()
	require.NotSame(t, first, second)
	assert.Equal(t, first.Addr(), second.Addr())
	ping(t, second, "gen2")
	assert.Equal(t, uint64(2), ctrl.Config().Version(), "each generation publishes its settings")

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop")
	}
	<-second.Done()
}

func TestSupervisorBuildFailure(t *testing.T) {
	boom := errors.New("bad config")
	sv := server.NewSupervisor(func() (*server.Server, error) { return nil, boom }, nil, nil)
	assert.ErrorIs(t, sv.Run(context.Background()), boom)
	assert.Zero(t, sv.Generations())
	assert.Nil(t, sv.Current())
}
