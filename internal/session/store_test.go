// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package session_test

import (
	"testing"

	"github.com/momentics/hioload-shard/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLimit(t *testing.T) {
	r := session.NewRegistry(2)
	assert.False(t, r.Full())
	r.Add(active(3))
	r.Add(active(4))
	assert.True(t, r.Full())
	assert.Equal(t, 2, r.Len())

	unbounded := session.NewRegistry(0)
	for fd := 0; fd < 100; fd++ {
		unbounded.Add(active(fd))
	}
	assert.False(t, unbounded.Full())
}

func TestRegistryRemoveChecksIdentity(t *testing.T) {
	r := session.NewRegistry(0)
	old := active(9)
	r.Add(old)
	require.True(t, r.Remove(old))

	// The descriptor number is reused by a new connection.
	fresh := active(9)
	r.Add(fresh)
	assert.False(t, r.Remove(old), "stale session must not evict its successor")
	got, ok := r.Get(9)
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestRegistryRangeOrdered(t *testing.T) {
	r := session.NewRegistry(0)
	for _, fd := range []int{12, 5, 9} {
		r.Add(active(fd))
	}
	var fds []int
	r.Range(func(s *session.Session) {
		fds = append(fds, s.Fd())
		r.Remove(s)
	})
	assert.Equal(t, []int{5, 9, 12}, fds)
	assert.Zero(t, r.Len())
}
