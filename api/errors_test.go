// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapErrorUnwraps(t *testing.T) {
	err := WrapError(ErrCodeStartup, "bind failed", ErrNotSupported).WithContext("port", 9000)

	assert.True(t, errors.Is(err, ErrNotSupported))
	assert.Equal(t, ErrCodeStartup, CodeOf(err))
	assert.Contains(t, err.Error(), "bind failed: operation not supported")
	assert.Contains(t, err.Error(), "port:9000")
}

func TestCodeOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ErrCodeOK},
		{"structured", NewError(ErrCodePeerClosed, "gone"), ErrCodePeerClosed},
		{"wrapped structured", fmt.Errorf("outer: %w", NewError(ErrCodeTransient, "again")), ErrCodeTransient},
		{"queue full sentinel", fmt.Errorf("shard 1: %w", ErrQueueFull), ErrCodeQueueFull},
		{"invalid sentinel", ErrInvalidArgument, ErrCodeInvalidArgument},
		{"plain", errors.New("boom"), ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CodeOf(tc.err))
		})
	}
}

func TestErrorWithoutContext(t *testing.T) {
	e := &Error{Code: ErrCodeInternal, Message: "plain"}
	assert.Equal(t, "plain", e.Error())
	require.NotNil(t, e.WithContext("k", "v").Context)
	assert.Equal(t, "v", e.Context["k"])
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "peer_closed", ErrCodePeerClosed.String())
	assert.Equal(t, "queue_full", ErrCodeQueueFull.String())
	assert.Equal(t, "internal", ErrorCode(99).String())
}

func TestOverflowPolicyValid(t *testing.T) {
	for _, p := range []OverflowPolicy{OverflowDrop, OverflowBlock, OverflowReject} {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, OverflowPolicy("spill").Valid())
	assert.False(t, OverflowPolicy("").Valid())
}

func TestConnStateString(t *testing.T) {
	assert.Equal(t, "accepted", ConnAccepted.String())
	assert.Equal(t, "active", ConnActive.String())
	assert.Equal(t, "closed", ConnClosed.String())
	assert.Equal(t, "unknown", ConnState(7).String())
}
