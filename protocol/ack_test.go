// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package protocol_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/momentics/hioload-shard/protocol"
	"github.com/stretchr/testify/assert"
)

func TestAppendAck(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		max     int
		want    string
	}{
		{"crlf", "hello\r\n", 512, "hello:OK\r\n"},
		{"lf", "hello\n", 512, "hello:OK\r\n"},
		{"bare", "hello", 512, "hello:OK\r\n"},
		{"only terminators", "\r\n\r\n", 512, ":OK\r\n"},
		{"empty", "", 512, ":OK\r\n"},
		{"inner newline kept", "a\r\nb\n", 512, "a\r\nb:OK\r\n"},
		{"truncated", "abcdefgh", 8, "abc:OK\r\n"},
		{"minimum", "abc", protocol.MinMaxPayload, "a:OK\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := protocol.AppendAck(nil, []byte(tt.payload), tt.max)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, len(tt.want), protocol.AckLen([]byte(tt.payload), tt.max))
		})
	}
}

func TestAppendAckSplitRead(t *testing.T) {
	// A 600-byte write read in two chunks against a 512-byte maximum.
	msg := strings.Repeat("x", 600)
	first := protocol.AppendAck(nil, []byte(msg[:512]), 512)
	second := protocol.AppendAck(nil, []byte(msg[512:]), 512)

	assert.Len(t, first, 512)
	assert.True(t, bytes.HasSuffix(first, []byte(protocol.AckSuffix)))
	assert.Equal(t, strings.Repeat("x", 88)+protocol.AckSuffix, string(second))

	assert.Equal(t, 5, protocol.Truncated([]byte(msg[:512]), 512), "suffix displaces the tail of a full read")
	assert.Zero(t, protocol.Truncated([]byte(msg[512:]), 512))
	assert.Zero(t, protocol.Truncated([]byte("ping\r\n"), 9), "terminators do not count")
}

func TestAppendAckReusesDst(t *testing.T) {
	dst := make([]byte, 0, 64)
	out := protocol.AppendAck(dst, []byte("ping\n"), 64)
	assert.Equal(t, "ping:OK\r\n", string(out))
	assert.Equal(t, &dst[:1][0], &out[:1][0], "no reallocation within max")
}

func TestAppendAckProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("response never exceeds max and ends with the suffix", prop.ForAll(
		func(payload []byte, max int) bool {
			out := protocol.AppendAck(nil, payload, max)
			return len(out) <= max &&
				bytes.HasSuffix(out, []byte(protocol.AckSuffix)) &&
				len(out) == protocol.AckLen(payload, max)
		},
		gen.SliceOf(gen.UInt8()),
		gen.IntRange(protocol.MinMaxPayload, 1024),
	))

	properties.Property("body is a prefix of the trimmed payload", prop.ForAll(
		func(payload string, max int) bool {
			out := protocol.AppendAck(nil, []byte(payload), max)
			body := out[:len(out)-len(protocol.AckSuffix)]
			return bytes.HasPrefix(protocol.TrimLine([]byte(payload)), body)
		},
		gen.RegexMatch("^[az\r\n]{0,80}$"),
		gen.IntRange(protocol.MinMaxPayload, 64),
	))

	properties.Property("short payloads are echoed whole", prop.ForAll(
		func(line string) bool {
			out := protocol.AppendAck(nil, []byte(line+"\r\n"), 512)
			return string(out) == line+protocol.AckSuffix
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) <= 100 }),
	))

	properties.TestingRun(t)
}
