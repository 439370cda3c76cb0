// File: protocol/ack.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Acknowledgement framing: every request is answered with its payload,
// trailing line terminators removed, followed by AckSuffix. There is no
// inbound framing beyond one read per readiness event, so a logical message
// longer than the maximum payload is acknowledged once per read.

package protocol

import "bytes"

// AckSuffix terminates every response.
const AckSuffix = ":OK\r\n"

// MinMaxPayload is the smallest usable maximum payload size: the suffix
// plus one payload byte.
const MinMaxPayload = len(AckSuffix) + 1

// TrimLine strips trailing CR and LF bytes.
func TrimLine(payload []byte) []byte {
	return bytes.TrimRight(payload, "\r\n")
}

// AppendAck appends the response for payload to dst. The response never
// exceeds max bytes: the payload is truncated so the suffix always fits.
func AppendAck(dst, payload []byte, max int) []byte {
	body := TrimLine(payload)
	room := max - len(AckSuffix)
	if room < 0 {
		room = 0
	}
	if len(body) > room {
		body = body[:room]
	}
	dst = append(dst, body...)
	return append(dst, AckSuffix...)
}

// AckLen returns the length AppendAck would produce.
func AckLen(payload []byte, max int) int {
	n := len(TrimLine(payload))
	if room := max - len(AckSuffix); n > room {
		n = room
		if n < 0 {
			n = 0
		}
	}
	return n + len(AckSuffix)
}

// Truncated returns how many bytes of the trimmed payload AppendAck drops to
// keep the response within max.
func Truncated(payload []byte, max int) int {
	return len(TrimLine(payload)) + len(AckSuffix) - AckLen(payload, max)
}
