// Package session
// Author: momentics <momentics@gmail.com>
//
// Per-connection state shared between the event loop and shard workers.
// A Session tracks in-flight requests and the closing handshake; the Store
// indexes live sessions by descriptor and enforces the connection limit.
// Only the event loop finalizes a session and closes its descriptor.

package session
