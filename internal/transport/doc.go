// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw non-blocking IPv4 TCP sockets: a listener with accept4, short reads
// and a bounded full write used by shard workers. Linux only; other
// platforms get stubs returning ErrUnsupported.

package transport
