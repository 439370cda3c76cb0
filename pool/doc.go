// Package pool
// Author: momentics <momentics@gmail.com>
//
// Buffer reuse for the request path. The event loop reads into buffers
// acquired here; shard workers release them once a response is written, so
// steady-state traffic allocates nothing per request.
package pool
