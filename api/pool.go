// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines abstract pooling APIs for payload buffer reuse.

package api

// BytePool provides reusable []byte buffers for all high-intensity operations
type BytePool interface {
	// Acquire returns a slice of length n.
	Acquire(n int) []byte

	// Release returns a buffer to the pool
	Release(buf []byte)
}
