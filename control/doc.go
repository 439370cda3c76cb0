// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for the shard server.
//
// Provides concurrent-safe primitives including:
//   - Atomic counters updated from the event loop and shard workers
//   - Named debug probes evaluated on demand
//   - A Controller that merges both into one Stats snapshot
package control
