// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shard plumbing for the request path: bounded blocking queues, the
// fd-to-shard mapping and the per-shard worker pool. Each shard is drained
// by exactly one goroutine so responses on a connection keep arrival order.
package concurrency
