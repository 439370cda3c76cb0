// Package eventloop
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The readiness event loop and its worker-side counterpart.
//
// Loop is the only goroutine that accepts, reads, deregisters or closes
// sockets. It performs one bounded read per readiness report, wraps the bytes
// in a session.Request and offers it to the connection's shard. Responder runs
// on the shard workers: it formats the acknowledgement, writes it back, and on
// failure hands the session to the loop through the CloseQueue.
package eventloop
