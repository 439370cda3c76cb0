// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown is implemented by components that drain before exit.
type GracefulShutdown interface {
	// Shutdown stops intake, drains in-flight work and releases resources.
	Shutdown() error
}
