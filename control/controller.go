// Package control
// Author: momentics <momentics@gmail.com>
//
// Controller implementing api.Control over the metrics and probe registries.

package control

import "github.com/momentics/hioload-shard/api"

var _ api.Control = (*Controller)(nil)

// Controller aggregates metrics and debug probes.
type Controller struct {
	metrics *MetricsRegistry
	debug   *DebugProbes
	config  *ConfigStore
}

// NewController returns a controller with platform probes registered.
func NewController() *Controller {
	c := &Controller{
		metrics: NewMetricsRegistry(),
		debug:   NewDebugProbes(),
		config:  NewConfigStore(),
	}
	RegisterPlatformProbes(c.debug)
	return c
}

// Metrics exposes the counter registry.
func (c *Controller) Metrics() *MetricsRegistry {
	return c.metrics
}

// Config exposes the effective configuration snapshot.
func (c *Controller) Config() *ConfigStore {
	return c.config
}

// Stats merges metrics, probe output and configuration; probe keys get a
// "debug." prefix and settings a "config." prefix.
func (c *Controller) Stats() map[string]any {
	stats := c.metrics.GetSnapshot()
	for k, v := range c.debug.DumpState() {
		stats["debug."+k] = v
	}
	for k, v := range c.config.GetSnapshot() {
		stats["config."+k] = v
	}
	return stats
}

// RegisterDebugProbe registers a named probe.
func (c *Controller) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// UnregisterDebugProbe removes a named probe if present.
func (c *Controller) UnregisterDebugProbe(name string) {
	c.debug.UnregisterProbe(name)
}
