// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for system-level monitoring.
// Counters are atomics created on first use; gauges are plain values.

package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metric keys recorded by the event loop and shard workers.
const (
	ConnAccepted = "conn.accepted"
	ConnRejected = "conn.rejected"
	ConnClosed   = "conn.closed"
	ReqEnqueued  = "req.enqueued"
	ReqDropped   = "req.dropped"
	RespWritten  = "resp.written"
	RespFailed   = "resp.failed"
	RespTrunc    = "resp.truncated"
	BytesIn      = "bytes.in"
	BytesOut     = "bytes.out"
	Reloads      = "reload.requests"
)

// MetricsRegistry holds counters and gauges.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*atomic.Int64
	gauges   map[string]any
	updated  atomic.Int64
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*atomic.Int64),
		gauges:   make(map[string]any),
	}
}

// Add increments counter key by delta.
func (mr *MetricsRegistry) Add(key string, delta int64) {
	mr.counter(key).Add(delta)
	mr.updated.Store(time.Now().UnixNano())
}

// Inc increments counter key by one.
func (mr *MetricsRegistry) Inc(key string) {
	mr.Add(key, 1)
}

// Counter returns the current value of counter key.
func (mr *MetricsRegistry) Counter(key string) int64 {
	mr.mu.RLock()
	c, ok := mr.counters[key]
	mr.mu.RUnlock()
	if !ok {
		return 0
	}
	return c.Load()
}

func (mr *MetricsRegistry) counter(key string) *atomic.Int64 {
	mr.mu.RLock()
	c, ok := mr.counters[key]
	mr.mu.RUnlock()
	if ok {
		return c
	}
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if c, ok = mr.counters[key]; !ok {
		c = new(atomic.Int64)
		mr.counters[key] = c
	}
	return c
}

// Set sets or updates a gauge.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.gauges[key] = value
	mr.mu.Unlock()
	mr.updated.Store(time.Now().UnixNano())
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.counters)+len(mr.gauges))
	for k, c := range mr.counters {
		out[k] = c.Load()
	}
	for k, v := range mr.gauges {
		out[k] = v
	}
	return out
}

// Updated returns the time of the last change.
func (mr *MetricsRegistry) Updated() time.Time {
	ns := mr.updated.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
