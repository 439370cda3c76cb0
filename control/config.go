// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Snapshot of the effective configuration, versioned on every update.

package control

import (
	"maps"
	"sync"
)

// ConfigStore is a key/value map of effective settings with listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	version   uint64
	listeners []func(version uint64)
}

// NewConfigStore initializes an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{config: make(map[string]any)}
}

// GetSnapshot returns a copy of all values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return maps.Clone(cs.config)
}

// SetConfig replaces the stored settings, bumps the version and notifies
// listeners synchronously.
func (cs *ConfigStore) SetConfig(cfg map[string]any) {
	cs.mu.Lock()
	cs.config = maps.Clone(cfg)
	cs.version++
	v := cs.version
	listeners := append([]func(uint64){}, cs.listeners...)
	cs.mu.Unlock()
	for _, fn := range listeners {
		fn(v)
	}
}

// Version returns the number of SetConfig calls so far.
func (cs *ConfigStore) Version() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.version
}

// OnUpdate registers a listener called after each SetConfig.
func (cs *ConfigStore) OnUpdate(fn func(version uint64)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
