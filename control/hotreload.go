// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Reload fan-out: signal handlers and file watchers trigger, supervisors
// subscribe.

package control

import (
	"sync"
	"sync/atomic"
)

// ReloadHub coalesces reload requests into per-subscriber notifications.
type ReloadHub struct {
	mu       sync.Mutex
	subs     []chan struct{}
	hooks    []func()
	triggers atomic.Uint64
}

// NewReloadHub creates an idle hub.
func NewReloadHub() *ReloadHub {
	return &ReloadHub{}
}

// Subscribe returns a channel that receives at most one pending
// notification; triggers arriving while one is pending are merged.
func (h *ReloadHub) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.subs = append(h.subs, ch)
	h.mu.Unlock()
	return ch
}

// RegisterReloadHook adds a hook invoked synchronously on every trigger,
// before subscribers are notified.
func (h *ReloadHub) RegisterReloadHook(fn func()) {
	h.mu.Lock()
	h.hooks = append(h.hooks, fn)
	h.mu.Unlock()
}

// Trigger requests a reload. It never blocks on subscribers.
func (h *ReloadHub) Trigger() {
	h.triggers.Add(1)
	h.mu.Lock()
	hooks := append([]func(){}, h.hooks...)
	subs := append([]chan struct{}{}, h.subs...)
	h.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Triggers returns how many times Trigger was called.
func (h *ReloadHub) Triggers() uint64 {
	return h.triggers.Load()
}
