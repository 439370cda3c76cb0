// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Named probes sampled on demand: shard queue depths, live sessions and
// pooled buffers.

package control

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// DebugProbes holds registered probe functions keyed by dotted name.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates an empty probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{probes: make(map[string]func() any)}
}

// RegisterProbe binds fn to name, replacing any earlier probe of that name.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	dp.probes[name] = fn
	dp.mu.Unlock()
}

// UnregisterProbe removes name; unknown names are ignored.
func (dp *DebugProbes) UnregisterProbe(name string) {
	dp.mu.Lock()
	delete(dp.probes, name)
	dp.mu.Unlock()
}

// Names returns the registered probe names in sorted order.
func (dp *DebugProbes) Names() []string {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	return slices.Sorted(maps.Keys(dp.probes))
}

// DumpState samples every probe. Probes run without the registry lock held,
// so a probe may itself register probes; a panicking probe reports its
// panic value instead of a sample.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	fns := maps.Clone(dp.probes)
	dp.mu.RUnlock()

	out := make(map[string]any, len(fns))
	for name, fn := range fns {
		out[name] = sample(fn)
	}
	return out
}

func sample(fn func() any) (v any) {
	defer func() {
		if r := recover(); r != nil {
			v = fmt.Sprintf("probe panic: %v", r)
		}
	}()
	return fn()
}
