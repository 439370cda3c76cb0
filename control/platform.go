// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Process-level probes registered on every controller.

package control

import "runtime"

// RegisterPlatformProbes adds host and runtime probes under "platform.".
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.os", func() any { return runtime.GOOS })
	dp.RegisterProbe("platform.cpus", func() any { return runtime.NumCPU() })
	dp.RegisterProbe("platform.gomaxprocs", func() any { return runtime.GOMAXPROCS(0) })
	dp.RegisterProbe("platform.goroutines", func() any { return runtime.NumGoroutine() })
}
