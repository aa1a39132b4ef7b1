// Package sys provides the `board:sys` module: host and memory information
// and the console's variables.
package sys

import (
	"context"
	"runtime"

	"github.com/dop251/goja"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Require returns a module loader for `board:sys`. lookupEnv resolves
// variables for env(); nil means none are visible.
func Require(ctx context.Context, lookupEnv func(string) (string, bool)) func(runtime *goja.Runtime, module *goja.Object) {
	return func(vm *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)

		// info(): {hostname, os, platform, arch, cpus, goVersion, uptime}
		_ = exports.Set("info", func(call goja.FunctionCall) goja.Value {
			out := map[string]any{
				"os":        runtime.GOOS,
				"arch":      runtime.GOARCH,
				"cpus":      runtime.NumCPU(),
				"goVersion": runtime.Version(),
			}
			if h, err := host.InfoWithContext(ctx); err == nil {
				out["hostname"] = h.Hostname
				out["platform"] = h.Platform
				out["uptime"] = h.Uptime
			}
			return vm.ToValue(out)
		})

		// memory(): {total, available, used, heapInUse}
		_ = exports.Set("memory", func(call goja.FunctionCall) goja.Value {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			out := map[string]any{"heapInUse": ms.HeapInuse}
			if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
				out["total"] = v.Total
				out["available"] = v.Available
				out["used"] = v.Used
			}
			return vm.ToValue(out)
		})

		// env(name: string): string | undefined
		_ = exports.Set("env", func(call goja.FunctionCall) goja.Value {
			if lookupEnv == nil {
				return goja.Undefined()
			}
			if v, ok := lookupEnv(call.Argument(0).String()); ok {
				return vm.ToValue(v)
			}
			return goja.Undefined()
		})
	}
}
