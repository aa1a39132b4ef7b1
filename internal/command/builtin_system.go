package command

import (
	"fmt"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// RegisterSystemCommands registers meminfo, sysinfo and restart. restart is
// called by the restart command; the console decides what restarting means.
func RegisterSystemCommands(r *Registry, restart func()) {
	r.RegisterGroup(GroupSystem,
		NewMeminfoCommand(),
		NewSysinfoCommand(),
		NewRestartCommand(restart),
	)
}

// NewMeminfoCommand creates the meminfo command.
func NewMeminfoCommand() Command {
	return NewFunc(
		"meminfo",
		"Show memory usage",
		"meminfo",
		nil,
		func(inv *Invocation) int {
			vm, err := mem.VirtualMemoryWithContext(inv.Context)
			if err != nil {
				return inv.Failf("memory info: %v", err)
			}
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)

			w := tabwriter.NewWriter(inv.Stdout, 0, 8, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "Total:\t%s\n", formatBytes(vm.Total))
			_, _ = fmt.Fprintf(w, "Available:\t%s\n", formatBytes(vm.Available))
			_, _ = fmt.Fprintf(w, "Used:\t%s\t(%.1f%%)\n", formatBytes(vm.Used), vm.UsedPercent)
			_, _ = fmt.Fprintf(w, "Free:\t%s\n", formatBytes(vm.Free))
			if swap, err := mem.SwapMemoryWithContext(inv.Context); err == nil && swap.Total > 0 {
				_, _ = fmt.Fprintf(w, "Swap:\t%s / %s\t(%.1f%%)\n", formatBytes(swap.Used), formatBytes(swap.Total), swap.UsedPercent)
			}
			_, _ = fmt.Fprintf(w, "Heap in use:\t%s\n", formatBytes(ms.HeapInuse))
			_, _ = fmt.Fprintf(w, "Heap reserved:\t%s\n", formatBytes(ms.HeapSys))
			_, _ = fmt.Fprintf(w, "GC cycles:\t%d\n", ms.NumGC)
			_ = w.Flush()
			return 0
		},
	)
}

// NewSysinfoCommand creates the sysinfo command.
func NewSysinfoCommand() Command {
	return NewFunc(
		"sysinfo",
		"Show host, CPU and runtime information",
		"sysinfo",
		nil,
		func(inv *Invocation) int {
			info, err := host.InfoWithContext(inv.Context)
			if err != nil {
				return inv.Failf("host info: %v", err)
			}

			w := tabwriter.NewWriter(inv.Stdout, 0, 8, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "Hostname:\t%s\n", info.Hostname)
			_, _ = fmt.Fprintf(w, "OS:\t%s %s %s\n", info.OS, info.Platform, info.PlatformVersion)
			_, _ = fmt.Fprintf(w, "Kernel:\t%s (%s)\n", info.KernelVersion, info.KernelArch)
			_, _ = fmt.Fprintf(w, "Uptime:\t%s\n", (time.Duration(info.Uptime) * time.Second).String())
			_, _ = fmt.Fprintf(w, "Boot time:\t%s\n", time.Unix(int64(info.BootTime), 0).UTC().Format(time.RFC3339))

			if cpus, err := cpu.InfoWithContext(inv.Context); err == nil && len(cpus) > 0 {
				_, _ = fmt.Fprintf(w, "CPU model:\t%s\n", cpus[0].ModelName)
				if cpus[0].Mhz > 0 {
					_, _ = fmt.Fprintf(w, "CPU clock:\t%.0f MHz\n", cpus[0].Mhz)
				}
			}
			if n, err := cpu.CountsWithContext(inv.Context, true); err == nil {
				_, _ = fmt.Fprintf(w, "Logical CPUs:\t%d\n", n)
			}
			if avg, err := load.AvgWithContext(inv.Context); err == nil {
				_, _ = fmt.Fprintf(w, "Load average:\t%.2f %.2f %.2f\n", avg.Load1, avg.Load5, avg.Load15)
			}
			_, _ = fmt.Fprintf(w, "Go runtime:\t%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			_, _ = fmt.Fprintf(w, "Goroutines:\t%d\n", runtime.NumGoroutine())
			_ = w.Flush()
			return 0
		},
	)
}

// NewRestartCommand creates the restart command.
func NewRestartCommand(restart func()) Command {
	return NewFunc(
		"restart",
		"Restart the console",
		"restart",
		nil,
		func(inv *Invocation) int {
			_, _ = fmt.Fprintln(inv.Stdout, "Restarting...")
			if restart != nil {
				restart()
			}
			return 0
		},
	)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
