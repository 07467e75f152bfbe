package system

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostStats is a snapshot of machine and process load for the performance
// report. Fields the platform cannot provide stay zero.
type HostStats struct {
	CPUs        int
	CPUPercent  float64
	MemTotal    uint64
	MemUsedPct  float64
	ProcessRSS  uint64
	Goroutines  int
	CollectedAt time.Time
}

// CollectHostStats samples CPU over interval; zero compares against the
// previous call.
func CollectHostStats(interval time.Duration) HostStats {
	st := HostStats{
		CPUs:        runtime.NumCPU(),
		Goroutines:  runtime.NumGoroutine(),
		CollectedAt: time.Now(),
	}
	if pct, err := cpu.Percent(interval, false); err == nil && len(pct) > 0 {
		st.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		st.MemTotal = vm.Total
		st.MemUsedPct = vm.UsedPercent
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			st.ProcessRSS = mi.RSS
		}
	}
	return st
}
