package detection

import (
	"github.com/shirou/gopsutil/v3/process"
)

// GopsutilStats reads RSS and lifetime CPU usage of a worker process
func GopsutilStats(pid int) (uint64, float64, bool) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return 0, 0, false
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, false
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return mem.RSS, 0, true
	}
	return mem.RSS, cpu, true
}
