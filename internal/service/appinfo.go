package service

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// AppInfo is the daemon's self-report for the about panel.
type AppInfo struct {
	Version          string  `json:"version"`
	GoVersion        string  `json:"goVersion"`
	PID              int32   `json:"pid"`
	UptimeSeconds    float64 `json:"uptimeSeconds"`
	CPUPercent       float64 `json:"cpuPercent"`
	MemoryRSSBytes   uint64  `json:"memoryRssBytes"`
	MonitoringActive bool    `json:"monitoringActive"`
	LastChecked      string  `json:"lastChecked,omitempty"`
}

// collectAppInfo gathers process statistics. Stats that cannot be read stay
// zero; the report itself never fails.
func collectAppInfo(version string, startedAt time.Time, monitoring bool, lastChecked string) AppInfo {
	info := AppInfo{
		Version:          version,
		GoVersion:        runtime.Version(),
		PID:              int32(os.Getpid()),
		UptimeSeconds:    time.Since(startedAt).Seconds(),
		MonitoringActive: monitoring,
		LastChecked:      lastChecked,
	}

	proc, err := process.NewProcess(info.PID)
	if err != nil {
		return info
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		info.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		info.MemoryRSSBytes = mem.RSS
	}
	return info
}
