// Package procstat reports resource usage of the running server for the
// health endpoint.
package procstat

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

type Stats struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rssBytes"`
	CPUPercent float64 `json:"cpuPercent"`
	Goroutines int     `json:"goroutines"`
	Uptime     float64 `json:"uptimeSeconds"`
}

// Sampler reads stats for one process. The gopsutil handle is created once
// so CPU percentages are measured between successive calls.
type Sampler struct {
	mu      sync.Mutex
	proc    *process.Process
	started time.Time
}

// NewSampler returns a sampler for the current process.
func NewSampler() (*Sampler, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open process: %w", err)
	}
	return &Sampler{proc: p, started: time.Now()}, nil
}

// Sample returns current stats. Fields that cannot be read on this
// platform are left zero.
func (s *Sampler) Sample() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		PID:        s.proc.Pid,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(s.started).Seconds(),
	}
	if mem, err := s.proc.MemoryInfo(); err == nil && mem != nil {
		st.RSSBytes = mem.RSS
	}
	if cpu, err := s.proc.Percent(0); err == nil {
		st.CPUPercent = cpu
	}
	return st
}
