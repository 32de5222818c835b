package eval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// MemoryReport holds the process peak-memory figures.
type MemoryReport struct {
	PID       int
	VmPeakKB  int64 // peak virtual size, from /proc/self/status (Linux only)
	VmHWMKB   int64 // peak resident set, from /proc/self/status (Linux only)
	MaxRSSKB  int64 // ru_maxrss from getrusage
	HeapSysKB int64 // Go heap reserved from the OS
}

// PeakMemory collects the process peak-memory footprint. On Linux it
// parses /proc/self/status; everywhere it also records getrusage max RSS
// and the Go runtime's reserved heap.
func PeakMemory() MemoryReport {
	r := MemoryReport{PID: os.Getpid()}

	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err == nil {
		r.MaxRSSKB = int64(ru.Maxrss)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	r.HeapSysKB = int64(ms.HeapSys / 1024)

	if f, err := os.Open("/proc/self/status"); err == nil {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "VmPeak:"):
				r.VmPeakKB = parseStatusKB(line)
			case strings.HasPrefix(line, "VmHWM:"):
				r.VmHWMKB = parseStatusKB(line)
			}
		}
	}

	return r
}

func parseStatusKB(line string) int64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Print writes the report as stable KEY: value lines.
func (r MemoryReport) Print(w io.Writer) {
	fmt.Fprintf(w, "PID: %d\n", r.PID)
	if r.VmPeakKB > 0 {
		fmt.Fprintf(w, "VM_PEAK_KB: %d\n", r.VmPeakKB)
	}
	if r.VmHWMKB > 0 {
		fmt.Fprintf(w, "VM_HWM_KB: %d\n", r.VmHWMKB)
	}
	fmt.Fprintf(w, "MAX_RSS_KB: %d\n", r.MaxRSSKB)
	fmt.Fprintf(w, "HEAP_SYS_KB: %d\n", r.HeapSysKB)
}

// GoroutineMonitor samples runtime.NumGoroutine on a fixed interval and
// tracks the peak, mirroring the thread-count monitors benchmark harnesses
// run alongside builds.
type GoroutineMonitor struct {
	peak atomic.Int64
	done chan struct{}
	tick time.Duration
}

// NewGoroutineMonitor creates a monitor sampling every interval.
// Zero selects 10ms.
func NewGoroutineMonitor(interval time.Duration) *GoroutineMonitor {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return &GoroutineMonitor{tick: interval}
}

// Start begins sampling until Stop is called.
func (m *GoroutineMonitor) Start() {
	m.done = make(chan struct{})
	m.sample()

	go func() {
		ticker := time.NewTicker(m.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sample()
			case <-m.done:
				return
			}
		}
	}()
}

// Stop ends sampling and returns the peak observed goroutine count.
func (m *GoroutineMonitor) Stop() int {
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
	return int(m.peak.Load())
}

func (m *GoroutineMonitor) sample() {
	current := int64(runtime.NumGoroutine())
	for {
		peak := m.peak.Load()
		if current <= peak || m.peak.CompareAndSwap(peak, current) {
			return
		}
	}
}
