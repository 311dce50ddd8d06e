package test

import (
	"runtime"
	"syscall"
	"time"

	"github.com/relex/bytesink/util"
	"github.com/relex/gotils/logger"
)

// CostTracker tracks CPU usage and memory allocations
type CostTracker struct {
	init resourceSnapshot
}

// CostReport contains measurements since StartCostTracking
type CostReport struct {
	RealTime      time.Duration
	UserTime      time.Duration
	SystemTime    time.Duration
	NumHeapAllocs uint64
	GCCPUFraction float64
}

type resourceSnapshot struct {
	realTime      time.Time
	userTime      time.Time
	systemTime    time.Time
	numHeapAllocs uint64
	gcCPUFraction float64
}

// StartCostTracking creates a cost tracker and starts tracking
func StartCostTracking() *CostTracker {
	runtime.GC()
	return &CostTracker{init: takeResourceSnapshot()}
}

// Report reports measurements since StartCostTracking was called
func (ct *CostTracker) Report() CostReport {
	runtime.GC()
	now := takeResourceSnapshot()
	return CostReport{
		RealTime:      now.realTime.Sub(ct.init.realTime),
		UserTime:      now.userTime.Sub(ct.init.userTime),
		SystemTime:    now.systemTime.Sub(ct.init.systemTime),
		NumHeapAllocs: now.numHeapAllocs - ct.init.numHeapAllocs,
		GCCPUFraction: now.gcCPUFraction,
	}
}

func takeResourceSnapshot() resourceSnapshot {
	var snap resourceSnapshot
	snap.realTime = time.Now()

	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		logger.Panic("failed to get resource usage: ", err)
	}
	snap.userTime = util.TimeFromTimeval(rusage.Utime)
	snap.systemTime = util.TimeFromTimeval(rusage.Stime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	snap.numHeapAllocs = memStats.Mallocs
	snap.gcCPUFraction = memStats.GCCPUFraction
	return snap
}
