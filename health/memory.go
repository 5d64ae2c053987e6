package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryChecker reports heap usage against a budget.
//
// The cache is unbounded, so a growing heap is the first sign that
// entries are outpacing expiry.
type MemoryChecker struct {
	warn     float64
	critical float64
	maxAlloc uint64
	read     func(*runtime.MemStats)
}

// NewMemoryChecker creates a checker that is degraded at warn and unhealthy
// at critical, both fractions of maxAlloc. A zero maxAlloc uses the memory
// obtained from the OS. Out of range thresholds fall back to 0.8 and 0.95.
func NewMemoryChecker(maxAlloc uint64, warn, critical float64) *MemoryChecker {
	if warn <= 0 || warn >= 1 {
		warn = 0.8
	}
	if critical <= 0 || critical >= 1 || critical < warn {
		critical = max(0.95, warn)
	}
	return &MemoryChecker{
		warn:     warn,
		critical: critical,
		maxAlloc: maxAlloc,
		read:     runtime.ReadMemStats,
	}
}

// Name returns the name of this checker.
func (m *MemoryChecker) Name() string {
	return "memory"
}

// Check performs the memory health check.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var stats runtime.MemStats
	m.read(&stats)

	budget := m.maxAlloc
	if budget == 0 {
		budget = stats.Sys
	}
	if budget == 0 {
		return Healthy("memory stats unavailable")
	}

	ratio := float64(stats.Alloc) / float64(budget)
	details := map[string]any{
		"alloc_bytes":   stats.Alloc,
		"budget_bytes":  budget,
		"usage_percent": ratio * 100,
		"heap_objects":  stats.HeapObjects,
		"num_gc":        stats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	switch {
	case ratio >= m.critical:
		return Unhealthy(fmt.Sprintf("memory usage critical: %.1f%%", ratio*100), ErrCheckFailed).WithDetails(details)
	case ratio >= m.warn:
		return Degraded(fmt.Sprintf("memory usage high: %.1f%%", ratio*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("memory usage normal: %.1f%%", ratio*100)).WithDetails(details)
	}
}
