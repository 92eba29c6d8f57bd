package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeConflict
	outcomeError
)

type OperationMetrics struct {
	Total    atomic.Int64
	Success  atomic.Int64
	Conflict atomic.Int64
	Error    atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, o outcome) {
	om.Total.Add(1)
	switch o {
	case outcomeSuccess:
		om.Success.Add(1)
	case outcomeConflict:
		om.Conflict.Add(1)
	default:
		om.Error.Add(1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

type LatencyStats struct {
	Avg, Min, Max, P50, P95 time.Duration
}

func (om *OperationMetrics) Stats() LatencyStats {
	om.mu.Lock()
	latencies := slices.Clone(om.latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return LatencyStats{}
	}
	slices.Sort(latencies)

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	return LatencyStats{
		Avg: sum / time.Duration(len(latencies)),
		Min: latencies[0],
		Max: latencies[len(latencies)-1],
		P50: percentile(latencies, 50),
		P95: percentile(latencies, 95),
	}
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

type Metrics struct {
	Board      OperationMetrics
	Create     OperationMetrics
	Advance    OperationMetrics
	Screening  OperationMetrics
	Collection OperationMetrics
	LabTests   OperationMetrics
}

func (m *Metrics) each(fn func(name string, om *OperationMetrics)) {
	fn("Board read", &m.Board)
	fn("Create donation", &m.Create)
	fn("Advance to screening", &m.Advance)
	fn("Screening", &m.Screening)
	fn("Collection", &m.Collection)
	fn("Lab tests", &m.LabTests)
}

func writeReport(w io.Writer, cfg SimConfig, m *Metrics) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, "\n"+rule)
	fmt.Fprintln(w, "SIMULATION REPORT")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Duration: %s\n", cfg.Duration)
	fmt.Fprintf(w, "Workers: %d\n\n", cfg.Workers)

	m.each(func(name string, om *OperationMetrics) {
		writeOperation(w, name, om)
	})
}

func writeOperation(w io.Writer, name string, om *OperationMetrics) {
	total := om.Total.Load()
	if total == 0 {
		return
	}
	pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }

	success, conflict, errs := om.Success.Load(), om.Conflict.Load(), om.Error.Load()
	st := om.Stats()

	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "  Total: %d\n", total)
	fmt.Fprintf(w, "  Success: %d (%.1f%%)\n", success, pct(success))
	if conflict > 0 {
		fmt.Fprintf(w, "  Conflicts: %d (%.1f%%)\n", conflict, pct(conflict))
	}
	if errs > 0 {
		fmt.Fprintf(w, "  Errors: %d (%.1f%%)\n", errs, pct(errs))
	}
	fmt.Fprintf(w, "  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n\n",
		st.Avg.Round(time.Millisecond), st.Min.Round(time.Millisecond), st.Max.Round(time.Millisecond),
		st.P50.Round(time.Millisecond), st.P95.Round(time.Millisecond))
}
