// Package monitoring records per-stage timings, row counts and allocation
// deltas of a pipeline run.
package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// StageMetrics represents one recorded stage or sub-step.
type StageMetrics struct {
	Stage      string        `json:"stage" yaml:"stage"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Rows       int           `json:"rows" yaml:"rows"`
	MemoryUsed int64         `json:"memory_used" yaml:"memory_used"`
	Failed     bool          `json:"failed" yaml:"failed"`
}

// MetricsCollector collects stage metrics. It is safe for concurrent use,
// so concurrently running cleaners can share one.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []StageMetrics
	enabled bool
	now     func() time.Time
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{enabled: enabled, now: time.Now}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	if mc == nil {
		return false
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// Record runs fn and stores its duration, reported row count and the
// change in heap allocation. A nil or disabled collector only runs fn.
func (mc *MetricsCollector) Record(stage string, fn func() (int, error)) error {
	if !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	var before runtime.MemStats
	runtime.ReadMemStats(&before)
	start := mc.now()

	rows, err := fn()

	duration := mc.now().Sub(start)
	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, StageMetrics{
		Stage:      stage,
		Duration:   duration,
		Rows:       rows,
		MemoryUsed: int64(after.TotalAlloc - before.TotalAlloc), //nolint:gosec // TotalAlloc only grows
		Failed:     err != nil,
	})
	mc.mu.Unlock()
	return err
}

// Metrics returns a copy of all collected metrics ordered by stage name.
func (mc *MetricsCollector) Metrics() []StageMetrics {
	if mc == nil {
		return nil
	}
	mc.mu.RLock()
	result := make([]StageMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	mc.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool { return result[i].Stage < result[j].Stage })
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// Summary returns aggregate statistics for collected metrics.
func (mc *MetricsCollector) Summary() MetricsSummary {
	metrics := mc.Metrics()
	if len(metrics) == 0 {
		return MetricsSummary{}
	}

	s := MetricsSummary{Stages: len(metrics)}
	for _, m := range metrics {
		s.TotalDuration += m.Duration
		s.TotalMemory += m.MemoryUsed
		s.TotalRows += m.Rows
		if m.Failed {
			s.Failed++
		}
	}
	s.AverageDuration = s.TotalDuration / time.Duration(len(metrics))
	return s
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	Stages          int           `json:"stages"`
	Failed          int           `json:"failed"`
	TotalDuration   time.Duration `json:"total_duration"`
	TotalMemory     int64         `json:"total_memory"`
	TotalRows       int           `json:"total_rows"`
	AverageDuration time.Duration `json:"average_duration"`
}
