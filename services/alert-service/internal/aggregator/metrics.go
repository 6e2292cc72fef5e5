package aggregator

import "time"

// MetricsRecorder defines the metrics operations needed by the aggregator.
type MetricsRecorder interface {
	RecordReceived()
	RecordProcessed(latency time.Duration)
	RecordError()
	IncrementCustom(name string)
	AddCustom(name string, value uint64)
}

// NoOpMetrics is a null-object implementation of MetricsRecorder.
type NoOpMetrics struct{}

// Compile-time check that NoOpMetrics implements MetricsRecorder.
var _ MetricsRecorder = (*NoOpMetrics)(nil)

// RecordReceived does nothing.
func (n *NoOpMetrics) RecordReceived() {}

// RecordProcessed does nothing.
func (n *NoOpMetrics) RecordProcessed(_ time.Duration) {}

// RecordError does nothing.
func (n *NoOpMetrics) RecordError() {}

// IncrementCustom does nothing.
func (n *NoOpMetrics) IncrementCustom(_ string) {}

// AddCustom does nothing.
func (n *NoOpMetrics) AddCustom(_ string, _ uint64) {}
