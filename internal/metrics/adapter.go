package metrics

import "time"

// Recorder defines the metrics operations needed by the pipeline. The
// interface allows dependency injection and testing with fakes.
type Recorder interface {
	RecordReceived()
	RecordProcessed(latency time.Duration)
	RecordMatched()
	RecordAccepted()
	RecordDenied()
	RecordError()
}

// Ensure Collector implements Recorder.
var _ Recorder = (*Collector)(nil)

// NoOp is a null-object implementation of Recorder. It does nothing,
// eliminating the need for nil checks.
type NoOp struct{}

// Compile-time check that NoOp implements Recorder.
var _ Recorder = (*NoOp)(nil)

// RecordReceived does nothing.
func (n *NoOp) RecordReceived() {}

// RecordProcessed does nothing.
func (n *NoOp) RecordProcessed(latency time.Duration) {}

// RecordMatched does nothing.
func (n *NoOp) RecordMatched() {}

// RecordAccepted does nothing.
func (n *NoOp) RecordAccepted() {}

// RecordDenied does nothing.
func (n *NoOp) RecordDenied() {}

// RecordError does nothing.
func (n *NoOp) RecordError() {}
