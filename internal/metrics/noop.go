package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncPageViewRecorded is a no-op.
func (n *NoopRecorder) IncPageViewRecorded() {}

// IncEntityViewRecorded is a no-op.
func (n *NoopRecorder) IncEntityViewRecorded() {}

// IncTelemetryError is a no-op.
func (n *NoopRecorder) IncTelemetryError(op string) {}

// SetTelemetryState is a no-op.
func (n *NoopRecorder) SetTelemetryState(state string) {}

// ObserveProbe is a no-op.
func (n *NoopRecorder) ObserveProbe(direction, outcome string, mbps float64, duration time.Duration) {}

// IncReviewSubmitted is a no-op.
func (n *NoopRecorder) IncReviewSubmitted(outcome string) {}

// IncImageUploaded is a no-op.
func (n *NoopRecorder) IncImageUploaded(outcome string) {}
