// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Probe directions.
const (
	DirectionDownload = "download"
	DirectionUpload   = "upload"
)

// Probe and review outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Recorder captures metric events for the application.
// All methods are fire-and-forget: implementations must not block or panic.
type Recorder interface {
	// View telemetry
	IncPageViewRecorded()
	IncEntityViewRecorded()
	IncTelemetryError(op string)
	SetTelemetryState(state string)

	// Throughput probe
	ObserveProbe(direction, outcome string, mbps float64, duration time.Duration)

	// Reviews and uploads
	IncReviewSubmitted(outcome string)
	IncImageUploaded(outcome string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
