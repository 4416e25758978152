package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PageViewsRecorded   uint64
	EntityViewsRecorded uint64
	TelemetryErrors     map[string]uint64
	TelemetryState      string
	ProbeRuns           map[string]uint64 // key: direction/outcome
	LastProbeMbps       map[string]float64
	ReviewsSubmitted    map[string]uint64
	ImagesUploaded      map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	pageViews   uint64
	entityViews uint64

	mu               sync.Mutex
	telemetryErrors  map[string]uint64
	telemetryState   string
	probeRuns        map[string]uint64
	lastProbeMbps    map[string]float64
	reviewsSubmitted map[string]uint64
	imagesUploaded   map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		telemetryErrors:  make(map[string]uint64),
		probeRuns:        make(map[string]uint64),
		lastProbeMbps:    make(map[string]float64),
		reviewsSubmitted: make(map[string]uint64),
		imagesUploaded:   make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		PageViewsRecorded:   atomic.LoadUint64(&m.pageViews),
		EntityViewsRecorded: atomic.LoadUint64(&m.entityViews),
		TelemetryErrors:     copyCounts(m.telemetryErrors),
		TelemetryState:      m.telemetryState,
		ProbeRuns:           copyCounts(m.probeRuns),
		LastProbeMbps:       copyRates(m.lastProbeMbps),
		ReviewsSubmitted:    copyCounts(m.reviewsSubmitted),
		ImagesUploaded:      copyCounts(m.imagesUploaded),
	}
}

// IncPageViewRecorded increments the recorded page view counter.
func (m *InMemoryRecorder) IncPageViewRecorded() {
	atomic.AddUint64(&m.pageViews, 1)
}

// IncEntityViewRecorded increments the recorded entity view counter.
func (m *InMemoryRecorder) IncEntityViewRecorded() {
	atomic.AddUint64(&m.entityViews, 1)
}

// IncTelemetryError counts a swallowed telemetry error for op.
func (m *InMemoryRecorder) IncTelemetryError(op string) {
	m.mu.Lock()
	m.telemetryErrors[op]++
	m.mu.Unlock()
}

// SetTelemetryState records the current connection state.
func (m *InMemoryRecorder) SetTelemetryState(state string) {
	m.mu.Lock()
	m.telemetryState = state
	m.mu.Unlock()
}

// ObserveProbe records a probe measurement.
func (m *InMemoryRecorder) ObserveProbe(direction, outcome string, mbps float64, duration time.Duration) {
	m.mu.Lock()
	m.probeRuns[direction+"/"+outcome]++
	m.lastProbeMbps[direction] = mbps
	m.mu.Unlock()
}

// IncReviewSubmitted counts a review submission by outcome.
func (m *InMemoryRecorder) IncReviewSubmitted(outcome string) {
	m.mu.Lock()
	m.reviewsSubmitted[outcome]++
	m.mu.Unlock()
}

// IncImageUploaded counts an image upload by outcome.
func (m *InMemoryRecorder) IncImageUploaded(outcome string) {
	m.mu.Lock()
	m.imagesUploaded[outcome]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyRates(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
