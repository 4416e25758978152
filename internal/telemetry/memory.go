package telemetry

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// MemoryBackend keeps telemetry in process memory. It mirrors the Redis key
// layout and is meant for tests and single-process development.
type MemoryBackend struct {
	mu       sync.Mutex
	pages    map[string]int64
	counters map[string]int64 // keyed by full counter key, e.g. "hostel:7"
	index    map[string]int64

	unavailable atomic.Bool
}

// NewMemoryBackend returns an empty, ready backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		pages:    make(map[string]int64),
		counters: make(map[string]int64),
		index:    make(map[string]int64),
	}
}

// SetReady toggles availability.
func (m *MemoryBackend) SetReady(ready bool) {
	m.unavailable.Store(!ready)
}

// SetCounter writes a raw per-hostel counter without touching the index,
// the same shape data has when written before the index existed.
func (m *MemoryBackend) SetCounter(id string, views int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[EntityKey(id)] = views
}

// Counter returns the raw counter for id.
func (m *MemoryBackend) Counter(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[EntityKey(id)]
}

// Ready reports whether the backend is available.
func (m *MemoryBackend) Ready() bool {
	return !m.unavailable.Load()
}

// IncrPage adds one view to path.
func (m *MemoryBackend) IncrPage(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[path]++
	return nil
}

// PageLeaders returns all paths tied at the top score.
func (m *MemoryBackend) PageLeaders(ctx context.Context) ([]Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return topScores(m.pages), nil
}

// IncrEntity increments the counter and index for id.
func (m *MemoryBackend) IncrEntity(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[EntityKey(id)]++
	m.index[id]++
	return m.counters[EntityKey(id)], nil
}

// EntityLeaders returns all ids tied at the top index score.
func (m *MemoryBackend) EntityLeaders(ctx context.Context) ([]Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return topScores(m.index), nil
}

// EntityCounters enumerates every counter key.
func (m *MemoryBackend) EntityCounters(ctx context.Context) ([]Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make([]Score, 0, len(m.counters))
	for key, v := range m.counters {
		if !strings.HasPrefix(key, EntityKeyPrefix) {
			continue
		}
		counts = append(counts, Score{Member: ExtractEntityID(key), Views: v})
	}
	return counts, nil
}

// MergeEntityIndex raises index scores to at least the given counts.
func (m *MemoryBackend) MergeEntityIndex(ctx context.Context, counts []Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range counts {
		if cur, ok := m.index[c.Member]; !ok || c.Views > cur {
			m.index[c.Member] = c.Views
		}
	}
	return nil
}

func topScores(set map[string]int64) []Score {
	var top int64
	found := false
	for _, v := range set {
		if !found || v > top {
			top = v
			found = true
		}
	}
	if !found {
		return nil
	}

	var result []Score
	for member, v := range set {
		if v == top {
			result = append(result, Score{Member: member, Views: v})
		}
	}
	return result
}
