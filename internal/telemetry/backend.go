package telemetry

import (
	"context"
	"strconv"
)

// Telemetry keys.
const (
	// PageViewsKey is the sorted set of request path -> views.
	PageViewsKey = "pageViews"

	// EntityKeyPrefix prefixes the per-hostel integer counters.
	EntityKeyPrefix = "hostel:"

	// EntityIndexKey is the sorted set of hostel id -> views kept in step
	// with the per-hostel counters so the leader is found without a scan.
	EntityIndexKey = "hostelViews"
)

// Score pairs a sorted-set member with its view count.
type Score struct {
	Member string
	Views  int64
}

// Backend is the storage contract used by Tracker.
type Backend interface {
	// Ready reports whether the store can take commands right now.
	Ready() bool

	// IncrPage adds one view to path.
	IncrPage(ctx context.Context, path string) error

	// PageLeaders returns every path sharing the highest score.
	PageLeaders(ctx context.Context) ([]Score, error)

	// IncrEntity atomically increments the counter for id and returns it.
	IncrEntity(ctx context.Context, id string) (int64, error)

	// EntityLeaders returns every hostel id sharing the highest score.
	EntityLeaders(ctx context.Context) ([]Score, error)

	// EntityCounters enumerates all per-hostel counters by prefix scan.
	EntityCounters(ctx context.Context) ([]Score, error)

	// MergeEntityIndex raises index scores to at least the given counts.
	MergeEntityIndex(ctx context.Context, counts []Score) error
}

// EntityKey returns the counter key for a hostel id.
func EntityKey(id string) string {
	return EntityKeyPrefix + id
}

// ExtractEntityID extracts the hostel id from a counter key.
func ExtractEntityID(key string) string {
	if len(key) > len(EntityKeyPrefix) && key[:len(EntityKeyPrefix)] == EntityKeyPrefix {
		return key[len(EntityKeyPrefix):]
	}
	return ""
}

// lowestMember picks the deterministic leader among tied scores: ids that
// both parse as integers compare numerically, otherwise lexicographically.
func lowestMember(scores []Score) (Score, bool) {
	if len(scores) == 0 {
		return Score{}, false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Views > best.Views || (s.Views == best.Views && lessID(s.Member, best.Member)) {
			best = s
		}
	}
	return best, true
}

func lessID(a, b string) bool {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	if aErr == nil && bErr == nil {
		return ai < bi
	}
	return a < b
}
