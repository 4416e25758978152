package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hostelreview/hostelreview/internal/metrics"
)

// DefaultOpTimeout bounds each telemetry operation.
const DefaultOpTimeout = 250 * time.Millisecond

// PageScore is the most viewed request path.
type PageScore struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// EntityScore is the most viewed hostel.
type EntityScore struct {
	EntityID string `json:"hostelId"`
	Views    int64  `json:"views"`
}

// Tracker records views and answers trending queries. Its zero value
// and a Tracker built with a nil backend are disabled: records are
// dropped and every query answers "no data".
type Tracker struct {
	backend   Backend
	logger    *slog.Logger
	metrics   metrics.Recorder
	opTimeout time.Duration
}

// NewTracker creates a Tracker over backend.
func NewTracker(backend Backend, logger *slog.Logger, recorder metrics.Recorder, opTimeout time.Duration) *Tracker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &Tracker{
		backend:   backend,
		logger:    logger.With("component", "telemetry"),
		metrics:   recorder,
		opTimeout: opTimeout,
	}
}

// Enabled reports whether a backend is configured.
func (t *Tracker) Enabled() bool {
	return t != nil && t.backend != nil
}

// Ready reports whether the backend can take commands now.
func (t *Tracker) Ready() bool {
	return t.Enabled() && t.backend.Ready()
}

// RecordPageView adds one view to path.
func (t *Tracker) RecordPageView(ctx context.Context, path string) {
	t.do(ctx, "record_page", func(ctx context.Context) error {
		if err := t.backend.IncrPage(ctx, path); err != nil {
			return err
		}
		t.metrics.IncPageViewRecorded()
		return nil
	})
}

// RecordEntityView adds one view to hostel id and returns the new count.
// The bool is false when nothing was recorded.
func (t *Tracker) RecordEntityView(ctx context.Context, id string) (int64, bool) {
	var views int64
	ok := t.do(ctx, "record_entity", func(ctx context.Context) error {
		n, err := t.backend.IncrEntity(ctx, id)
		if err != nil {
			return err
		}
		views = n
		t.metrics.IncEntityViewRecorded()
		return nil
	})
	if !ok {
		return 0, false
	}
	return views, true
}

// MostViewedPage returns the leading path, or nil.
func (t *Tracker) MostViewedPage(ctx context.Context) *PageScore {
	var result *PageScore
	t.do(ctx, "most_viewed_page", func(ctx context.Context) error {
		scores, err := t.backend.PageLeaders(ctx)
		if err != nil {
			return err
		}
		if best, ok := lowestMember(scores); ok {
			result = &PageScore{Path: best.Member, Views: best.Views}
		}
		return nil
	})
	return result
}

// MostViewedEntity returns the leading hostel, or nil.
func (t *Tracker) MostViewedEntity(ctx context.Context) *EntityScore {
	var result *EntityScore
	t.do(ctx, "most_viewed_entity", func(ctx context.Context) error {
		scores, err := t.backend.EntityLeaders(ctx)
		if err != nil {
			return err
		}
		if best, ok := lowestMember(scores); ok {
			result = &EntityScore{EntityID: best.Member, Views: best.Views}
		}
		return nil
	})
	return result
}

// IsTrending reports whether path is the current page leader.
func (t *Tracker) IsTrending(ctx context.Context, path string) bool {
	leader := t.MostViewedPage(ctx)
	return leader != nil && leader.Views > 0 && leader.Path == path
}

// IsTrendingEntity reports whether id is the current hostel leader.
func (t *Tracker) IsTrendingEntity(ctx context.Context, id string) bool {
	leader := t.MostViewedEntity(ctx)
	return leader != nil && leader.Views > 0 && leader.EntityID == id
}

// RebuildEntityIndex folds every per-hostel counter into the leader index.
// Scores are only raised, so increments racing the rebuild are kept.
func (t *Tracker) RebuildEntityIndex(ctx context.Context) int {
	if !t.Enabled() {
		return 0
	}

	var merged int
	func() {
		defer t.recoverOp("rebuild_index")

		counts, err := t.backend.EntityCounters(ctx)
		if err != nil {
			t.fail("rebuild_index", err)
			return
		}
		if err := t.backend.MergeEntityIndex(ctx, counts); err != nil {
			t.fail("rebuild_index", err)
			return
		}
		merged = len(counts)
	}()

	t.logger.Info("hostel view index rebuilt", "counters", merged)
	return merged
}

// do runs fn when the backend is ready, under the op timeout, swallowing
// errors and panics. It reports whether fn ran and succeeded.
func (t *Tracker) do(ctx context.Context, op string, fn func(ctx context.Context) error) (ok bool) {
	if !t.Ready() {
		return false
	}

	defer func() {
		if rec := recover(); rec != nil {
			t.fail(op, fmt.Errorf("panic: %v", rec))
			ok = false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		t.fail(op, err)
		return false
	}
	return true
}

func (t *Tracker) recoverOp(op string) {
	if rec := recover(); rec != nil {
		t.fail(op, fmt.Errorf("panic: %v", rec))
	}
}

func (t *Tracker) fail(op string, err error) {
	t.metrics.IncTelemetryError(op)
	t.logger.Warn("telemetry operation failed", "op", op, "error", err)
}
