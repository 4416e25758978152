package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hostelreview/hostelreview/internal/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingBackend is ready but fails or panics on every command.
type failingBackend struct {
	err   error
	panic bool
}

func (f *failingBackend) Ready() bool { return true }

func (f *failingBackend) fail() error {
	if f.panic {
		panic("store exploded")
	}
	return f.err
}

func (f *failingBackend) IncrPage(ctx context.Context, path string) error { return f.fail() }
func (f *failingBackend) PageLeaders(ctx context.Context) ([]Score, error) {
	return nil, f.fail()
}
func (f *failingBackend) IncrEntity(ctx context.Context, id string) (int64, error) {
	return 0, f.fail()
}
func (f *failingBackend) EntityLeaders(ctx context.Context) ([]Score, error) {
	return nil, f.fail()
}
func (f *failingBackend) EntityCounters(ctx context.Context) ([]Score, error) {
	return nil, f.fail()
}
func (f *failingBackend) MergeEntityIndex(ctx context.Context, counts []Score) error {
	return f.fail()
}

// slowBackend blocks until the context ends.
type slowBackend struct {
	failingBackend
}

func (s *slowBackend) PageLeaders(ctx context.Context) ([]Score, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newMemoryTracker() (*Tracker, *MemoryBackend) {
	backend := NewMemoryBackend()
	return NewTracker(backend, testLogger(), nil, 0), backend
}

func TestTracker_ConcurrentEntityViews(t *testing.T) {
	t.Parallel()

	tracker, backend := newMemoryTracker()
	ctx := context.Background()

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordEntityView(ctx, "42")
		}()
	}
	wg.Wait()

	if got := backend.Counter("42"); got != n {
		t.Errorf("counter = %d, want %d", got, n)
	}

	leader := tracker.MostViewedEntity(ctx)
	if leader == nil || leader.Views != n {
		t.Errorf("leader = %+v, want views %d", leader, n)
	}
}

func TestTracker_RecordEntityViewReturnsCount(t *testing.T) {
	t.Parallel()

	tracker, _ := newMemoryTracker()
	ctx := context.Background()

	tracker.RecordEntityView(ctx, "7")
	views, ok := tracker.RecordEntityView(ctx, "7")
	if !ok || views != 2 {
		t.Errorf("RecordEntityView() = %d, %v; want 2, true", views, ok)
	}
}

func TestTracker_MostViewedPage_Empty(t *testing.T) {
	t.Parallel()

	tracker, _ := newMemoryTracker()
	if got := tracker.MostViewedPage(context.Background()); got != nil {
		t.Errorf("expected nil on empty store, got %+v", got)
	}
}

func TestTracker_MostViewedPage_Disconnected(t *testing.T) {
	t.Parallel()

	tracker, backend := newMemoryTracker()
	ctx := context.Background()

	tracker.RecordPageView(ctx, "/")
	backend.SetReady(false)

	if got := tracker.MostViewedPage(ctx); got != nil {
		t.Errorf("expected nil when disconnected, got %+v", got)
	}

	// Records while disconnected are dropped.
	tracker.RecordPageView(ctx, "/hostels/1")
	tracker.RecordPageView(ctx, "/hostels/1")
	backend.SetReady(true)

	got := tracker.MostViewedPage(ctx)
	if got == nil || got.Path != "/" || got.Views != 1 {
		t.Errorf("MostViewedPage() = %+v, want / with 1 view", got)
	}
}

func TestTracker_MostViewedPage(t *testing.T) {
	t.Parallel()

	tracker, _ := newMemoryTracker()
	ctx := context.Background()

	for _, p := range []string{"/", "/hostels/2", "/hostels/2", "/floors/9"} {
		tracker.RecordPageView(ctx, p)
	}

	got := tracker.MostViewedPage(ctx)
	if got == nil {
		t.Fatal("expected a leader")
	}
	if got.Path != "/hostels/2" || got.Views != 2 {
		t.Errorf("MostViewedPage() = %+v", got)
	}
	if !tracker.IsTrending(ctx, "/hostels/2") {
		t.Error("expected /hostels/2 to be trending")
	}
	if tracker.IsTrending(ctx, "/") {
		t.Error("expected / not to be trending")
	}
}

func TestTracker_MostViewedEntity_Tie(t *testing.T) {
	t.Parallel()

	tracker, backend := newMemoryTracker()
	ctx := context.Background()

	backend.SetCounter("1", 5)
	backend.SetCounter("2", 9)
	backend.SetCounter("3", 9)
	if merged := tracker.RebuildEntityIndex(ctx); merged != 3 {
		t.Fatalf("RebuildEntityIndex() = %d, want 3", merged)
	}

	got := tracker.MostViewedEntity(ctx)
	if got == nil {
		t.Fatal("expected a leader")
	}
	if got.Views != 9 {
		t.Errorf("leader views = %d, want 9", got.Views)
	}
	if got.EntityID != "2" {
		t.Errorf("leader id = %s, want lowest tied id 2", got.EntityID)
	}
}

func TestTracker_RebuildKeepsHigherIndexScores(t *testing.T) {
	t.Parallel()

	tracker, backend := newMemoryTracker()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		tracker.RecordEntityView(ctx, "5")
	}
	backend.SetCounter("5", 2) // stale counter must not lower the index
	tracker.RebuildEntityIndex(ctx)

	got := tracker.MostViewedEntity(ctx)
	if got == nil || got.Views != 4 {
		t.Errorf("leader = %+v, want 4 views", got)
	}
}

func TestTracker_IsTrendingEntity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no leader", func(t *testing.T) {
		tracker, _ := newMemoryTracker()
		if tracker.IsTrendingEntity(ctx, "1") {
			t.Error("expected false with no leader")
		}
	})

	t.Run("leader matches", func(t *testing.T) {
		tracker, _ := newMemoryTracker()
		tracker.RecordEntityView(ctx, "1")
		tracker.RecordEntityView(ctx, "1")
		tracker.RecordEntityView(ctx, "2")
		if !tracker.IsTrendingEntity(ctx, "1") {
			t.Error("expected 1 to be trending")
		}
		if tracker.IsTrendingEntity(ctx, "2") {
			t.Error("expected 2 not to be trending")
		}
	})

	t.Run("zero score", func(t *testing.T) {
		tracker, backend := newMemoryTracker()
		backend.SetCounter("1", 0)
		tracker.RebuildEntityIndex(ctx)
		if tracker.IsTrendingEntity(ctx, "1") {
			t.Error("expected false for zero score leader")
		}
	})
}

func TestTracker_ErrorsDoNotPropagate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		backend *failingBackend
	}{
		{"command error", &failingBackend{err: errors.New("ERR wrong type")}},
		{"connection error", &failingBackend{err: io.EOF}},
		{"panic", &failingBackend{panic: true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := metrics.NewInMemory()
			tracker := NewTracker(tt.backend, testLogger(), rec, 0)
			ctx := context.Background()

			tracker.RecordPageView(ctx, "/")
			if _, ok := tracker.RecordEntityView(ctx, "1"); ok {
				t.Error("RecordEntityView should report failure")
			}
			if got := tracker.MostViewedPage(ctx); got != nil {
				t.Errorf("MostViewedPage() = %+v, want nil", got)
			}
			if got := tracker.MostViewedEntity(ctx); got != nil {
				t.Errorf("MostViewedEntity() = %+v, want nil", got)
			}
			if tracker.IsTrending(ctx, "/") || tracker.IsTrendingEntity(ctx, "1") {
				t.Error("nothing should trend on a failing store")
			}
			tracker.RebuildEntityIndex(ctx)

			snap := rec.Snapshot()
			if snap.TelemetryErrors["record_page"] != 1 {
				t.Errorf("record_page errors = %d, want 1", snap.TelemetryErrors["record_page"])
			}
			if snap.TelemetryErrors["rebuild_index"] != 1 {
				t.Errorf("rebuild_index errors = %d, want 1", snap.TelemetryErrors["rebuild_index"])
			}
		})
	}
}

func TestTracker_OpTimeout(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(&slowBackend{}, testLogger(), nil, 20*time.Millisecond)

	start := time.Now()
	if got := tracker.MostViewedPage(context.Background()); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("op took %v, expected it to be bounded by the timeout", elapsed)
	}
}

func TestTracker_Disabled(t *testing.T) {
	t.Parallel()

	var nilTracker *Tracker
	tracker := NewTracker(nil, testLogger(), nil, 0)
	ctx := context.Background()

	for _, tr := range []*Tracker{nilTracker, tracker} {
		if tr.Enabled() {
			t.Error("expected disabled tracker")
		}
		tr.RecordPageView(ctx, "/")
		if _, ok := tr.RecordEntityView(ctx, "1"); ok {
			t.Error("disabled tracker should not record")
		}
		if tr.MostViewedPage(ctx) != nil || tr.MostViewedEntity(ctx) != nil {
			t.Error("disabled tracker should have no leaders")
		}
		if tr.RebuildEntityIndex(ctx) != 0 {
			t.Error("disabled tracker should not rebuild")
		}
	}
}

func TestLowestMember(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scores []Score
		want   string
	}{
		{"numeric ids compare numerically", []Score{{"10", 3}, {"9", 3}}, "9"},
		{"mixed ids compare lexically", []Score{{"b", 3}, {"a", 3}, {"10", 3}}, "10"},
		{"higher score wins", []Score{{"1", 2}, {"5", 3}}, "5"},
		{"paths", []Score{{"/hostels/2", 4}, {"/", 4}}, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lowestMember(tt.scores)
			if !ok || got.Member != tt.want {
				t.Errorf("lowestMember() = %+v, want %s", got, tt.want)
			}
		})
	}

	if _, ok := lowestMember(nil); ok {
		t.Error("expected no leader for empty input")
	}
}

func TestExtractEntityID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want string
	}{
		{"hostel:12", "12"},
		{"hostel:", ""},
		{"pageViews", ""},
		{"hostels:1", ""},
	}

	for _, tt := range tests {
		if got := ExtractEntityID(tt.key); got != tt.want {
			t.Errorf("ExtractEntityID(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
