package middleware

import (
	"context"
	"net/http"

	"github.com/hostelreview/hostelreview/internal/telemetry"
)

// PageViewRecorder is the slice of telemetry.Tracker used by PageViews.
type PageViewRecorder interface {
	Ready() bool
	RecordPageView(ctx context.Context, path string)
}

// PageViews counts qualifying page views before serving the request.
// Recording is bounded by the tracker's op timeout and never fails the
// request.
func PageViews(recorder PageViewRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if recorder != nil && telemetry.QualifiesPageView(r) && recorder.Ready() {
				recorder.RecordPageView(r.Context(), r.URL.Path)
			}
			next.ServeHTTP(w, r)
		})
	}
}
