package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQualifiesPageView(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		path   string
		want   bool
	}{
		{http.MethodGet, "/", true},
		{http.MethodGet, "/hostels/3", true},
		{http.MethodGet, "/floors/12", true},
		{http.MethodGet, "/dashboard", true},
		{http.MethodPost, "/reviews", false},
		{http.MethodHead, "/", false},
		{http.MethodGet, "/api/speedtest", false},
		{http.MethodGet, "/api", false},
		{http.MethodGet, "/apiary", true},
		{http.MethodGet, "/static/app.js", false},
		{http.MethodGet, "/static/site.CSS", false},
		{http.MethodGet, "/uploads/a.webp", false},
		{http.MethodGet, "/fonts/x.woff2", false},
		{http.MethodGet, "/favicon.ico", false},
		{http.MethodGet, "/docs/readme.txt", true},
		{http.MethodGet, "/healthz", false},
		{http.MethodGet, "/readyz", false},
		{http.MethodGet, "/metrics", false},
		{http.MethodGet, "/robots.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if got := QualifiesPageView(req); got != tt.want {
				t.Errorf("QualifiesPageView(%s %s) = %v, want %v", tt.method, tt.path, got, tt.want)
			}
		})
	}
}
