package telemetry

import (
	"net/http"
	"path"
	"strings"
)

var staticExtensions = map[string]struct{}{
	".js": {}, ".css": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
	".ico": {}, ".svg": {}, ".woff": {}, ".woff2": {}, ".ttf": {}, ".map": {},
	".webp": {},
}

// operationalPaths are polled by probes and scrapers, never by readers.
var operationalPaths = map[string]struct{}{
	"/healthz": {}, "/readyz": {}, "/metrics": {}, "/favicon.ico": {}, "/robots.txt": {},
}

// QualifiesPageView reports whether r is a content read worth counting:
// a GET outside /api/ that is neither an operational endpoint nor a static
// asset.
func QualifiesPageView(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	p := r.URL.Path
	if p == "/api" || strings.HasPrefix(p, "/api/") {
		return false
	}
	if _, ok := operationalPaths[p]; ok {
		return false
	}
	_, static := staticExtensions[strings.ToLower(path.Ext(p))]
	return !static
}
