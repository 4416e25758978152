package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hostelreview/hostelreview/internal/auth"
)

const testSessionSecret = "middleware-test-secret-0123456789"

func newTestSessions(t *testing.T) *auth.SessionManager {
	t.Helper()
	sessions, err := auth.NewSessionManager(testSessionSecret, time.Hour, false)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sessions
}

func sessionCookie(t *testing.T, sessions *auth.SessionManager, userID string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sessions.Issue(rec, auth.Session{UserID: userID, Name: "Asha"}); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not issued")
	return nil
}

func TestSession(t *testing.T) {
	t.Parallel()

	sessions := newTestSessions(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	valid := sessionCookie(t, sessions, "user-42")

	tests := []struct {
		name        string
		cookie      *http.Cookie
		wantUserID  string
		wantCleared bool
	}{
		{"no cookie is anonymous", nil, "", false},
		{"valid cookie loads session", valid, "user-42", false},
		{"tampered cookie is cleared", &http.Cookie{Name: auth.SessionCookieName, Value: valid.Value + "x"}, "", true},
		{"garbage cookie is cleared", &http.Cookie{Name: auth.SessionCookieName, Value: "not-a-session"}, "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotUserID string
			handler := Session(sessions, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID = auth.UserIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if gotUserID != tt.wantUserID {
				t.Errorf("user id = %q, want %q", gotUserID, tt.wantUserID)
			}

			cleared := false
			for _, c := range rec.Result().Cookies() {
				if c.Name == auth.SessionCookieName && c.MaxAge < 0 {
					cleared = true
				}
			}
			if cleared != tt.wantCleared {
				t.Errorf("cleared = %v, want %v", cleared, tt.wantCleared)
			}
		})
	}
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("anonymous page request redirects", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		RequireSession("/")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/" {
			t.Errorf("Location = %q", loc)
		}
	})

	t.Run("anonymous api request gets 401", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		RequireSession("")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/hostels/1/images", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("signed in passes", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req = req.WithContext(auth.ContextWithSession(req.Context(), &auth.Session{UserID: "u"}))
		rec := httptest.NewRecorder()
		RequireSession("/")(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})
}
