package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hostelreview/hostelreview/internal/auth"
)

// SessionReader reads and clears session cookies.
type SessionReader interface {
	Read(r *http.Request) (*auth.Session, error)
	Clear(w http.ResponseWriter)
}

// Session loads the optional session cookie into the request context.
// Tampered or expired cookies are cleared and the request continues
// anonymously.
func Session(sessions SessionReader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := sessions.Read(r)
			switch {
			case err == nil:
				r = r.WithContext(auth.ContextWithSession(r.Context(), s))
			case errors.Is(err, auth.ErrNoSession):
			default:
				logger.Debug("discarding session cookie",
					"request_id", GetRequestID(r.Context()),
					"reason", err,
				)
				sessions.Clear(w)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession rejects anonymous requests. Page routes pass a
// redirect target; an empty target answers 401 JSON instead.
// Must run after Session.
func RequireSession(redirectTo string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.SessionFromContext(r.Context()) == nil {
				if redirectTo != "" {
					http.Redirect(w, r, redirectTo, http.StatusFound)
					return
				}
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
