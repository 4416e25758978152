package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/hostelreview/hostelreview/internal/auth"
	"github.com/hostelreview/hostelreview/internal/handler/dto"
	"github.com/hostelreview/hostelreview/internal/model"
	"github.com/hostelreview/hostelreview/internal/service"
)

const maxFlashMessageLength = 200

// IdentityProvider is the OAuth sign-in flow.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Profile, error)
}

// Accounts manages signed-in users.
type Accounts interface {
	SignIn(ctx context.Context, profile service.Profile) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListReviews(ctx context.Context, userID string) ([]*model.Review, error)
}

// AuthHandler handles Google sign-in, sign-out and the dashboard.
type AuthHandler struct {
	sessions *auth.SessionManager
	provider IdentityProvider
	accounts Accounts
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. provider is nil when sign-in
// is not configured.
func NewAuthHandler(sessions *auth.SessionManager, provider IdentityProvider, accounts Accounts, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		provider: provider,
		accounts: accounts,
		logger:   logger,
	}
}

// Login handles GET /auth/google.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "OAUTH_DISABLED", "Google sign-in is not configured")
		return
	}

	state, err := h.sessions.IssueState(w)
	if err != nil {
		h.logger.Error("failed to issue oauth state", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /auth/google/callback. Every failure lands back
// on the home page.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	q := r.URL.Query()
	if !h.sessions.VerifyState(w, r, q.Get("state")) {
		h.logger.Warn("oauth callback rejected", "reason", "state mismatch")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if reason := q.Get("error"); reason != "" {
		h.logger.Info("oauth sign-in declined", "reason", reason)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	profile, err := h.provider.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		h.logger.Warn("oauth exchange failed", "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	user, err := h.accounts.SignIn(r.Context(), service.Profile{
		ProviderUID: profile.Subject,
		Name:        profile.Name,
		Email:       profile.Email,
		Picture:     profile.Picture,
	})
	if err != nil {
		h.logger.Error("sign-in failed", "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	err = h.sessions.Issue(w, auth.Session{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Picture: user.ProfilePicture,
	})
	if err != nil {
		h.logger.Error("failed to issue session", "user_id", user.ID, "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	h.logger.Info("user signed in", "user_id", user.ID)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Logout handles GET and POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Dashboard handles GET /dashboard. RequireSession must run first.
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	user, err := h.accounts.GetUser(r.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			// Account removed since the cookie was issued.
			h.sessions.Clear(w)
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		h.logger.Error("failed to load user", "user_id", session.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	reviews, err := h.accounts.ListReviews(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load user reviews", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, dto.DashboardResponse{
		User:    user,
		Reviews: nonNil(reviews),
		Message: flashMessage(r.URL.Query().Get("message")),
	})
}

// flashMessage trims a query-string message to a sane length.
func flashMessage(msg string) string {
	if utf8.RuneCountInString(msg) <= maxFlashMessageLength {
		return msg
	}
	return string([]rune(msg)[:maxFlashMessageLength])
}
