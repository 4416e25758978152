package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	m, err := NewSessionManager(testSecret, time.Hour, true)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	return m
}

func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionManager_RoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	rec := httptest.NewRecorder()

	if err := m.Issue(rec, Session{UserID: "01HX", Name: "Asha", Email: "asha@example.com"}); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie flags = httpOnly:%v secure:%v sameSite:%v", c.HttpOnly, c.Secure, c.SameSite)
	}

	s, err := m.Read(requestWithCookies(rec))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if s.UserID != "01HX" || s.Name != "Asha" || s.Email != "asha@example.com" {
		t.Errorf("Read() = %+v", s)
	}
}

func TestSessionManager_RejectsTampering(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	rec := httptest.NewRecorder()
	if err := m.Issue(rec, Session{UserID: "user-1"}); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	parts := strings.Split(rec.Result().Cookies()[0].Value, ".")
	if len(parts) != 3 {
		t.Fatalf("session token has %d segments, want 3", len(parts))
	}

	forged, err := m.encode(Session{UserID: "admin", ExpiresAt: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}
	forgedPayload := strings.Split(forged, ".")[1]

	expiresAt := jwt.NewNumericDate(time.Now().Add(time.Hour))
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: sessionIssuer, Subject: "admin", ExpiresAt: expiresAt},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: sessionIssuer, Subject: "admin", ExpiresAt: expiresAt},
	}).SignedString(m.key)
	if err != nil {
		t.Fatalf("sign HS384: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: sessionIssuer, Subject: "admin"},
	}).SignedString(m.key)
	if err != nil {
		t.Fatalf("sign without exp: %v", err)
	}

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: sessionIssuer, ExpiresAt: expiresAt},
	}).SignedString(m.key)
	if err != nil {
		t.Fatalf("sign without sub: %v", err)
	}

	other, err := NewSessionManager("another-secret-entirely", time.Hour, false)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	otherRec := httptest.NewRecorder()
	_ = other.Issue(otherRec, Session{UserID: "user-1"})

	tests := []struct {
		name  string
		value string
	}{
		{"not a token", "user-1"},
		{"swapped payload", parts[0] + "." + forgedPayload + "." + parts[2]},
		{"bad signature encoding", parts[0] + "." + parts[1] + ".!!!"},
		{"alg none", unsigned},
		{"other algorithm", hs384},
		{"missing expiry", noExpiry},
		{"missing subject", noSubject},
		{"other key", otherRec.Result().Cookies()[0].Value},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.value})
			if _, err := m.Read(req); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("Read() error = %v, want ErrInvalidSession", err)
			}
		})
	}
}

func TestSessionManager_Expired(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	issuedAt := time.Now()
	m.now = func() time.Time { return issuedAt }

	rec := httptest.NewRecorder()
	if err := m.Issue(rec, Session{UserID: "user-1"}); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	m.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	if _, err := m.Read(requestWithCookies(rec)); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Read() error = %v, want ErrSessionExpired", err)
	}
}

func TestSessionManager_NoCookie(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	if _, err := m.Read(httptest.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, ErrNoSession) {
		t.Errorf("Read() error = %v, want ErrNoSession", err)
	}
}

func TestSessionManager_Clear(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	rec := httptest.NewRecorder()
	m.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName || cookies[0].MaxAge >= 0 {
		t.Errorf("Clear() cookies = %+v", cookies)
	}
}

func TestSessionManager_State(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	rec := httptest.NewRecorder()

	state, err := m.IssueState(rec)
	if err != nil {
		t.Fatalf("IssueState() error = %v", err)
	}

	req := requestWithCookies(rec)
	if !m.VerifyState(httptest.NewRecorder(), req, state) {
		t.Error("expected state to verify")
	}
	if m.VerifyState(httptest.NewRecorder(), req, state+"x") {
		t.Error("expected mismatched state to fail")
	}
	if m.VerifyState(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), state) {
		t.Error("expected missing cookie to fail")
	}
}

func TestNewSessionManager_ShortSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewSessionManager("short", time.Hour, false); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestSessionContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if SessionFromContext(ctx) != nil || UserIDFromContext(ctx) != "" {
		t.Error("expected empty context to have no session")
	}

	ctx = ContextWithSession(ctx, &Session{UserID: "u1"})
	if UserIDFromContext(ctx) != "u1" {
		t.Errorf("UserIDFromContext() = %q", UserIDFromContext(ctx))
	}
	if MustSessionFromContext(ctx).UserID != "u1" {
		t.Error("MustSessionFromContext returned wrong session")
	}
}
