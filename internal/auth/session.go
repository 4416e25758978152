package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// Cookie names.
const (
	SessionCookieName = "hostelreview_session"
	StateCookieName   = "hostelreview_oauth_state"

	stateTTL   = 10 * time.Minute
	stateBytes = 32

	sessionIssuer = "hostelreview"
)

// Session errors.
var (
	ErrNoSession      = errors.New("no session cookie")
	ErrInvalidSession = errors.New("invalid session cookie")
	ErrSessionExpired = errors.New("session expired")
)

// Session is the signed-in identity carried in the session cookie.
type Session struct {
	UserID    string
	Name      string
	Email     string
	Picture   string
	ExpiresAt time.Time
}

// sessionClaims is the session token body. The user id is the subject.
type sessionClaims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"pic,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies session cookies holding HS256 JWTs.
type SessionManager struct {
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager derives a signing key from secret with HKDF-SHA256.
func NewSessionManager(secret string, ttl time.Duration, secure bool) (*SessionManager, error) {
	if len(secret) < 16 {
		return nil, errors.New("session secret must be at least 16 characters")
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("hostelreview session cookie v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}

	return &SessionManager{
		key:    key,
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}, nil
}

// Issue writes a session cookie for s. ExpiresAt is set from the TTL.
func (m *SessionManager) Issue(w http.ResponseWriter, s Session) error {
	s.ExpiresAt = m.now().Add(m.ttl).UTC().Truncate(time.Second)

	value, err := m.encode(s)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the session carried by r.
func (m *SessionManager) Read(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, ErrNoSession
	}
	return m.decode(cookie.Value)
}

// Clear removes the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	m.expire(w, SessionCookieName)
}

// IssueState writes a short-lived OAuth state cookie and returns its value.
func (m *SessionManager) IssueState(w http.ResponseWriter) (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}

// VerifyState checks the OAuth state echoed by the provider against the
// state cookie and clears the cookie.
func (m *SessionManager) VerifyState(w http.ResponseWriter, r *http.Request, state string) bool {
	cookie, err := r.Cookie(StateCookieName)
	m.expire(w, StateCookieName)
	if err != nil || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) == 1
}

func (m *SessionManager) expire(w http.ResponseWriter, name string) {
	path := "/"
	if name == StateCookieName {
		path = "/auth"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionManager) encode(s Session) (string, error) {
	claims := sessionClaims{
		Name:    s.Name,
		Email:   s.Email,
		Picture: s.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(m.now()),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

func (m *SessionManager) decode(value string) (*Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrSessionExpired
	case err != nil:
		return nil, ErrInvalidSession
	case claims.Subject == "":
		return nil, ErrInvalidSession
	}

	return &Session{
		UserID:    claims.Subject,
		Name:      claims.Name,
		Email:     claims.Email,
		Picture:   claims.Picture,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
