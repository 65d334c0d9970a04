package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/fixora/marketplace/application/port/inbound"
)

const tokenBytes = 32

// Config controls the double-submit cookie.
type Config struct {
	CookieName string
	HeaderName string
	Secure     bool
	// TTL of the cookie; zero makes it a browser-session cookie.
	TTL time.Duration
}

// CsrfService implements the double-submit pattern. Validity is purely
// structural: the cookie and header must both be present and identical.
// No server-side state is kept.
type CsrfService struct {
	cfg Config
}

func NewCsrfService(cfg Config) *CsrfService {
	if cfg.CookieName == "" {
		cfg.CookieName = "csrf_token"
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-CSRF-Token"
	}
	return &CsrfService{cfg: cfg}
}

var _ inbound.CsrfGuard = (*CsrfService)(nil)

// Issue mints a new random token.
func (s *CsrfService) Issue() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Validate passes safe methods unconditionally. Unsafe methods pass only
// when both tokens are non-empty and byte-identical.
func (s *CsrfService) Validate(cookieToken, headerToken, method string) bool {
	if IsSafeMethod(method) {
		return true
	}
	if cookieToken == "" || headerToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) == 1
}

func (s *CsrfService) CookieName() string { return s.cfg.CookieName }
func (s *CsrfService) HeaderName() string { return s.cfg.HeaderName }

// Cookie builds the token cookie. It is deliberately readable by script
// since the client has to echo it into the header.
func (s *CsrfService) Cookie(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.cfg.TTL > 0 {
		c.MaxAge = int(s.cfg.TTL.Seconds())
		c.Expires = time.Now().Add(s.cfg.TTL)
	}
	return c
}

// TokenFromRequest returns the caller's existing cookie token, or "".
func (s *CsrfService) TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(s.cfg.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// IsSafeMethod reports read-only HTTP methods.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
