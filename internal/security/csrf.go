package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/paypal-orders/internal/common"
)

const (
	defaultCSRFHeader = "X-CSRF-Token"
	defaultCSRFCookie = "csrf_token"
)

// CSRF protects cookie-based flows using the double-submit technique.
type CSRF struct {
	Header string
	Cookie string
}

func (c CSRF) names() (string, string) {
	header := strings.TrimSpace(c.Header)
	if header == "" {
		header = defaultCSRFHeader
	}
	cookie := strings.TrimSpace(c.Cookie)
	if cookie == "" {
		cookie = defaultCSRFCookie
	}
	return header, cookie
}

// Middleware enforces that non-idempotent requests include a CSRF token header matching a cookie.
// Bearer-authenticated requests are exempt.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	headerName, cookieName := c.names()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}

		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimSpace(r.Header.Get(headerName))
		if token == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_MISSING", "missing csrf token", nil)
			return
		}

		cookie, err := r.Cookie(cookieName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_MISSING", "missing csrf cookie", nil)
			return
		}

		if subtleConstantTimeCompare(token, cookie.Value) != 1 {
			common.JSONError(w, http.StatusForbidden, "CSRF_INVALID", "invalid csrf token", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CookieOptions mirrors the session cookie attributes.
type CookieOptions struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
	TTL      time.Duration
}

// Issue mints a random token and stores it in a script-readable cookie.
func (c CSRF) Issue(w http.ResponseWriter, opts CookieOptions) (string, error) {
	_, cookieName := c.names()
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		Domain:   opts.Domain,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
		MaxAge:   int(opts.TTL.Seconds()),
	})
	return token, nil
}

// Clear expires the CSRF cookie.
func (c CSRF) Clear(w http.ResponseWriter, opts CookieOptions) {
	_, cookieName := c.names()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		Domain:   opts.Domain,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
		MaxAge:   -1,
	})
}

func subtleConstantTimeCompare(a, b string) int {
	if len(a) != len(b) {
		return 0
	}
	if len(a) == 0 {
		return 1
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b))
}
