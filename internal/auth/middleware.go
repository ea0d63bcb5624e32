package auth

import (
	"net/http"
	"strings"

	"github.com/noah-isme/paypal-orders/internal/common"
)

// Middleware wires the admin session into HTTP handlers.
type Middleware struct {
	Service    *Service
	CookieName string
}

// RequireSession rejects requests without a live admin session and stores the
// subject on the context otherwise.
func (m Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Service == nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
			return
		}
		token := tokenFromRequest(r, m.CookieName)
		if token == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		claims, err := m.Service.Authenticate(r.Context(), token)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithSubject(r.Context(), claims.Subject)))
	})
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil {
			return strings.TrimSpace(cookie.Value)
		}
	}
	return ""
}
