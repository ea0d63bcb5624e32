package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paypal-orders/internal/audit"
	"github.com/noah-isme/paypal-orders/internal/common"
	"github.com/noah-isme/paypal-orders/internal/security"
)

// AuditRecorder persists login and logout events.
type AuditRecorder interface {
	Record(ctx context.Context, req *http.Request, e audit.Entry) error
}

// Handler exposes HTTP handlers for the admin session endpoints.
type Handler struct {
	Service        *Service
	Validate       *validator.Validate
	CSRF           security.CSRF
	Audit          AuditRecorder
	Logger         zerolog.Logger
	CookieName     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=512"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "username and password are required", common.ValidationDetails(err))
			return
		}
	}

	session, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.record(r, audit.Actor{Kind: audit.ActorKindAnonymous, Subject: req.Username}, "auth.login_failed", http.StatusUnauthorized)
		common.WriteError(w, err)
		return
	}

	opts := h.cookieOptions()
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    session.Token,
		Domain:   h.CookieDomain,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	})
	csrfToken, err := h.CSRF.Issue(w, opts)
	if err != nil {
		h.Logger.Error().Err(err).Msg("issue csrf token")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	h.record(r, audit.Actor{Kind: audit.ActorKindAdmin, Subject: session.Username}, "auth.login", http.StatusOK)

	common.JSONSuccess(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"username":   session.Username,
			"token":      session.Token,
			"expires_at": session.ExpiresAt,
			"csrf_token": csrfToken,
		},
	})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	if token := tokenFromRequest(r, h.cookieName()); token != "" {
		if err := h.Service.Logout(r.Context(), token); err != nil {
			h.Logger.Warn().Err(err).Msg("revoke session")
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    "",
		Domain:   h.CookieDomain,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	})
	h.CSRF.Clear(w, h.cookieOptions())
	h.record(r, audit.ActorFromRequest(r), "auth.logout", http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject, ok := common.Subject(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	common.JSONSuccess(w, http.StatusOK, map[string]any{"data": map[string]any{"username": subject}})
}

func (h *Handler) record(r *http.Request, actor audit.Actor, action string, status int) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), r, audit.Entry{Actor: actor, Action: action, ResourceType: "session", Status: status}); err != nil {
		h.Logger.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}

func (h *Handler) cookieName() string {
	if h.CookieName == "" {
		return "admin_session"
	}
	return h.CookieName
}

func (h *Handler) cookieOptions() security.CookieOptions {
	ttl := defaultSessionTTL
	if h.Service != nil {
		ttl = h.Service.TTL()
	}
	return security.CookieOptions{
		Domain:   h.CookieDomain,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
		TTL:      ttl,
	}
}
