package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/noah-isme/paypal-orders/internal/common"
)

const defaultSessionTTL = 12 * time.Hour

// ErrInvalidCredentials is wrapped by the error Login returns for a bad
// username or password.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Service authenticates the single operator account and issues session tokens.
type Service struct {
	username     string
	passwordHash string
	dummyHash    string
	ttl          time.Duration
	sessions     SessionStore
	now          func() time.Time
	tokens       sessionTokens
}

// Config configures the auth service.
type Config struct {
	Username     string
	PasswordHash string
	Secret       string
	SessionTTL   time.Duration
	Sessions     SessionStore
	Issuer       string
	Audience     string
	ClockSkew    time.Duration
}

// Session is the result of a successful login.
type Session struct {
	ID        string    `json:"-"`
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Claims are the verified facts carried by a session token.
type Claims struct {
	SessionID string
	Subject   string
	ExpiresAt time.Time
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		return nil, errors.New("auth: username is required")
	}
	if strings.TrimSpace(cfg.PasswordHash) == "" {
		return nil, errors.New("auth: password hash is required")
	}
	params, _, _, err := argon2id.DecodeHash(strings.TrimSpace(cfg.PasswordHash))
	if err != nil {
		return nil, fmt.Errorf("auth: invalid password hash: %w", err)
	}
	// Unknown usernames are checked against a hash with the same cost.
	dummyHash, err := argon2id.CreateHash(uuid.NewString(), params)
	if err != nil {
		return nil, fmt.Errorf("auth: timing hash: %w", err)
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("auth: session store is required")
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "paypal-orders"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "paypal-orders-admin"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		username:     username,
		passwordHash: strings.TrimSpace(cfg.PasswordHash),
		dummyHash:    dummyHash,
		ttl:          ttl,
		sessions:     cfg.Sessions,
		now:          time.Now,
		tokens: sessionTokens{
			secret:   []byte(secret),
			subject:  username,
			issuer:   issuer,
			audience: audience,
			skew:     clockSkew,
		},
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// TTL reports how long issued sessions stay valid.
func (s *Service) TTL() time.Duration { return s.ttl }

// HashPassword produces an argon2id hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("auth: password must be at least 8 characters")
	}
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// Login verifies the operator credentials and opens a new session.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	invalid := common.NewAppError("INVALID_CREDENTIALS", "invalid username or password", http.StatusUnauthorized, ErrInvalidCredentials)
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(s.username)) == 1
	hash := s.passwordHash
	if !userOK {
		hash = s.dummyHash
	}
	ok, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil || !ok || !userOK {
		return Session{}, invalid
	}

	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokens.issue(sessionID, s.now(), s.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	if err := s.sessions.Create(ctx, sessionID, s.username, s.ttl); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	return Session{ID: sessionID, Token: token, Username: s.username, ExpiresAt: expiresAt}, nil
}

// Logout revokes the session behind token. Invalid tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}
	return s.sessions.Revoke(ctx, claims.SessionID)
}

// Authenticate validates token and confirms its session has not been revoked.
func (s *Service) Authenticate(ctx context.Context, token string) (Claims, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	active, err := s.sessions.Active(ctx, claims.SessionID)
	if err != nil {
		return Claims{}, fmt.Errorf("lookup session: %w", err)
	}
	if !active {
		return Claims{}, common.NewAppError("UNAUTHORIZED", "session expired", http.StatusUnauthorized, nil)
	}
	return claims, nil
}

func (s *Service) parseToken(token string) (Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Claims{}, common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	claims, err := s.tokens.verify(trimmed, s.now())
	if err != nil {
		return Claims{}, common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return claims, nil
}
