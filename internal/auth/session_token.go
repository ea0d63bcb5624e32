package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var errTokenSubject = errors.New("auth: token subject mismatch")

// sessionTokens issues and verifies HS256 session tokens bound to the
// operator account. The token's jti is the revocable session id.
type sessionTokens struct {
	secret   []byte
	subject  string
	issuer   string
	audience string
	skew     time.Duration
}

func (t sessionTokens) issue(sessionID string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	token, err := jwt.NewBuilder().
		JwtID(sessionID).
		Subject(t.subject).
		Issuer(t.issuer).
		Audience([]string{t.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-t.skew)).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, t.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// verify checks the signature, the pinned algorithm and the registered
// claims at now, then returns the session claims.
func (t sessionTokens) verify(raw string, now time.Time) (Claims, error) {
	if err := requireHS256(raw); err != nil {
		return Claims{}, err
	}
	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, t.secret),
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
	}
	if t.skew > 0 {
		opts = append(opts, jwt.WithAcceptableSkew(t.skew))
	}
	parsed, err := jwt.ParseString(raw, opts...)
	if err != nil {
		return Claims{}, err
	}
	if parsed.JwtID() == "" {
		return Claims{}, errors.New("auth: token missing session id")
	}
	if parsed.Subject() != t.subject {
		return Claims{}, errTokenSubject
	}
	return Claims{SessionID: parsed.JwtID(), Subject: parsed.Subject(), ExpiresAt: parsed.Expiration()}, nil
}

// requireHS256 rejects tokens whose every signature does not declare HS256,
// including unsigned "none" tokens.
func requireHS256(raw string) error {
	msg, err := jws.ParseString(raw)
	if err != nil {
		return err
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return errors.New("auth: token contains no signatures")
	}
	for _, sig := range sigs {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return errors.New("auth: token missing protected headers")
		}
		if alg := headers.Algorithm(); alg != jwa.HS256 {
			return fmt.Errorf("auth: unexpected token algorithm %q", alg)
		}
	}
	return nil
}
