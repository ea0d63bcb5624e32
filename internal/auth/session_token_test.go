package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func testTokens() sessionTokens {
	return sessionTokens{
		secret:   []byte("0123456789abcdef0123456789abcdef"),
		subject:  "admin",
		issuer:   "paypal-orders",
		audience: "paypal-orders-admin",
		skew:     time.Second,
	}
}

func TestSessionTokensRoundTrip(t *testing.T) {
	tokens := testTokens()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	raw, expiresAt, err := tokens.issue("sess-1", now, time.Hour)
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour), expiresAt)

	claims, err := tokens.verify(raw, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "sess-1", claims.SessionID)
	require.Equal(t, "admin", claims.Subject)
	require.True(t, claims.ExpiresAt.Equal(expiresAt))
}

func TestSessionTokensRejectExpired(t *testing.T) {
	tokens := testTokens()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw, _, err := tokens.issue("sess-1", now, time.Minute)
	require.NoError(t, err)

	_, err = tokens.verify(raw, now.Add(time.Hour))
	require.Error(t, err)
}

func TestSessionTokensRejectForeignIssuerAndSubject(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	other := testTokens()
	other.issuer = "someone-else"
	raw, _, err := other.issue("sess-1", now, time.Hour)
	require.NoError(t, err)
	_, err = testTokens().verify(raw, now)
	require.Error(t, err)

	other = testTokens()
	other.subject = "intruder"
	raw, _, err = other.issue("sess-1", now, time.Hour)
	require.NoError(t, err)
	_, err = testTokens().verify(raw, now)
	require.ErrorIs(t, err, errTokenSubject)
}

func TestSessionTokensRejectWrongSecret(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	other := testTokens()
	other.secret = []byte("another-secret-another-secret-00")
	raw, _, err := other.issue("sess-1", now, time.Hour)
	require.NoError(t, err)

	_, err = testTokens().verify(raw, now)
	require.Error(t, err)
}

func TestSessionTokensRejectOtherAlgorithms(t *testing.T) {
	tokens := testTokens()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tok, err := jwt.NewBuilder().
		JwtID("sess-1").
		Subject("admin").
		Issuer(tokens.issuer).
		Audience([]string{tokens.audience}).
		Expiration(now.Add(time.Hour)).
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS512, tokens.secret))
	require.NoError(t, err)
	_, err = tokens.verify(string(signed), now)
	require.ErrorContains(t, err, "unexpected token algorithm")

	unsigned, err := jwt.NewSerializer().Serialize(tok)
	require.NoError(t, err)
	_, err = tokens.verify(string(unsigned), now)
	require.Error(t, err)
}

func TestSessionTokensRequireSessionID(t *testing.T) {
	tokens := testTokens()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw, _, err := tokens.issue("", now, time.Hour)
	require.NoError(t, err)

	_, err = tokens.verify(raw, now)
	require.Error(t, err)
}
