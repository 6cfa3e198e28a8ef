package jwt

import (
	"strconv"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/titipyuk/internal/pkg/clock"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func newVerifier(t *testing.T, issuer string, now time.Time) *Symmetric {
	t.Helper()

	s, err := NewSymmetric(Config{
		Secret:    secret,
		Issuer:    issuer,
		Audiences: []string{"titipyuk-web"},
		Clock:     clock.Fixed(now),
	})
	require.NoError(t, err)
	return s
}

// sign mints a session the way the identity provider does.
func sign(t *testing.T, method libJWT.SigningMethod, issuer, audience string, uid int64, now time.Time) string {
	t.Helper()

	token, err := libJWT.NewWithClaims(method, Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        "jti-1",
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    issuer,
			Audience:  libJWT.ClaimStrings{audience},
			IssuedAt:  libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(time.Hour)),
		},
		UserID:    uid,
		UserEmail: "a@x.com",
	}).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestSymmetricVerify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	token := sign(t, libJWT.SigningMethodHS256, "titipyuk", "titipyuk-web", 42, now)

	claims, err := newVerifier(t, "titipyuk", now).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "a@x.com", claims.UserEmail)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "jti-1", claims.ID)
}

func TestSymmetricVerifyRejects(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	token := sign(t, libJWT.SigningMethodHS256, "titipyuk", "titipyuk-web", 42, now)

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		_, err := newVerifier(t, "titipyuk", now.Add(2*time.Hour)).Verify(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("other issuer", func(t *testing.T) {
		t.Parallel()
		_, err := newVerifier(t, "another-backend", now).Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other audience", func(t *testing.T) {
		t.Parallel()
		other := sign(t, libJWT.SigningMethodHS256, "titipyuk", "admin-console", 42, now)
		_, err := newVerifier(t, "titipyuk", now).Verify(other)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		t.Parallel()
		other := sign(t, libJWT.SigningMethodHS512, "titipyuk", "titipyuk-web", 42, now)
		_, err := newVerifier(t, "titipyuk", now).Verify(other)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()
		anon := sign(t, libJWT.SigningMethodHS256, "titipyuk", "titipyuk-web", 0, now)
		_, err := newVerifier(t, "titipyuk", now).Verify(anon)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered", func(t *testing.T) {
		t.Parallel()
		_, err := newVerifier(t, "titipyuk", now).Verify(token + "x")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := newVerifier(t, "titipyuk", now).Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewSymmetricConfig(t *testing.T) {
	t.Parallel()

	_, err := NewSymmetric(Config{Algorithm: "RS256", Secret: secret})
	assert.ErrorIs(t, err, ErrInvalidSigningMethod)

	_, err = NewSymmetric(Config{Algorithm: "HS512", Secret: secret})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)

	_, err = NewSymmetric(Config{Algorithm: "HS384", Secret: append(secret, secret...)})
	assert.NoError(t, err)
}
