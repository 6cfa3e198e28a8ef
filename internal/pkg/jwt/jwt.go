package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("jwt: invalid signing method")
	ErrSigningKeyTooShort   = errors.New("jwt: signing key shorter than the algorithm's hash size")
	ErrTokenExpired         = errors.New("jwt: token expired")
	ErrInvalidToken         = errors.New("jwt: invalid token")
)

// JWT verifies session tokens.
type JWT interface {
	Verify(token string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

// Config configures an HMAC token verifier.
type Config struct {
	// Algorithm is HS256, HS384 or HS512. Empty means HS256.
	Algorithm string
	Secret    []byte
	Issuer    string
	Audiences []string
	Clock     clocker
}

// Claims are the registered claims plus the principal the session belongs to.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id,string"`
	UserEmail string `json:"email"`
}
