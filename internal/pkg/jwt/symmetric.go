package jwt

import (
	"errors"
	"fmt"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric verifies tokens signed with a shared HMAC secret.
type Symmetric struct {
	method *libJWT.SigningMethodHMAC
	cfg    Config
}

func NewSymmetric(cfg Config) (*Symmetric, error) {
	var method *libJWT.SigningMethodHMAC
	switch cfg.Algorithm {
	case "", "HS256":
		method = libJWT.SigningMethodHS256
	case "HS384":
		method = libJWT.SigningMethodHS384
	case "HS512":
		method = libJWT.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSigningMethod, cfg.Algorithm)
	}

	if len(cfg.Secret) < method.Hash.Size() {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{method: method, cfg: cfg}, nil
}

func (s *Symmetric) Verify(token string) (Claims, error) {
	var claims Claims

	opts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{s.method.Alg()}),
		libJWT.WithIssuer(s.cfg.Issuer),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.cfg.Clock.Now),
	}
	for _, aud := range s.cfg.Audiences {
		opts = append(opts, libJWT.WithAudience(aud))
	}

	parsed, err := libJWT.ParseWithClaims(token, &claims, func(*libJWT.Token) (any, error) {
		return s.cfg.Secret, nil
	}, opts...)
	if errors.Is(err, libJWT.ErrTokenExpired) {
		return Claims{}, ErrTokenExpired
	}
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == 0 {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
