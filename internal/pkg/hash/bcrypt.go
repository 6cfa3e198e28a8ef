package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost keeps a 6-digit space expensive to brute force offline
// while staying well under the request latency budget.
const DefaultBcryptCost = 8

// Bcrypt hashes with bcrypt. The pepper is appended to the plaintext and must
// live in configuration, never in the database.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt returns a bcrypt hasher; cost outside bcrypt's range falls back to DefaultBcryptCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Bcrypt{cost: cost, pepper: pepper}
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext+h.pepper), h.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHashingFailed, err)
	}
	return digest, nil
}

func (h *Bcrypt) Compare(hashed []byte, plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(hashed, []byte(plaintext+h.pepper))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrHashingFailed, err)
	}
}
