package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// DefaultLength is the number of digits sent to users.
const DefaultLength = 6

// ErrEntropyUnavailable is returned when the randomness source fails.
var ErrEntropyUnavailable = errors.New("otp: entropy unavailable")

var ten = big.NewInt(10)

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Numeric produces fixed-length decimal codes; leading zeros are kept.
type Numeric struct {
	length int
	source io.Reader
}

func NewNumeric(length int) *Numeric {
	return newNumeric(length, rand.Reader)
}

func newNumeric(length int, source io.Reader) *Numeric {
	if length <= 0 {
		length = DefaultLength
	}
	return &Numeric{length: length, source: source}
}

func (n *Numeric) Generate() (string, error) {
	code := make([]byte, n.length)
	for i := range code {
		d, err := rand.Int(n.source, ten)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrEntropyUnavailable, err)
		}
		code[i] = byte('0' + d.Int64())
	}

	return string(code), nil
}
