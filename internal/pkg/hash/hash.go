package hash

import "errors"

// ErrHashingFailed is returned when a digest cannot be produced or parsed.
var ErrHashingFailed = errors.New("hash: hashing failed")

// Hash hashes secrets and compares candidates against stored digests.
type Hash interface {
	Hash(plaintext string) ([]byte, error)

	// Compare reports whether plaintext matches hashed. A malformed digest
	// returns ErrHashingFailed; a plain mismatch returns (false, nil).
	Compare(hashed []byte, plaintext string) (bool, error)
}
