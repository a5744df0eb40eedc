// Package tokenstore keeps short-lived codes (invites, email verification)
// keyed by a caller-chosen string, typically an email address.
package tokenstore

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%&*?-_"

var (
	// ErrInvalidLength is returned by Generate for a non-positive length
	ErrInvalidLength = errors.New("token length must be positive")
	// ErrInvalidTTL is returned by Put when the store has no positive expiry.
	// Redis keeps keys without a TTL forever, so neither backend accepts one.
	ErrInvalidTTL = errors.New("token expiration must be positive")
)

// Tokener is any record that carries a token string
type Tokener interface {
	GetToken() string
}

// Store is a keyed cache whose entries expire after a fixed delay
type Store[T Tokener] interface {
	// Put inserts or overwrites the record at key and restarts its expiry
	Put(ctx context.Context, key string, record T) error
	// Get returns the record at key, or false when absent or expired
	Get(ctx context.Context, key string) (T, bool, error)
	// Validate reports whether the record at key carries exactly candidate
	Validate(ctx context.Context, key, candidate string) (bool, error)
	// Remove evicts key. Removing a missing key is a no-op.
	Remove(ctx context.Context, key string) error
}

// Generate returns a random string of the given length drawn from an
// alphanumeric-plus-symbol alphabet using crypto/rand
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	size := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}

func validate[T Tokener](record T, ok bool, candidate string) bool {
	return ok && record.GetToken() == candidate
}
