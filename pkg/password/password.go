// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch indicates the password does not match the stored hash.
var ErrMismatch = errors.New("password mismatch")

// Hasher produces and checks bcrypt hashes at a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. A cost of zero uses bcrypt.DefaultCost.
// Tests use bcrypt.MinCost to stay fast.
func NewHasher(cost int) *Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of the password.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares a plaintext password with a stored hash.
//
// Returns ErrMismatch when they differ and a wrapped error when the hash is malformed.
func (h *Hasher) Verify(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return fmt.Errorf("failed to verify password: %w", err)
}
