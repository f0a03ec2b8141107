package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// MinSecretLength is the minimum length of the signing secret in bytes.
	// HS256 keys shorter than the hash output weaken the signature.
	MinSecretLength = 32

	// DefaultSecretBytes is the number of random bytes to generate for secrets.
	// 32 bytes = 256 bits of entropy, which base64-encodes to 44 characters.
	DefaultSecretBytes = 32
)

// GenerateSecret creates a cryptographically secure random secret suitable
// for signing access tokens.
//
// Example:
//
//	secret, err := token.GenerateSecret()
//	if err != nil {
//	    return fmt.Errorf("failed to generate secret: %w", err)
//	}
func GenerateSecret() (string, error) {
	return GenerateSecretWithLength(DefaultSecretBytes)
}

// GenerateSecretWithLength creates a random secret from numBytes random bytes.
// The resulting base64-encoded secret is longer than the input byte length.
func GenerateSecretWithLength(numBytes int) (string, error) {
	if numBytes < DefaultSecretBytes {
		return "", fmt.Errorf("secret length must be at least %d bytes", DefaultSecretBytes)
	}

	b := make([]byte, numBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// ValidateSecret checks that a signing secret meets the minimum length.
//
// Example:
//
//	if err := token.ValidateSecret(cfg.SecretKey); err != nil {
//	    return fmt.Errorf("invalid secret key: %w", err)
//	}
func ValidateSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("secret is required")
	}
	if len(secret) < MinSecretLength {
		return fmt.Errorf("secret too short: got %d bytes, need at least %d", len(secret), MinSecretLength)
	}
	return nil
}
