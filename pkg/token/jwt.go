package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired indicates the token was valid but its expiry has passed.
	ErrExpired = errors.New("token expired")

	// ErrInvalid indicates the token is malformed, has a bad signature or
	// uses an unexpected signing method.
	ErrInvalid = errors.New("token invalid")
)

// DefaultTTL is the lifetime of an access token when none is configured.
const DefaultTTL = 30 * time.Minute

// Claims are the JWT claims carried by an access token.
type Claims struct {
	// UserID identifies the authenticated user.
	UserID int64 `json:"user_id"`

	jwt.RegisteredClaims
}

// Issuer signs and validates access tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration

	// now is overridable in tests.
	now func() time.Time
}

// NewIssuer creates an Issuer. A non-positive ttl falls back to DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a signed access token for the given user.
//
// Returns the encoded token and its expiry time.
func (i *Issuer) Issue(userID int64) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Parse validates an access token and returns its claims.
//
// Returns ErrExpired for expired tokens and ErrInvalid for every other failure.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalid
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	if claims.UserID <= 0 {
		return nil, ErrInvalid
	}

	return &claims, nil
}

// mapJWTError translates jwt library errors to package errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrExpired
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}
