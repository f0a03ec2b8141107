// Package token provides access token issuing and validation for recipebox
// authentication, plus generation of the server signing secret.
//
// # Access Tokens
//
// Access tokens are JWTs signed with HMAC-SHA256 using the server secret. The
// claims carry the user ID and an expiry:
//
//	issuer := token.NewIssuer(secret, 30*time.Minute)
//	access, expiresAt, err := issuer.Issue(user.ID)
//
// Validation only accepts HS256, requires an expiry and checks it against the
// issuer clock:
//
//	claims, err := issuer.Parse(access)
//	if errors.Is(err, token.ErrExpired) {
//	    // ask the client to log in again
//	}
//
// # Secrets
//
// Secrets are generated using crypto/rand:
//
//	secret, err := token.GenerateSecret()
//	// secret is a 44-character base64-URL-encoded string
//
// # Security Properties
//
//   - Minimum secret length of 32 bytes (enforced by ValidateSecret)
//   - Signing method pinned to HS256, "none" and asymmetric algs rejected
//   - Expiry required on every token
//   - Token values are never logged
package token
