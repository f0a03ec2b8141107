// Package util holds small input normalization and validation helpers shared
// by the service and API layers.
package util

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxLinkLength is the maximum stored length of a recipe link.
const MaxLinkLength = 255

// ValidateUUID checks if a string is a valid UUID.
//
// Example:
//
//	if err := util.ValidateUUID(c.GetHeader("X-Request-ID")); err == nil {
//	    requestID = c.GetHeader("X-Request-ID")
//	}
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid UUID format: %w", err)
	}
	return nil
}

// NormalizeEmail trims surrounding whitespace and lower-cases the domain part.
// The local part is kept as given, since mailbox names may be case sensitive.
//
// Example:
//
//	util.NormalizeEmail("  Chef@Example.COM ") // "Chef@example.com"
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// ValidateLink checks an optional recipe link. An empty link is valid.
// Non-empty links must be absolute http(s) URLs of at most MaxLinkLength characters.
func ValidateLink(link string) error {
	if link == "" {
		return nil
	}
	if utf8.RuneCountInString(link) > MaxLinkLength {
		return fmt.Errorf("link exceeds %d characters", MaxLinkLength)
	}
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid link: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid link scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("link has no host")
	}
	return nil
}

// ValidateTitle checks a recipe title: non-blank and at most maxLen characters.
func ValidateTitle(title string, maxLen int) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > maxLen {
		return fmt.Errorf("title exceeds %d characters", maxLen)
	}
	return nil
}
