// Package emails centralizes the address handling shared by invites, CSV
// imports, and duplicate checks. Every email is normalized before it is
// validated, compared, or stored, so "  Coach@Rink.COM " and "coach@rink.com"
// always collapse to the same row.
package emails

import "regexp"
import "strings"

// pattern accepts anything shaped local@domain.tld with no whitespace.
// Deliverability is the mail provider's problem, not ours.
var pattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Normalize trims surrounding whitespace and lowercases the address.
// Applying it twice yields the same result.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// IsValid reports whether the normalized form of raw is an acceptable address.
func IsValid(raw string) bool {
	return pattern.MatchString(Normalize(raw))
}

// ValidNormalized returns the normalized address plus whether it passed
// validation. Callers that store or compare addresses should use the returned
// string, never the raw input.
func ValidNormalized(raw string) (string, bool) {
	normalized := Normalize(raw)
	return normalized, pattern.MatchString(normalized)
}
