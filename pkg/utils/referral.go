package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// ambiguous characters (0/O, 1/I/L) excluded
const referralAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewReferralCode returns a short shareable code like "TRV-8KQ2M7".
func NewReferralCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	var b strings.Builder
	b.WriteString("TRV-")
	for _, c := range buf {
		b.WriteByte(referralAlphabet[int(c)%len(referralAlphabet)])
	}
	return b.String(), nil
}

// Slugify converts a title into a URL slug: lowercase, alphanumerics, dashes.
func Slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
