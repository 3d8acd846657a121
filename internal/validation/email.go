// Package validation checks user supplied values.
package validation

import (
	"net/mail"
	"regexp"
	"strings"
)

// local@domain.tld without spaces; the domain needs at least one dot.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@.]+$`)

// ValidEmail reports whether s is a bare address (no display name) of at
// most 254 chars.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 254 || !emailRe.MatchString(s) {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
