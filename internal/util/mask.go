// Package util holds small helpers shared by the service and the CLIs.
package util

import "strings"

// MaskEmail keeps the first letter of the local part and the domain, for logs.
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}

// MaskSecret keeps only the last 4 characters visible (api keys).
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
