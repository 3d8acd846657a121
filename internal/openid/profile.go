package openid

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Profile is the decoded brokerage payload describing the user.
type Profile map[string]any

// Has reports whether key is present, regardless of its value.
func (p Profile) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the value under key when it is a string, or its JSON-ish
// rendering for numbers and bools. Missing or composite values yield "".
func (p Profile) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64, int, int64, bool:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// Nested reads a string one level down, e.g. Nested("name", "full_name").
func (p Profile) Nested(key, sub string) string {
	m, ok := p[key].(map[string]any)
	if !ok {
		return ""
	}
	return Profile(m).String(sub)
}

// FirstNonEmpty returns the first non-blank string among the given paths.
// Paths use a dot for one nesting level ("name.formatted").
func (p Profile) FirstNonEmpty(paths ...string) string {
	for _, path := range paths {
		var v string
		if k, sub, ok := strings.Cut(path, "."); ok {
			v = p.Nested(k, sub)
		} else {
			v = p.String(path)
		}
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// BrokerProfile is the canonical shape every brokerage normalizes into.
type BrokerProfile struct {
	Profile Profile `json:"profile"`
}

// Map renders the profile as a result identity payload.
func (b BrokerProfile) Map() map[string]any {
	return map[string]any{"profile": map[string]any(b.Profile)}
}
