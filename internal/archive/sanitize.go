package archive

import "strings"

// SanitizeKey turns a free-form plant or windfarm name into a filesystem-safe
// token: lowercased, spaces collapsed to underscores, anything outside
// [a-z0-9_-] dropped.
func SanitizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var sb strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			sb.WriteRune(r)
			lastUnderscore = false
		case r == ' ' || r == '_' || r == '\t':
			if !lastUnderscore && sb.Len() > 0 {
				sb.WriteRune('_')
				lastUnderscore = true
			}
		}
	}

	return strings.TrimSuffix(sb.String(), "_")
}
