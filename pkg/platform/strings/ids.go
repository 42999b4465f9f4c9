// Package strings normalises identifier lists taken from request bodies.
package strings

import "strings"

// NormalizeIDs lowercases and trims each id, drops blanks and keeps the first
// occurrence of each value. A nil or empty input is returned as is.
func NormalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		v := strings.ToLower(strings.TrimSpace(raw))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
