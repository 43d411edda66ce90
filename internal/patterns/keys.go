package patterns

import "strings"

// DeriveKey builds a stable pattern key from a framework and a finding
// title. The same (framework, title) pair always maps to the same key so
// repeated feedback folds into one pattern row.
func DeriveKey(framework, title string) string {
	fw := slug(framework)
	if fw == "" {
		fw = FrameworkAll
	}
	t := slug(title)
	if t == "" {
		t = "unspecified"
	}
	return fw + "_" + t
}

// slug lowercases and collapses non-alphanumeric runs to single
// underscores.
func slug(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
