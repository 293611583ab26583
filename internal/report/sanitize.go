package report

import (
	"path/filepath"
	"strings"
)

// SanitizeFilename collapses an untrusted client filename into a name
// that cannot escape its destination directory. Path separators and null
// bytes are removed, everything outside [A-Za-z0-9._-] becomes an
// underscore, and leading dots and spaces are trimmed so the result can
// neither hide itself nor reference a parent directory.
func SanitizeFilename(name string) string {
	// Null bytes first: an embedded null could smuggle a second
	// extension past later checks.
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name = b.String()

	name = strings.Trim(name, " .")

	if len(name) > 255 {
		ext := filepath.Ext(name)
		if len(ext) >= 255 {
			// The suffix alone blows the cap; keeping it is pointless.
			name = name[:255]
		} else {
			base := name[:len(name)-len(ext)]
			name = base[:255-len(ext)] + ext
		}
	}

	if name == "" {
		name = "unnamed"
	}

	return name
}

// ExtensionAllowed reports whether filename carries a dot-separated
// suffix from the allowed set (lowercase, no dot). It is deliberately
// applied to the original client filename, before sanitization:
// sanitization may alter adversarial names and must not be able to turn
// a rejected extension into an accepted one.
func ExtensionAllowed(filename string, allowed []string) bool {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return false
	}
	ext := strings.ToLower(filename[idx+1:])
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
