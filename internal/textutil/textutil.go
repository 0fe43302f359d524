package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashBytes computes a SHA-256 hex hash of raw content, used to identify an
// input file in audit records.
func HashBytes(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// Truncate shortens a string to maxLen, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Unquote strips the quotes of a Lua string literal and resolves escaped
// quotes and backslashes. Non-string values are returned unchanged.
func Unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < 2 {
		return v
	}
	q := v[0]
	if (q != '"' && q != '\'') || v[len(v)-1] != q {
		return v
	}
	inner := v[1 : len(v)-1]
	r := strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\'`, `'`)
	return r.Replace(inner)
}

// Quote renders s as a double-quoted Lua string literal.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
