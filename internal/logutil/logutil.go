// Package logutil renders login form submissions and page text for log events
// without leaking credentials.
package logutil

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

const redacted = "[REDACTED]"

// sensitiveFragments are matched against keys with case, '-' and '_' removed.
var sensitiveFragments = []string{"password", "secret", "token", "cookie", "session", "authorization"}

// IsSensitiveLogField reports whether a field named key should be redacted.
func IsSensitiveLogField(key string) bool {
	k := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(key)))
	for _, frag := range sensitiveFragments {
		if strings.Contains(k, frag) {
			return true
		}
	}
	return false
}

// RedactValue hides value when key is sensitive. Empty values are left as is
// so an empty password submission stays recognisable.
func RedactValue(key, value string) string {
	if value == "" || !IsSensitiveLogField(key) {
		return value
	}
	return redacted
}

// FormatFormForLog renders form as sorted key="value" pairs with sensitive
// values redacted.
func FormatFormForLog(form url.Values) string {
	if len(form) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		vals := make([]string, len(form[k]))
		for j, v := range form[k] {
			vals[j] = RedactValue(k, v)
		}
		fmt.Fprintf(&b, "%s=%q", strings.ToLower(k), strings.Join(vals, ", "))
	}
	return b.String()
}

// TruncateForLog flattens value onto one line and cuts it at maxChars.
func TruncateForLog(value string, maxChars int) string {
	v := strings.ReplaceAll(strings.TrimSpace(value), "\n", "\\n")
	if maxChars <= 0 || len(v) <= maxChars {
		return v
	}
	return v[:maxChars] + "... [truncated]"
}
