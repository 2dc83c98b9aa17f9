package urlutil

import (
	"net/url"
	"regexp"
	"strings"
)

// BuildAbsolute builds an absolute URL from a base origin and a path.
func BuildAbsolute(base, path string) string {
	base = NormalizeBaseURL(base)
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}

// NormalizeBaseURL trims whitespace and trailing slashes.
func NormalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/")
}

// IsHTTPOrigin reports whether base parses as an absolute http(s) URL with a host.
func IsHTTPOrigin(base string) bool {
	u, err := url.Parse(NormalizeBaseURL(base))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// PathMatches reports whether the path component of rawURL matches pattern.
// Query strings and fragments are ignored.
func PathMatches(rawURL string, pattern *regexp.Regexp) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return pattern.MatchString(u.Path)
}
