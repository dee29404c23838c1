package config

import (
	"net/url"
	"sort"
	"strings"
)

// normalizeDomains lower-cases, strips scheme and www., drops blanks and
// duplicates, and sorts.
func normalizeDomains(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		if host := NormalizeHost(raw); host != "" {
			seen[host] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for host := range seen {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

// NormalizeHost reduces a domain or URL to its bare host name.
func NormalizeHost(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	if strings.Contains(value, "://") {
		if u, err := url.Parse(value); err == nil && u.Host != "" {
			value = u.Hostname()
		}
	}
	return strings.TrimSuffix(strings.TrimPrefix(value, "www."), ".")
}
