package helpers

import "strings"

// ResolveURL prefixes base to host-relative references. Absolute and
// protocol-relative references are returned unchanged; empty stays empty.
func ResolveURL(base, raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return strings.TrimRight(base, "/") + raw
	default:
		return strings.TrimRight(base, "/") + "/" + raw
	}
}
