package urlcanon

import (
	"strings"
)

// UploadsPrefix is the path fragment every media URL on the WordPress-era
// content store shares. Anything containing it is assumed to be one of ours.
const UploadsPrefix = "/wp-content/uploads/"

// Canonicalizer rewrites media URL references to the current media host.
// It is pure and safe for concurrent use.
type Canonicalizer struct {
	canonicalHost string
	legacyHosts   []string
}

// New creates a Canonicalizer for the given canonical media host (bare
// hostname, no scheme) and the set of superseded hosts whose URLs still
// appear in stored data.
func New(canonicalHost string, legacyHosts []string) *Canonicalizer {
	hosts := make([]string, 0, len(legacyHosts))
	for _, h := range legacyHosts {
		h = strings.TrimSpace(h)
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	return &Canonicalizer{
		canonicalHost: strings.TrimSpace(canonicalHost),
		legacyHosts:   hosts,
	}
}

// CanonicalHost returns the configured canonical media host.
func (c *Canonicalizer) CanonicalHost() string {
	return c.canonicalHost
}

// Canonicalize maps a stored media URL reference to its canonical absolute
// form. Rules, in order:
//
//  1. Empty or purely numeric input (a stray attachment ID leaked into a
//     string field) yields "": no usable URL.
//  2. URLs already on the canonical host are returned unchanged.
//  3. URLs on a known legacy host with an uploads path are rewritten to the
//     canonical host, preserving the path.
//  4. Relative or root-relative uploads paths (with or without a leading
//     "/" or "./") are prefixed with the canonical host.
//  5. Any other absolute URL is assumed to be intentionally external and
//     returned unchanged.
//
// The function is idempotent: Canonicalize(Canonicalize(u)) == Canonicalize(u).
func (c *Canonicalizer) Canonicalize(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return ""
	}
	if isNumeric(url) {
		return ""
	}

	if strings.Contains(url, c.canonicalHost) {
		return url
	}

	for _, legacy := range c.legacyHosts {
		if strings.Contains(url, legacy) {
			if idx := strings.Index(url, UploadsPrefix); idx >= 0 {
				return "https://" + c.canonicalHost + url[idx:]
			}
			// Legacy host but not an uploads URL: leave it alone,
			// it points at a page, not a media file.
			return url
		}
	}

	// Relative references in any of their historical spellings:
	// "/wp-content/uploads/...", "./wp-content/uploads/...",
	// "wp-content/uploads/...". Absolute URLs on unknown hosts are
	// intentionally external and pass through untouched.
	if !hasScheme(url) {
		if idx := strings.Index(url, strings.TrimPrefix(UploadsPrefix, "/")); idx >= 0 {
			return "https://" + c.canonicalHost + "/" + url[idx:]
		}
	}

	return url
}

// CanonicalizeAll maps Canonicalize over a list, dropping entries that
// resolve to no usable URL. The input slice is not modified.
func (c *Canonicalizer) CanonicalizeAll(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if fixed := c.Canonicalize(u); fixed != "" {
			out = append(out, fixed)
		}
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func hasScheme(s string) bool {
	return strings.Contains(s, "://")
}
