// Package scope provides URL validation, canonicalization, and endpoint
// classification for the crawl engine.
package scope

import (
	"fmt"
	"net/url"
	"strings"
)

// Checker validates URLs against the target domain. The host comparison is
// byte-exact: no case folding and no default-port stripping. A URL on
// "x.test:80" is a different host than "x.test".
type Checker struct {
	target string
}

// NewChecker creates a checker bound to the host of targetURL.
func NewChecker(targetURL string) (*Checker, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("parse target: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("target %q has no host", targetURL)
	}
	return &Checker{target: parsed.Host}, nil
}

// Target returns the exact host the checker is bound to.
func (c *Checker) Target() string {
	return c.target
}

// IsInScope reports whether a URL belongs to the crawl: its host must equal
// the target exactly and its scheme must be http or https.
func (c *Checker) IsInScope(urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host == c.target
}

// SameHost reports whether a URL points at the target host, regardless of
// scheme. Used for supplemental surfaces (websocket probing, sitemaps)
// that accept non-http schemes.
func (c *Checker) SameHost(urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return parsed.Host == c.target
}

// CanonicalURL strips the query string and fragment from a URL, returning
// the deduplication identity for findings. The operation is idempotent and
// performs no other normalization.
func CanonicalURL(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// ResolveURL resolves a relative URL against a base URL.
func ResolveURL(baseURL, relativeURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	ref, err := url.Parse(relativeURL)
	if err != nil {
		return "", err
	}

	resolved := base.ResolveReference(ref)
	return resolved.String(), nil
}

// ExtractDomain extracts the host component from a URL.
func ExtractDomain(urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
