package scope

import (
	"regexp"
)

// Category is the classification of a discovered URL. Unknown URLs are
// dropped from findings but remain valid frontier candidates.
type Category int

const (
	// CategoryUnknown means the URL matched no rule.
	CategoryUnknown Category = iota
	// CategoryHTML means the URL looks like a page.
	CategoryHTML
	// CategoryBackend means the URL looks like an API-style endpoint.
	CategoryBackend
)

// String returns the category name used in reports and notifications.
func (c Category) String() string {
	switch c {
	case CategoryHTML:
		return "html"
	case CategoryBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// Classification runs over the full URL string, query and fragment
// included, so "/users?action=list" is backend while "/users" alone is a
// page. The canonical key stored for a finding strips the query; two full
// URLs may therefore share one key and the first category seen wins.
var backendRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.(json|xml|ashx|asmx|php|jsp|do|action|api|rest)\b`),
	regexp.MustCompile(`(?i)/api/`),
	regexp.MustCompile(`(?i)/ws/`),
	regexp.MustCompile(`(?i)/rest/`),
	regexp.MustCompile(`(?i)\?(action|method|api_key)=`),
	regexp.MustCompile(`(?i)\.cgi\b`),
}

var pageRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.(html|htm|asp|aspx|cfm)\b`),
	// Last segment without an extension. Matches "/users" but not
	// "/users/" and not a bare dotted authority.
	regexp.MustCompile(`/[^/.]+$`),
}

// Classify categorizes a URL. Backend rules are evaluated first; a URL
// matching both rule sets is backend.
func Classify(urlStr string) Category {
	for _, re := range backendRules {
		if re.MatchString(urlStr) {
			return CategoryBackend
		}
	}
	for _, re := range pageRules {
		if re.MatchString(urlStr) {
			return CategoryHTML
		}
	}
	return CategoryUnknown
}

// IsBackend reports whether a URL matches any backend rule.
func IsBackend(urlStr string) bool {
	return Classify(urlStr) == CategoryBackend
}

// IsPage reports whether a URL classifies as a page.
func IsPage(urlStr string) bool {
	return Classify(urlStr) == CategoryHTML
}
