package scope

import (
	"testing"
)

// =============================================================================
// Checker Tests
// =============================================================================

func TestNewChecker(t *testing.T) {
	tests := []struct {
		name      string
		targetURL string
		wantErr   bool
	}{
		{
			name:      "valid URL",
			targetURL: "https://example.com",
			wantErr:   false,
		},
		{
			name:      "URL with path",
			targetURL: "https://example.com/app",
			wantErr:   false,
		},
		{
			name:      "URL with port",
			targetURL: "http://example.com:8080",
			wantErr:   false,
		},
		{
			name:      "invalid URL",
			targetURL: "://invalid",
			wantErr:   true,
		},
		{
			name:      "no host",
			targetURL: "/relative/path",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := NewChecker(tt.targetURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewChecker() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && checker == nil {
				t.Error("NewChecker() returned nil without error")
			}
		})
	}
}

func TestChecker_Target(t *testing.T) {
	checker, err := NewChecker("http://example.com:8080/app")
	if err != nil {
		t.Fatalf("NewChecker() error = %v", err)
	}

	if got := checker.Target(); got != "example.com:8080" {
		t.Errorf("Target() = %v, want example.com:8080", got)
	}
}

func TestChecker_IsInScope(t *testing.T) {
	tests := []struct {
		name      string
		targetURL string
		checkURL  string
		want      bool
	}{
		{
			name:      "same host http",
			targetURL: "http://example.com",
			checkURL:  "http://example.com/page",
			want:      true,
		},
		{
			name:      "same host https",
			targetURL: "http://example.com",
			checkURL:  "https://example.com/secure",
			want:      true,
		},
		{
			name:      "different host",
			targetURL: "http://example.com",
			checkURL:  "http://other.test/evil",
			want:      false,
		},
		{
			name:      "subdomain is a different host",
			targetURL: "http://example.com",
			checkURL:  "http://sub.example.com/page",
			want:      false,
		},
		{
			name:      "host case differs",
			targetURL: "http://example.com",
			checkURL:  "http://Example.com/page",
			want:      false,
		},
		{
			name:      "explicit default port is a different host",
			targetURL: "http://example.com",
			checkURL:  "http://example.com:80/page",
			want:      false,
		},
		{
			name:      "matching explicit port",
			targetURL: "http://example.com:8080",
			checkURL:  "http://example.com:8080/page",
			want:      true,
		},
		{
			name:      "ftp scheme rejected",
			targetURL: "http://example.com",
			checkURL:  "ftp://example.com/file",
			want:      false,
		},
		{
			name:      "websocket scheme rejected",
			targetURL: "http://example.com",
			checkURL:  "ws://example.com/socket",
			want:      false,
		},
		{
			name:      "javascript scheme rejected",
			targetURL: "http://example.com",
			checkURL:  "javascript:void(0)",
			want:      false,
		},
		{
			name:      "relative URL has no host",
			targetURL: "http://example.com",
			checkURL:  "/page",
			want:      false,
		},
		{
			name:      "unparseable URL",
			targetURL: "http://example.com",
			checkURL:  "http://exa mple.com/\x7f",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := NewChecker(tt.targetURL)
			if err != nil {
				t.Fatalf("NewChecker() error = %v", err)
			}
			if got := checker.IsInScope(tt.checkURL); got != tt.want {
				t.Errorf("IsInScope(%q) = %v, want %v", tt.checkURL, got, tt.want)
			}
		})
	}
}

func TestChecker_SameHost(t *testing.T) {
	checker, err := NewChecker("http://example.com")
	if err != nil {
		t.Fatalf("NewChecker() error = %v", err)
	}

	tests := []struct {
		name     string
		checkURL string
		want     bool
	}{
		{"websocket on target", "ws://example.com/live", true},
		{"secure websocket on target", "wss://example.com/live", true},
		{"http on target", "http://example.com/page", true},
		{"websocket elsewhere", "ws://other.test/live", false},
		{"unparseable", "ws://exa mple.com/\x7f", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.SameHost(tt.checkURL); got != tt.want {
				t.Errorf("SameHost(%q) = %v, want %v", tt.checkURL, got, tt.want)
			}
		})
	}
}

// =============================================================================
// CanonicalURL Tests
// =============================================================================

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips query",
			in:   "http://example.com/api/users?action=list",
			want: "http://example.com/api/users",
		},
		{
			name: "strips fragment",
			in:   "http://example.com/page#section",
			want: "http://example.com/page",
		},
		{
			name: "strips at first marker",
			in:   "http://example.com/page#frag?notquery",
			want: "http://example.com/page",
		},
		{
			name: "query before fragment",
			in:   "http://example.com/page?a=1#frag",
			want: "http://example.com/page",
		},
		{
			name: "clean URL unchanged",
			in:   "http://example.com/page",
			want: "http://example.com/page",
		},
		{
			name: "root with trailing slash unchanged",
			in:   "http://example.com/",
			want: "http://example.com/",
		},
		{
			name: "empty string",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanonicalURL(tt.in)
			if got != tt.want {
				t.Errorf("CanonicalURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := CanonicalURL(got); again != got {
				t.Errorf("CanonicalURL is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

// =============================================================================
// ResolveURL Tests
// =============================================================================

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		relative string
		want     string
		wantErr  bool
	}{
		{
			name:     "relative path",
			base:     "http://example.com/dir/page.html",
			relative: "other.html",
			want:     "http://example.com/dir/other.html",
		},
		{
			name:     "absolute path",
			base:     "http://example.com/dir/page.html",
			relative: "/api/users",
			want:     "http://example.com/api/users",
		},
		{
			name:     "absolute URL wins",
			base:     "http://example.com/",
			relative: "http://other.test/evil",
			want:     "http://other.test/evil",
		},
		{
			name:     "preserves query",
			base:     "http://example.com/",
			relative: "/search?q=term",
			want:     "http://example.com/search?q=term",
		},
		{
			name:     "protocol relative",
			base:     "https://example.com/",
			relative: "//example.com/asset.js",
			want:     "https://example.com/asset.js",
		},
		{
			name:     "invalid base",
			base:     "http://exa mple.com/\x7f",
			relative: "/page",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveURL(tt.base, tt.relative)
			if (err != nil) != tt.wantErr {
				t.Errorf("ResolveURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ResolveURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		urlStr string
		want   string
	}{
		{"http://example.com/page", "example.com"},
		{"https://example.com:8443/page", "example.com:8443"},
		{"/relative", ""},
	}

	for _, tt := range tests {
		t.Run(tt.urlStr, func(t *testing.T) {
			got, err := ExtractDomain(tt.urlStr)
			if err != nil {
				t.Fatalf("ExtractDomain() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractDomain() = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Classifier Tests
// =============================================================================

func TestCategory_String(t *testing.T) {
	tests := []struct {
		category Category
		want     string
	}{
		{CategoryUnknown, "unknown"},
		{CategoryHTML, "html"},
		{CategoryBackend, "backend"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.category.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		urlStr string
		want   Category
	}{
		// Backend: extension rules
		{"json extension", "http://x.test/data.json", CategoryBackend},
		{"xml extension", "http://x.test/feed.xml", CategoryBackend},
		{"php extension", "http://x.test/index.php", CategoryBackend},
		{"jsp extension", "http://x.test/page.jsp", CategoryBackend},
		{"do extension", "http://x.test/submit.do", CategoryBackend},
		{"uppercase extension", "http://x.test/DATA.JSON", CategoryBackend},
		{"extension mid-URL before query", "http://x.test/index.php?id=1", CategoryBackend},
		{"cgi extension", "http://x.test/cgi-bin/main.cgi", CategoryBackend},

		// Backend: path rules
		{"api path", "http://x.test/api/users", CategoryBackend},
		{"api path uppercase", "http://x.test/API/users", CategoryBackend},
		{"ws path", "http://x.test/ws/chat", CategoryBackend},
		{"rest path", "http://x.test/rest/v1/items", CategoryBackend},

		// Backend: query key rules
		{"action query key", "http://x.test/users?action=list", CategoryBackend},
		{"method query key", "http://x.test/handler?method=get", CategoryBackend},
		{"api_key query key", "http://x.test/data?api_key=abc", CategoryBackend},
		// The query-key rule requires the key right after "?", so this
		// falls through to the dotless-segment page rule.
		{"action key not first", "http://x.test/users?id=1&action=del", CategoryHTML},

		// Backend rules win over page rules
		{"api path with html extension", "http://x.test/api/docs.html", CategoryBackend},

		// HTML: extension rules
		{"html extension", "http://x.test/about.html", CategoryHTML},
		{"htm extension", "http://x.test/index.htm", CategoryHTML},
		{"asp extension", "http://x.test/page.asp", CategoryHTML},
		{"aspx extension", "http://x.test/default.aspx", CategoryHTML},
		{"cfm extension", "http://x.test/home.cfm", CategoryHTML},

		// HTML: extensionless last segment
		{"bare path segment", "http://x.test/users", CategoryHTML},
		{"nested bare segment", "http://x.test/app/dashboard", CategoryHTML},
		{"dotless query counts as segment", "http://x.test/about?x=1", CategoryHTML},

		// Unknown
		{"root with trailing slash", "http://x.test/", CategoryUnknown},
		{"bare authority", "http://x.test", CategoryUnknown},
		{"trailing slash path", "http://x.test/app/", CategoryUnknown},
		{"image extension", "http://x.test/logo.png", CategoryUnknown},
		{"stylesheet", "http://x.test/style.css", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.urlStr); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.urlStr, got, tt.want)
			}
		})
	}
}

func TestIsBackend(t *testing.T) {
	if !IsBackend("http://x.test/api/users") {
		t.Error("IsBackend should be true for /api/ path")
	}
	if IsBackend("http://x.test/about.html") {
		t.Error("IsBackend should be false for page URL")
	}
}

func TestIsPage(t *testing.T) {
	if !IsPage("http://x.test/about.html") {
		t.Error("IsPage should be true for .html URL")
	}
	if IsPage("http://x.test/api/users") {
		t.Error("IsPage should be false for backend URL")
	}
}
