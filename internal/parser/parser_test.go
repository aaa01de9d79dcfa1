package parser

import (
	"testing"
)

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// =============================================================================
// Extractor Tests
// =============================================================================

func TestNewExtractor(t *testing.T) {
	tests := []struct {
		name    string
		pageURL string
		wantErr bool
	}{
		{
			name:    "valid URL",
			pageURL: "http://example.com/",
			wantErr: false,
		},
		{
			name:    "URL with path",
			pageURL: "http://example.com/docs/index.html",
			wantErr: false,
		},
		{
			name:    "invalid URL",
			pageURL: "://invalid",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewExtractor(tt.pageURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewExtractor() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && e == nil {
				t.Error("NewExtractor() returned nil extractor")
			}
		})
	}
}

func TestExtractor_Extract_AllElementKinds(t *testing.T) {
	e, _ := NewExtractor("http://example.com/")

	html := `
		<html>
		<head>
			<title>Portal</title>
			<link href="/feed.xml" rel="alternate">
		</head>
		<body>
			<a href="/about.html">About</a>
			<form action="/search.php" method="post"></form>
			<iframe src="/widget.html"></iframe>
			<script src="/app.js"></script>
		</body>
		</html>`

	result, err := e.Extract(html)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	wantLinks := []string{
		"http://example.com/feed.xml",
		"http://example.com/about.html",
		"http://example.com/search.php",
		"http://example.com/widget.html",
		"http://example.com/app.js",
	}
	if !equalStrings(result.Links, wantLinks) {
		t.Errorf("Links = %v, want %v", result.Links, wantLinks)
	}

	if !equalStrings(result.Scripts, []string{"http://example.com/app.js"}) {
		t.Errorf("Scripts = %v, want the one script source", result.Scripts)
	}

	if result.Title != "Portal" {
		t.Errorf("Title = %q, want Portal", result.Title)
	}
}

func TestExtractor_Extract_FrameSource(t *testing.T) {
	e, _ := NewExtractor("http://example.com/")

	result, err := e.Extract(`<frameset><frame src="/nav.html"></frameset>`)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !equalStrings(result.Links, []string{"http://example.com/nav.html"}) {
		t.Errorf("Links = %v, want the frame source", result.Links)
	}
}

func TestExtractor_Extract_DocumentOrderDedup(t *testing.T) {
	e, _ := NewExtractor("http://example.com/")

	html := `
		<body>
			<a href="/b.html">B</a>
			<a href="/a.html">A</a>
			<a href="/b.html">B again</a>
			<a href="/c.html">C</a>
		</body>`

	result, err := e.Extract(html)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := []string{
		"http://example.com/b.html",
		"http://example.com/a.html",
		"http://example.com/c.html",
	}
	if !equalStrings(result.Links, want) {
		t.Errorf("Links = %v, want first-occurrence order %v", result.Links, want)
	}
}

func TestExtractor_Extract_ResolvesRelative(t *testing.T) {
	e, _ := NewExtractor("http://example.com/docs/guide/index.html")

	tests := []struct {
		name string
		href string
		want string
	}{
		{"sibling file", "intro.html", "http://example.com/docs/guide/intro.html"},
		{"parent directory", "../api.html", "http://example.com/docs/api.html"},
		{"absolute path", "/top.html", "http://example.com/top.html"},
		{"absolute URL", "http://example.com/other.html", "http://example.com/other.html"},
		{"protocol relative", "//example.com/pr.html", "http://example.com/pr.html"},
		{"query only", "?page=2", "http://example.com/docs/guide/index.html?page=2"},
		{"fragment only", "#section", "http://example.com/docs/guide/index.html#section"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Extract(`<a href="` + tt.href + `">x</a>`)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if len(result.Links) != 1 || result.Links[0] != tt.want {
				t.Errorf("Links = %v, want [%s]", result.Links, tt.want)
			}
		})
	}
}

func TestExtractor_Extract_KeepsForeignAndNonHTTP(t *testing.T) {
	e, _ := NewExtractor("http://example.com/")

	// The extractor reports everything resolvable. Off-host and non-HTTP
	// references are rejected by the scope check downstream, not here.
	html := `
		<a href="http://other.test/page">elsewhere</a>
		<a href="javascript:void(0)">nothing</a>
		<a href="mailto:admin@example.com">mail</a>`

	result, err := e.Extract(html)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := []string{
		"http://other.test/page",
		"javascript:void(0)",
		"mailto:admin@example.com",
	}
	if !equalStrings(result.Links, want) {
		t.Errorf("Links = %v, want %v", result.Links, want)
	}
}

func TestExtractor_Extract_Forms(t *testing.T) {
	e, _ := NewExtractor("http://example.com/login.html")

	html := `
		<form action="/auth.php" method="post">
			<input type="text" name="user">
			<input type="password" name="pass">
			<input type="submit" value="Go">
			<textarea name="notes"></textarea>
			<select name="role"><option>a</option></select>
		</form>
		<form>
			<input name="q">
		</form>`

	result, err := e.Extract(html)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(result.Forms) != 2 {
		t.Fatalf("Forms length = %d, want 2", len(result.Forms))
	}

	login := result.Forms[0]
	if login.Action != "http://example.com/auth.php" {
		t.Errorf("Action = %s, want resolved auth.php", login.Action)
	}
	if login.Method != "POST" {
		t.Errorf("Method = %s, want POST", login.Method)
	}
	if len(login.Inputs) != 4 {
		t.Fatalf("Inputs length = %d, want 4 (the submit has no name)", len(login.Inputs))
	}
	if login.Inputs[0].Name != "user" || login.Inputs[0].Type != "text" {
		t.Errorf("first input = %+v", login.Inputs[0])
	}
	if login.Inputs[2].Type != "textarea" || login.Inputs[3].Type != "select" {
		t.Errorf("inputs = %+v, want textarea and select types", login.Inputs[2:])
	}

	search := result.Forms[1]
	if search.Action != "http://example.com/login.html" {
		t.Errorf("default Action = %s, want the page URL", search.Action)
	}
	if search.Method != "GET" {
		t.Errorf("default Method = %s, want GET", search.Method)
	}
	if len(search.Inputs) != 1 || search.Inputs[0].Type != "text" {
		t.Errorf("inputs = %+v, want one text input", search.Inputs)
	}
}

func TestExtractor_Extract_InlineScriptsIgnored(t *testing.T) {
	e, _ := NewExtractor("http://example.com/")

	html := `
		<script>var inline = 1;</script>
		<script src="/app.js"></script>
		<script src="/app.js"></script>`

	result, err := e.Extract(html)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if !equalStrings(result.Scripts, []string{"http://example.com/app.js"}) {
		t.Errorf("Scripts = %v, want app.js once", result.Scripts)
	}
}

func TestExtractor_Extract_EmptyDocument(t *testing.T) {
	e, _ := NewExtractor("http://example.com/")

	result, err := e.Extract("")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Links) != 0 || len(result.Scripts) != 0 || len(result.Forms) != 0 {
		t.Errorf("empty document produced %+v", result)
	}
}

func TestExtractor_Extract_TruncatedHTML(t *testing.T) {
	e, _ := NewExtractor("http://example.com/")

	// Broken markup is recovered the way a browser recovers it.
	result, err := e.Extract(`<body><a href="/ok.html">ok<div><a href="/also.html"`)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Links) == 0 || result.Links[0] != "http://example.com/ok.html" {
		t.Errorf("Links = %v, want ok.html recovered", result.Links)
	}
}

// =============================================================================
// ScriptAnalyzer Tests
// =============================================================================

func TestScriptAnalyzer_Analyze_CallSites(t *testing.T) {
	a := NewScriptAnalyzer()

	tests := []struct {
		name string
		js   string
		want []string
	}{
		{
			name: "fetch",
			js:   `fetch('/api/orders')`,
			want: []string{"/api/orders"},
		},
		{
			name: "fetch double quoted",
			js:   `fetch("/api/users?role=admin")`,
			want: []string{"/api/users?role=admin"},
		},
		{
			name: "fetch case-insensitive",
			js:   `FETCH('/api/a'); Fetch('/api/b')`,
			want: []string{"/api/a", "/api/b"},
		},
		{
			name: "fetch with whitespace",
			js:   "fetch ( '/api/spaced' )",
			want: []string{"/api/spaced"},
		},
		{
			name: "window.fetch",
			js:   `window.fetch('/api/win')`,
			want: []string{"/api/win"},
		},
		{
			name: "axios call",
			js:   `axios('/api/items')`,
			want: []string{"/api/items"},
		},
		{
			name: "axios method style is not a direct call",
			js:   `axios.get('/api/items')`,
			want: []string{},
		},
		{
			name: "jquery ajax",
			js:   `$.ajax('/api/legacy')`,
			want: []string{"/api/legacy"},
		},
		{
			name: "ajax without a dot is not a call site",
			js:   `ajax('/api/na')`,
			want: []string{},
		},
		{
			name: "XMLHttpRequest",
			js:   `XMLHttpRequest('/api/xhr')`,
			want: []string{"/api/xhr"},
		},
		{
			name: "constructor with no argument",
			js:   `var req = new XMLHttpRequest();`,
			want: []string{},
		},
		{
			name: "non-string first argument",
			js:   `fetch(endpoint)`,
			want: []string{},
		},
		{
			name: "template literal not captured",
			js:   "fetch(`/api/${id}`)",
			want: []string{},
		},
		{
			name: "empty target ignored",
			js:   `fetch('')`,
			want: []string{},
		},
		{
			name: "escaped quote inside target",
			js:   `fetch('/api/o\'brien')`,
			want: []string{"/api/o'brien"},
		},
		{
			name: "deduplicated within script",
			js:   `fetch('/api/a'); fetch('/api/a'); fetch('/api/b')`,
			want: []string{"/api/a", "/api/b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.js)
			if !equalStrings(got.Endpoints, tt.want) {
				t.Errorf("Endpoints = %v, want %v", got.Endpoints, tt.want)
			}
		})
	}
}

func TestScriptAnalyzer_Analyze_WebSockets(t *testing.T) {
	a := NewScriptAnalyzer()

	tests := []struct {
		name string
		js   string
		want []string
	}{
		{
			name: "constructor with wss url",
			js:   `const sock = new WebSocket('wss://example.com/live');`,
			want: []string{"wss://example.com/live"},
		},
		{
			name: "constructor with ws url",
			js:   `new WebSocket("ws://example.com/chat")`,
			want: []string{"ws://example.com/chat"},
		},
		{
			name: "uppercase scheme accepted",
			js:   `new WebSocket('WSS://example.com/feed')`,
			want: []string{"WSS://example.com/feed"},
		},
		{
			name: "relative url rejected",
			js:   `new WebSocket('/socket')`,
			want: []string{},
		},
		{
			name: "http url rejected",
			js:   `new WebSocket('http://example.com/socket')`,
			want: []string{},
		},
		{
			name: "no argument",
			js:   `var w = new WebSocket();`,
			want: []string{},
		},
		{
			name: "deduplicated within script",
			js:   `new WebSocket('ws://a/x'); new WebSocket('ws://a/x'); new WebSocket('ws://a/y')`,
			want: []string{"ws://a/x", "ws://a/y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.js)
			if !equalStrings(got.WebSockets, tt.want) {
				t.Errorf("WebSockets = %v, want %v", got.WebSockets, tt.want)
			}
		})
	}
}

func TestScriptAnalyzer_Analyze_SocketNotAnEndpoint(t *testing.T) {
	a := NewScriptAnalyzer()

	got := a.Analyze(`new WebSocket('wss://example.com/live'); fetch('/api/data')`)

	if !equalStrings(got.Endpoints, []string{"/api/data"}) {
		t.Errorf("Endpoints = %v, websocket targets must stay out of the endpoint list", got.Endpoints)
	}
	if !equalStrings(got.WebSockets, []string{"wss://example.com/live"}) {
		t.Errorf("WebSockets = %v", got.WebSockets)
	}
}

func TestScriptAnalyzer_Analyze_Functions(t *testing.T) {
	a := NewScriptAnalyzer()

	tests := []struct {
		name string
		js   string
		want []string
	}{
		{
			name: "function declaration",
			js:   `function loadData() { return 1; }`,
			want: []string{"loadData"},
		},
		{
			name: "const let var bindings",
			js:   `const renderChart = () => {}; let counter = 0; var userTable;`,
			want: []string{"renderChart", "counter", "userTable"},
		},
		{
			name: "keywords are case-sensitive",
			js:   `FUNCTION shouty() {}; Const titled = 1;`,
			want: []string{},
		},
		{
			name: "anonymous function skipped",
			js:   `setTimeout(function() {}, 100)`,
			want: []string{},
		},
		{
			name: "destructuring skipped",
			js:   `const {aa, bb} = obj; let [xx, yy] = arr;`,
			want: []string{},
		},
		{
			name: "single-character names kept",
			js:   `var i = 0; let x = 1; const ab = 2;`,
			want: []string{"i", "x", "ab"},
		},
		{
			name: "underscore and dollar names",
			js:   `var _private = 1; let $el = q();`,
			want: []string{"_private", "$el"},
		},
		{
			name: "embedded keyword not matched",
			js:   `myvar foo; functionx bar;`,
			want: []string{},
		},
		{
			name: "deduplicated within script",
			js:   `var total = 0; var total = 1; function total() {}`,
			want: []string{"total"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.js)
			if !equalStrings(got.Functions, tt.want) {
				t.Errorf("Functions = %v, want %v", got.Functions, tt.want)
			}
		})
	}
}

func TestScriptAnalyzer_Analyze_CommentsAndStrings(t *testing.T) {
	a := NewScriptAnalyzer()

	js := `
		// fetch('/api/commented')
		/* function hiddenOne() {}
		   fetch('/api/block') */
		var message = "function fakeName() and fetch('/api/quoted')";
		fetch('/api/real');
		function realOne() {}
	`

	got := a.Analyze(js)

	if !equalStrings(got.Endpoints, []string{"/api/real"}) {
		t.Errorf("Endpoints = %v, want only /api/real", got.Endpoints)
	}
	if !equalStrings(got.Functions, []string{"message", "realOne"}) {
		t.Errorf("Functions = %v, want [message realOne]", got.Functions)
	}
}

func TestScriptAnalyzer_Analyze_Empty(t *testing.T) {
	a := NewScriptAnalyzer()

	got := a.Analyze("")
	if len(got.Endpoints) != 0 || len(got.Functions) != 0 {
		t.Errorf("Analyze(\"\") = %+v, want empty findings", got)
	}
}

func TestScriptAnalyzer_Analyze_AppSnippet(t *testing.T) {
	a := NewScriptAnalyzer()

	js := `
		'use strict';

		const API_BASE = '/api';

		function loadData() {
			fetch('/api/orders')
				.then(function(resp) { return resp.json(); })
				.then(renderOrders);
		}

		var refreshTimer = null;

		function renderOrders(data) {
			let rows = data.map(formatRow);
			$.ajax('/api/stats');
		}
	`

	got := a.Analyze(js)

	wantEndpoints := []string{"/api/orders", "/api/stats"}
	if !equalStrings(got.Endpoints, wantEndpoints) {
		t.Errorf("Endpoints = %v, want %v", got.Endpoints, wantEndpoints)
	}

	wantFunctions := []string{"API_BASE", "loadData", "refreshTimer", "renderOrders", "rows"}
	if !equalStrings(got.Functions, wantFunctions) {
		t.Errorf("Functions = %v, want %v", got.Functions, wantFunctions)
	}
}
