package parser

import "strings"

// ScriptAnalyzer statically scans JavaScript for HTTP call targets and
// declared names. The source is tokenized rather than pattern-matched, so
// comments and string contents are never mistaken for code.
type ScriptAnalyzer struct{}

// NewScriptAnalyzer creates a script analyzer.
func NewScriptAnalyzer() *ScriptAnalyzer {
	return &ScriptAnalyzer{}
}

// httpCallees are the callables whose first string argument is taken as
// an HTTP target. Matched case-insensitively.
var httpCallees = map[string]struct{}{
	"fetch":          {},
	"axios":          {},
	"xmlhttprequest": {},
}

// declKeywords bind the identifier that follows them. Matched exactly;
// JavaScript keywords are case-sensitive.
var declKeywords = map[string]struct{}{
	"function": {},
	"const":    {},
	"let":      {},
	"var":      {},
}

// Analyze scans one script. Endpoints, functions and websocket URLs keep
// their first-occurrence order and are deduplicated within the script.
func (a *ScriptAnalyzer) Analyze(source string) *ScriptFindings {
	tokens := scanScript(source)

	findings := &ScriptFindings{
		Endpoints: make([]string, 0, 4),
		Functions: make([]string, 0, 8),
	}
	seenEndpoints := make(map[string]struct{})
	seenFunctions := make(map[string]struct{})
	seenSockets := make(map[string]struct{})

	for i, tok := range tokens {
		if tok.kind != tokenIdent {
			continue
		}

		if isHTTPCallee(tokens, i) {
			if target, ok := callArgument(tokens, i); ok {
				if _, dup := seenEndpoints[target]; !dup {
					seenEndpoints[target] = struct{}{}
					findings.Endpoints = append(findings.Endpoints, target)
				}
			}
		}

		if strings.EqualFold(tok.value, "websocket") {
			if target, ok := callArgument(tokens, i); ok && hasWSScheme(target) {
				if _, dup := seenSockets[target]; !dup {
					seenSockets[target] = struct{}{}
					findings.WebSockets = append(findings.WebSockets, target)
				}
			}
		}

		if _, isDecl := declKeywords[tok.value]; isDecl {
			if name, ok := declaredName(tokens, i); ok {
				if _, dup := seenFunctions[name]; !dup {
					seenFunctions[name] = struct{}{}
					findings.Functions = append(findings.Functions, name)
				}
			}
		}
	}

	return findings
}

// hasWSScheme reports whether s is an absolute ws or wss URL. The
// WebSocket constructor rejects relative URLs, so nothing else counts.
func hasWSScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "ws://") || strings.HasPrefix(lower, "wss://")
}

// isHTTPCallee reports whether the identifier at i names an HTTP call
// site: fetch, axios or XMLHttpRequest in any casing, or an ajax method
// reached through a dot.
func isHTTPCallee(tokens []token, i int) bool {
	name := strings.ToLower(tokens[i].value)
	if _, ok := httpCallees[name]; ok {
		return true
	}
	return name == "ajax" && i > 0 &&
		tokens[i-1].kind == tokenPunct && tokens[i-1].value == "."
}

// callArgument returns the string literal opening the call at i, when
// the identifier is invoked with one.
func callArgument(tokens []token, i int) (string, bool) {
	if i+2 >= len(tokens) {
		return "", false
	}
	open, arg := tokens[i+1], tokens[i+2]
	if open.kind != tokenPunct || open.value != "(" || arg.kind != tokenString || arg.value == "" {
		return "", false
	}
	return arg.value, true
}

// declaredName returns the identifier bound by the declaration keyword
// at i.
func declaredName(tokens []token, i int) (string, bool) {
	if i+1 >= len(tokens) {
		return "", false
	}
	name := tokens[i+1]
	if name.kind != tokenIdent {
		return "", false
	}
	return name.value, true
}

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenString
	tokenPunct
)

type token struct {
	kind  tokenKind
	value string
}

// scanScript tokenizes JavaScript source. Comments disappear, string
// literals collapse to single tokens with escapes unwrapped, numbers are
// dropped; everything else is an identifier or one punctuation byte.
func scanScript(src string) []token {
	tokens := make([]token, 0, 64)
	i, n := 0, len(src)

	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++

		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && src[i+1] == '*':
			i += 2
			for i+1 < n && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i += 2

		case c == '\'' || c == '"':
			quote := c
			i++
			var sb strings.Builder
			// A raw newline ends the literal; unterminated strings stay
			// contained to their line.
			for i < n && src[i] != quote && src[i] != '\n' {
				if src[i] == '\\' && i+1 < n {
					sb.WriteByte(src[i+1])
					i += 2
					continue
				}
				sb.WriteByte(src[i])
				i++
			}
			i++
			tokens = append(tokens, token{tokenString, sb.String()})

		case isIdentStart(c):
			start := i
			for i < n && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, token{tokenIdent, src[start:i]})

		case '0' <= c && c <= '9':
			for i < n && (isIdentPart(src[i]) || src[i] == '.') {
				i++
			}

		default:
			tokens = append(tokens, token{tokenPunct, string(c)})
			i++
		}
	}

	return tokens
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}
