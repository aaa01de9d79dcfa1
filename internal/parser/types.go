package parser

// Result holds everything extracted from one HTML document.
type Result struct {
	Title   string
	Links   []string
	Scripts []string
	Forms   []Form
}

// Form is a submission target found on a page.
type Form struct {
	Action string
	Method string
	Inputs []Input
}

// Input is one named field of a form.
type Input struct {
	Name string
	Type string
}

// ScriptFindings holds what static analysis found in one script: the
// string targets of HTTP call sites, the names bound by declarations,
// and absolute ws/wss URLs passed to WebSocket constructors.
type ScriptFindings struct {
	Endpoints  []string
	Functions  []string
	WebSockets []string
}
