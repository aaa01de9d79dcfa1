// Package parser extracts references from HTML documents and performs
// static analysis on JavaScript sources.
package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/PentesterFlow/WebScout/internal/errors"
)

// linkSelector matches every element kind that can reference another
// resource. One grouped selector keeps the results in document order.
const linkSelector = "a[href], link[href], script[src], frame[src], iframe[src], form[action]"

// Extractor pulls crawlable references out of HTML documents. References
// are resolved against the page URL; scope filtering is the caller's
// concern.
type Extractor struct {
	base *url.URL
}

// NewExtractor creates an extractor whose relative references resolve
// against the given page URL.
func NewExtractor(pageURL string) (*Extractor, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, errors.NewInvalidURLError(pageURL, err.Error())
	}
	return &Extractor{base: base}, nil
}

// Extract parses the document and returns its outbound references. Links
// keep their first-occurrence document order; a reference appearing twice
// is reported once.
func (e *Extractor) Extract(body string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, errors.NewMalformedContentError(e.base.String(), "html_parse", err)
	}

	result := &Result{
		Links:   make([]string, 0, 32),
		Scripts: make([]string, 0, 8),
		Forms:   make([]Form, 0, 4),
	}
	result.Title = strings.TrimSpace(doc.Find("title").First().Text())

	seenLinks := make(map[string]struct{})
	seenScripts := make(map[string]struct{})

	doc.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		tag := goquery.NodeName(s)

		var raw string
		switch tag {
		case "a", "link":
			raw, _ = s.Attr("href")
		case "script", "frame", "iframe":
			raw, _ = s.Attr("src")
		case "form":
			raw, _ = s.Attr("action")
		}

		resolved := e.resolve(raw)
		if resolved == "" {
			return
		}

		// Script sources are links like any other, and additionally
		// feed the script analyzer.
		if tag == "script" {
			if _, dup := seenScripts[resolved]; !dup {
				seenScripts[resolved] = struct{}{}
				result.Scripts = append(result.Scripts, resolved)
			}
		}

		if _, dup := seenLinks[resolved]; dup {
			return
		}
		seenLinks[resolved] = struct{}{}
		result.Links = append(result.Links, resolved)
	})

	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		result.Forms = append(result.Forms, e.parseForm(s))
	})

	return result, nil
}

func (e *Extractor) parseForm(s *goquery.Selection) Form {
	form := Form{Method: "GET"}

	if action, ok := s.Attr("action"); ok {
		form.Action = e.resolve(action)
	} else {
		form.Action = e.base.String()
	}

	if method, ok := s.Attr("method"); ok && method != "" {
		form.Method = strings.ToUpper(method)
	}

	s.Find("input[name], textarea[name], select[name]").Each(func(_ int, in *goquery.Selection) {
		input := Input{}
		input.Name, _ = in.Attr("name")

		switch goquery.NodeName(in) {
		case "textarea":
			input.Type = "textarea"
		case "select":
			input.Type = "select"
		default:
			input.Type, _ = in.Attr("type")
			if input.Type == "" {
				input.Type = "text"
			}
		}

		form.Inputs = append(form.Inputs, input)
	})

	return form
}

// resolve turns a raw attribute value into an absolute URL, or "" when
// the value cannot be parsed. Non-HTTP schemes pass through untouched;
// the scope check downstream rejects them.
func (e *Extractor) resolve(raw string) string {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return e.base.ResolveReference(ref).String()
}
