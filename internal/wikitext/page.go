// Package wikitext implements the page-splitting algorithm described by
// spec §4.3 "Wikitext framing": locating every occurrence of a
// list-start/list-end template pair in a page's raw wikitext and cutting
// the page into an ordered sequence of Elements.
package wikitext

import (
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Element is one slice of a page: either the text flanking a list
// template (IsJustText) or a located template occurrence with its
// surrounding text, the raw start/end template delimiters, and the
// parameter blob between them (spec §4.3 "before"/"after", "inside").
type Element struct {
	Before string

	// TemplateStart is the raw "{{title ... }}" text of the start
	// template, up through its brace-balanced end. Params is the
	// parameter blob inside it (everything after the title, for
	// internal/template to parse), without the leading "{{title" or the
	// trailing "}}".
	TemplateStart string
	Params        string

	// Inside is the existing rendered content between the start and end
	// templates; the renderer replaces it, it is never reused verbatim.
	Inside string

	// TemplateEnd is the raw end-template text ("{{end}}"), empty when
	// SingleTemplate is true (no end template was found).
	TemplateEnd   string
	SingleTemplate bool

	After string

	IsJustText bool
}

// ErrUnbalancedBraces is returned when a start template's opening braces
// never reach depth zero before the text ends.
var ErrUnbalancedBraces = errors.Base("unbalanced template braces")

// Split cuts text into the ordered sequence of Elements spec §4.3
// describes, iterating left to right until no further start-template
// occurrence is found; the remainder becomes a final is_just_text
// element.
func Split(text, startTitle, endTitle, patternStart, patternEnd string) ([]Element, errors.E) {
	startRe, errE := compileTemplateStart(patternStart, startTitle)
	if errE != nil {
		return nil, errE
	}
	endRe, errE := compileTemplateEnd(patternEnd, endTitle)
	if errE != nil {
		return nil, errE
	}

	var elements []Element
	remaining := text
	for {
		el, rest, found, errE := nextElement(remaining, startRe, endRe)
		if errE != nil {
			return nil, errE
		}
		if !found {
			elements = append(elements, Element{Before: remaining, IsJustText: true})
			break
		}
		elements = append(elements, el)
		remaining = rest
	}
	return elements, nil
}

// compileTemplateStart builds the case-insensitive,
// dot-matches-newline regexp that finds a start template's opening: the
// configured prefix, the title (spaces/underscores interchangeable), and
// then anything up to the next "|" (spec §4.3).
func compileTemplateStart(patternPrefix, title string) (*regexp.Regexp, errors.E) {
	pattern := "(?is)" + patternPrefix + titlePattern(title) + `[^|]*`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return re, nil
}

// compileTemplateEnd builds the regexp that finds a bare end
// template occurrence: the configured prefix, the title, then immediate
// (optionally whitespace-padded) closing braces — an end template never
// takes parameters (spec §4.3).
func compileTemplateEnd(patternPrefix, title string) (*regexp.Regexp, errors.E) {
	pattern := "(?is)" + patternPrefix + titlePattern(title) + `\s*\}\}`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return re, nil
}

// titlePattern turns a template title into a regexp fragment that treats
// spaces and underscores as interchangeable, escaping everything else.
func titlePattern(title string) string {
	words := strings.FieldsFunc(title, func(r rune) bool { return r == ' ' || r == '_' })
	escaped := make([]string, len(words))
	for i, w := range words {
		escaped[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(escaped, "[ _]")
}

// nextElement locates the next start-template occurrence in text and
// splits it into one Element plus the unconsumed remainder, per spec
// §4.3. found is false when no start template occurs anywhere in text.
func nextElement(text string, startRe, endRe *regexp.Regexp) (Element, string, bool, errors.E) {
	start := startRe.FindStringIndex(text)
	if start == nil {
		return Element{}, "", false, nil
	}

	// Search for the end template from the start match's own beginning,
	// same as the original's find_at(text, match_start.start()).
	endRel := endRe.FindStringIndex(text[start[0]:])
	singleTemplate := endRel == nil
	var endStart, endEnd int
	if !singleTemplate {
		endStart = start[0] + endRel[0]
		endEnd = start[0] + endRel[1]
		if endStart < start[1] {
			// The end template occurs before the start template's own
			// match finishes — a degenerate overlap. Bail out of this
			// text entirely rather than emit a corrupt element.
			return Element{}, "", false, nil
		}
	}

	depthEnd, errE := braceBalancedEnd(text[start[1]:])
	if errE != nil {
		return Element{}, "", false, errE
	}
	templateStartEnd := start[1] + depthEnd

	inside := ""
	if !singleTemplate {
		inside = text[templateStartEnd:endStart]
	}

	el := Element{
		Before:         text[:start[0]],
		TemplateStart:  text[start[0]:templateStartEnd],
		Params:         text[start[1] : templateStartEnd-2],
		Inside:         inside,
		SingleTemplate: singleTemplate,
	}

	rest := text[templateStartEnd:]
	if !singleTemplate {
		el.TemplateEnd = text[endStart:endEnd]
		rest = text[endEnd:]
	}

	return el, rest, true, nil
}

// braceBalancedEnd scans text (starting right after a start template's
// matched prefix) for the position where the brace depth, opened at 2 by
// the template's own "{{", returns to zero — the true end of the start
// template, immune to truncation by nested "{{...}}" (spec §4.3).
func braceBalancedEnd(text string) (int, errors.E) {
	depth := 2
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
		if depth == 0 {
			return i + 1, nil
		}
	}
	return 0, errors.WithStack(ErrUnbalancedBraces)
}
