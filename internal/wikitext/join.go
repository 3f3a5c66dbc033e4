package wikitext

import "strings"

// Join reassembles the full page text from elements, substituting each
// element's current Inside for whatever stood there when the page was
// split (spec §4.9 "concatenate the rendered inside of each element").
// A template element contributes Before, its start/end template markers,
// and Inside, newline-padded the same way the original page text always
// separates a template's braces from its body; a plain-text element
// contributes only Before, which already holds the full unsplit remainder
// once it is the last element in the sequence.
func Join(elements []Element) string {
	var b strings.Builder
	for _, el := range elements {
		b.WriteString(el.Before)
		if el.IsJustText {
			continue
		}
		b.WriteString(el.TemplateStart)
		b.WriteString("\n")
		b.WriteString(el.Inside)
		b.WriteString("\n")
		b.WriteString(el.TemplateEnd)
	}
	return b.String()
}
