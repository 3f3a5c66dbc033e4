package wikiapi

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Sentinel error bases, mirrored from the teacher's
// internal/wikipedia/errors.go habit of a small set of Base values that
// every call site wraps with context via errors.WithStack.
var (
	ErrPageDeleted       = errors.Base("page deleted")
	ErrPageInvalid       = errors.Base("page invalid")
	ErrTranslationSubpage = errors.Base("translation subpage")
)

// normalizationTable maps recognized substrings of an error's message to
// the stable code dashboards aggregate on (spec §6 "Renderer output" /
// §7 "message normalization pass"). Checked in order; first match wins.
var normalizationTable = []struct { //nolint:gochecknoglobals
	substr string
	code   string
}{
	{"translation of the page", "TRANSLATION"},
	{"SPARQL", "SPARQL_ERROR"},
	{"sparql", "SPARQL_ERROR"},
	{"timeout", "WIKI_TIMEOUT"},
	{"deadline exceeded", "WIKI_TIMEOUT"},
	{"connection reset by peer", "104_RESET_BY_PEER"},
}

// NormalizeMessage rewrites a raw error message into a stable code when it
// matches a known substring, truncating to 200 chars either way (the job
// store's update_status message limit, spec §6).
func NormalizeMessage(msg string) string {
	for _, entry := range normalizationTable {
		if strings.Contains(msg, entry.substr) {
			msg = entry.code
			break
		}
	}
	const maxLen = 200
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

// IsTranslationSubpage reports whether an error's message indicates the
// page is a translation subpage (spec §7, skipped and not retried).
func IsTranslationSubpage(msg string) bool {
	return strings.Contains(msg, "translation of the page")
}
