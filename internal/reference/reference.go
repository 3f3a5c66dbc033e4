// Package reference implements the Reference model (spec §3 "Reference"):
// the url/title/access-date/stated-in provenance extracted from a
// statement's reference snaks, deduplicated by a content hash over the
// rendered wikitext so that repeated citations collapse to a named
// back-reference.
package reference

import (
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"fmt"
)

// Reference is the four user-visible fields the spec keeps from a
// reference snak array, plus the rendered form and its content hash.
type Reference struct {
	URL        string
	Title      string
	AccessDate string
	StatedIn   string // entity id, e.g. "Q328"

	emitted string
	hash    string
}

// New builds a Reference and renders+hashes it immediately: both are pure
// functions of the four fields, so computing them eagerly means every
// later comparison and render is a field read.
func New(url, title, accessDate, statedIn string, statedInLabel string) Reference {
	r := Reference{URL: url, Title: title, AccessDate: accessDate, StatedIn: statedIn}
	r.emitted = render(r, statedInLabel)
	sum := md5.Sum([]byte(r.emitted)) //nolint:gosec
	r.hash = hex.EncodeToString(sum[:])
	return r
}

// Equal implements the spec's equality rule: two references are equal
// when their four user-visible fields match, regardless of hash or
// cached render (which are derived).
func (r Reference) Equal(other Reference) bool {
	return r.URL == other.URL &&
		r.Title == other.Title &&
		r.AccessDate == other.AccessDate &&
		r.StatedIn == other.StatedIn
}

// Hash returns the content hash used to deduplicate references on a page.
func (r Reference) Hash() string {
	return r.hash
}

// Emitted returns the cached rendered wikitext for the reference's body
// (the content of a <ref name="...">...</ref> element, without the tag).
func (r Reference) Emitted() string {
	return r.emitted
}

// render follows the original's cite-web shape: a full {{cite web}}
// invocation when both a title and a URL are known, a bare URL when only
// that is known, and a stated-in link as the last resort.
func render(r Reference, statedInLabel string) string {
	label := statedInLabel
	if label == "" {
		label = r.StatedIn
	}

	switch {
	case r.Title != "" && r.URL != "":
		out := fmt.Sprintf("{{cite web|url=%s|title=%s", r.URL, r.Title)
		if r.StatedIn != "" {
			out += "|website=" + label
		}
		if r.AccessDate != "" {
			out += "|access-date=" + r.AccessDate
		}
		return out + "}}"
	case r.URL != "":
		return r.URL
	case r.StatedIn != "":
		return label
	default:
		return ""
	}
}

// Dedup tracks references already emitted on a page, by content hash, so
// that the renderer can decide between a full <ref name="ref_H">...</ref>
// and a back-reference <ref name="ref_H" />.
type Dedup struct {
	seen map[string]bool
}

// NewDedup creates an empty per-page dedup tracker.
func NewDedup() *Dedup {
	return &Dedup{seen: make(map[string]bool)}
}

// Name returns the wikitext ref name for a reference's hash.
func Name(hash string) string {
	return "ref_" + hash
}

// Use records an occurrence of ref on the page and reports whether this is
// the first occurrence (requiring a full render) or a repeat (requiring
// only a back-reference).
func (d *Dedup) Use(ref Reference) (name string, first bool) {
	name = Name(ref.hash)
	first = !d.seen[ref.hash]
	d.seen[ref.hash] = true
	return name, first
}
