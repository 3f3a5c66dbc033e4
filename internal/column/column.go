// Package column parses a single column specification string (as found in
// a "columns" template parameter) into a tagged ColumnType and the label
// under which it is rendered.
package column

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind tags the variant held by a ColumnType.
type Kind int

const (
	Number Kind = iota
	Label
	LabelLang
	AliasLang
	Description
	Item
	Qid
	Property
	PropertyQualifier
	PropertyQualifierValue
	Field
	Unknown
)

var propertyRe = regexp.MustCompile(`^[Pp]([0-9]+)$`)
var qidRe = regexp.MustCompile(`^[Qq]([0-9]+)$`)

// ColumnType is the closed sum over the column shapes recognized by the
// "columns" grammar (spec §4.1).
type ColumnType struct {
	Kind Kind

	// Property holds the single normalized (upper-cased) property id for
	// Property, PropertyQualifier (the main property) and
	// PropertyQualifierValue (the main property).
	Property string
	// Qualifier holds the qualifier property id for PropertyQualifier, or
	// the qualifier property id for PropertyQualifierValue.
	Qualifier string
	// TargetItem holds the qid for PropertyQualifierValue.
	TargetItem string

	// Lang holds the (lower-cased) language code for LabelLang and
	// AliasLang.
	Lang string
	// Langs holds the ordered language codes for Description.
	Langs []string

	// Field holds the (upper-cased) SPARQL variable name for Field.
	Field string

	// Raw holds the original (unparsed) spec text for Unknown columns.
	Raw string
}

func normalizeProperty(s string) string {
	m := propertyRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return "P" + m[1]
}

func normalizeItem(s string) string {
	m := qidRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return "Q" + m[1]
}

// New parses a bare column type spec (the part of "spec:label" before the
// first colon, already trimmed).
func New(spec string) ColumnType {
	spec = strings.TrimSpace(spec)
	lower := strings.ToLower(spec)

	switch {
	case lower == "number":
		return ColumnType{Kind: Number}
	case lower == "label":
		return ColumnType{Kind: Label}
	case lower == "item":
		return ColumnType{Kind: Item}
	case lower == "qid":
		return ColumnType{Kind: Qid}
	case lower == "description" || strings.HasPrefix(lower, "description/"):
		langs := []string{}
		if idx := strings.IndexByte(spec, '/'); idx >= 0 {
			for _, l := range strings.Split(spec[idx+1:], ",") {
				l = strings.ToLower(strings.TrimSpace(l))
				if l != "" {
					langs = append(langs, l)
				}
			}
		}
		return ColumnType{Kind: Description, Langs: langs}
	case strings.HasPrefix(lower, "label/"):
		return ColumnType{Kind: LabelLang, Lang: strings.ToLower(spec[len("label/"):])}
	case strings.HasPrefix(lower, "alias/"):
		return ColumnType{Kind: AliasLang, Lang: strings.ToLower(spec[len("alias/"):])}
	case strings.HasPrefix(spec, "?"):
		return ColumnType{Kind: Field, Field: strings.ToUpper(spec[1:])}
	}

	parts := strings.Split(spec, "/")
	switch len(parts) {
	case 1:
		if p := normalizeProperty(parts[0]); p != "" {
			return ColumnType{Kind: Property, Property: p}
		}
	case 2:
		p := normalizeProperty(parts[0])
		q := normalizeProperty(parts[1])
		if p != "" && q != "" {
			return ColumnType{Kind: PropertyQualifier, Property: p, Qualifier: q}
		}
	case 3:
		p := normalizeProperty(parts[0])
		item := normalizeItem(parts[1])
		q := normalizeProperty(parts[2])
		if p != "" && item != "" && q != "" {
			return ColumnType{Kind: PropertyQualifierValue, Property: p, TargetItem: item, Qualifier: q}
		}
	}

	return ColumnType{Kind: Unknown, Raw: spec}
}

// AsKey returns a stable, unique-per-variant key, matching spec §8's
// testable property that distinct ColumnType variants never collide.
func (c ColumnType) AsKey() string {
	switch c.Kind {
	case Number:
		return "number"
	case Label:
		return "label"
	case LabelLang:
		return "language:" + c.Lang
	case AliasLang:
		return "alias:" + c.Lang
	case Description:
		return "description:" + strings.Join(c.Langs, ",")
	case Item:
		return "item"
	case Qid:
		return "qid"
	case Property:
		return strings.ToLower(c.Property)
	case PropertyQualifier:
		return strings.ToLower(c.Property) + "/" + strings.ToLower(c.Qualifier)
	case PropertyQualifierValue:
		return strings.ToLower(c.Property) + "/" + strings.ToLower(c.TargetItem) + "/" + strings.ToLower(c.Qualifier)
	case Field:
		return "field:" + c.Field
	default:
		return "unknown:" + c.Raw
	}
}

// Column pairs a ColumnType with the label it is rendered under, and
// whether that label was given explicitly (spec:label) or must be derived
// from the properties involved.
type Column struct {
	Type          ColumnType
	Label         string
	HasLabel      bool
}

// Parse splits a full column spec ("spec[:label]") and parses its type.
func Parse(spec string) Column {
	spec = strings.TrimSpace(spec)
	if idx := strings.IndexByte(spec, ':'); idx >= 0 {
		raw := strings.TrimSpace(spec[:idx])
		label := strings.TrimSpace(spec[idx+1:])
		return Column{Type: New(raw), Label: label, HasLabel: true}
	}
	typ := New(spec)
	return Column{Type: typ, Label: fallbackLabel(typ), HasLabel: false}
}

// ParseList parses a comma-separated "columns" parameter, defaulting to a
// single Item column when the spec is empty.
func ParseList(spec string) []Column {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return []Column{{Type: ColumnType{Kind: Item}, Label: "item"}}
	}
	parts := strings.Split(spec, ",")
	out := make([]Column, 0, len(parts))
	for _, part := range parts {
		out = append(out, Parse(part))
	}
	return out
}

// fallbackLabel derives a human label when none was given explicitly. For
// property-bearing variants the caller is expected to later replace this
// with the joined property labels fetched from the knowledge graph; until
// then the property id itself is a reasonable placeholder, matching the
// spec's "joined with /" rule for the degenerate single-property case.
func fallbackLabel(t ColumnType) string {
	switch t.Kind {
	case Number:
		return "#"
	case Label, Item:
		return "item"
	case Qid:
		return "qid"
	case LabelLang:
		return fmt.Sprintf("label (%s)", t.Lang)
	case AliasLang:
		return fmt.Sprintf("alias (%s)", t.Lang)
	case Description:
		return "description"
	case Property:
		return t.Property
	case PropertyQualifier:
		return t.Property + "/" + t.Qualifier
	case PropertyQualifierValue:
		return t.Property + "/" + t.TargetItem + "/" + t.Qualifier
	case Field:
		return t.Field
	default:
		return t.Raw
	}
}
