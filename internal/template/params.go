package template

import (
	"regexp"
	"strconv"
	"strings"

	"gitlab.com/wdlists/wdlists/internal/column"
)

// LinksMode controls how entity-valued cells are turned into wiki links
// (spec §3 "links").
type LinksMode int

const (
	LinksAll LinksMode = iota
	LinksLocal
	LinksRed
	LinksRedOnly
	LinksText
	LinksReasonator
)

// SortMode selects how a row's sort key is derived (spec §4.7 stage 6).
type SortMode int

const (
	SortNone SortMode = iota
	SortLabel
	SortFamilyName
	SortProperty
	SortVariable
)

// SectionMode selects how rows are bucketed into sections (spec §4.7
// stage 7).
type SectionMode int

const (
	SectionNone SectionMode = iota
	SectionProperty
	SectionVariable // "@var", not yet supported per spec.
)

// SortOrder is ascending unless sort_order=DESC.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// ReferencesMode controls whether reference metadata is retained.
type ReferencesMode int

const (
	ReferencesNone ReferencesMode = iota
	ReferencesAll
)

var propertyRe = regexp.MustCompile(`^[Pp]?([0-9]+)$`)

// Parameters is the immutable, typed projection of a parsed Params map
// (spec §3 "Template parameters").
type Parameters struct {
	Columns []column.Column
	SPARQL  string

	Sort        SortMode
	SortProp    string // property id, when Sort == SortProperty
	SortVar     string // SPARQL variable name, when Sort == SortVariable
	SortOrder   SortOrder

	Section     SectionMode
	SectionProp string
	SectionVar  string
	MinSection  int

	RowTemplate    string
	HeaderTemplate string

	AutoDescFallback bool
	SummaryItemCount bool
	SkipTable        bool
	WikidataEdit     bool
	TabbedData       bool
	References       ReferencesMode
	OneRowPerItem    bool

	Links    LinksMode
	Language string
	Wikibase string
	Thumb    int
}

// Project turns a parsed Params map into a typed Parameters value, applying
// every default named in spec §3.
func Project(p *Params, defaultLanguage string, defaultThumb int, minSectionDefault int) Parameters {
	out := Parameters{
		Columns:       column.ParseList(p.GetOrDefault("columns", "")),
		SPARQL:        p.GetOrDefault("sparql", ""),
		SortOrder:     Ascending,
		MinSection:    minSectionDefault,
		OneRowPerItem: true,
		Links:         LinksAll,
		Language:      defaultLanguage,
		Wikibase:      "wikidatawiki",
		Thumb:         defaultThumb,
	}

	out.Sort, out.SortProp, out.SortVar = parseSort(p.GetOrDefault("sort", ""))

	if strings.EqualFold(p.GetOrDefault("sort_order", ""), "DESC") {
		out.SortOrder = Descending
	}

	out.Section, out.SectionProp, out.SectionVar = parseSection(p.GetOrDefault("section", ""))

	if v, ok := p.Get("min_section"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			out.MinSection = n
		}
	}

	out.RowTemplate = p.GetOrDefault("row_template", "")
	out.HeaderTemplate = p.GetOrDefault("header_template", "")

	autodesc := p.GetOrDefault("autodesc", p.GetOrDefault("autolist", ""))
	out.AutoDescFallback = strings.EqualFold(autodesc, "FALLBACK")

	out.SummaryItemCount = strings.EqualFold(p.GetOrDefault("summary", ""), "ITEMNUMBER")
	out.SkipTable = p.Has("skip_table")
	out.WikidataEdit = p.Has("wdedit")
	out.TabbedData = strings.TrimSpace(p.GetOrDefault("tabbed_data", "")) == "1"

	if strings.EqualFold(p.GetOrDefault("references", ""), "ALL") {
		out.References = ReferencesAll
	}

	if strings.EqualFold(p.GetOrDefault("one_row_per_item", ""), "NO") {
		out.OneRowPerItem = false
	}

	switch strings.ToUpper(strings.TrimSpace(p.GetOrDefault("links", "ALL"))) {
	case "LOCAL":
		out.Links = LinksLocal
	case "RED":
		out.Links = LinksRed
	case "RED_ONLY":
		out.Links = LinksRedOnly
	case "TEXT":
		out.Links = LinksText
	case "REASONATOR":
		out.Links = LinksReasonator
	default:
		out.Links = LinksAll
	}

	if lang := p.GetOrDefault("language", ""); lang != "" {
		out.Language = lang
	}
	if wb := p.GetOrDefault("wikibase", ""); wb != "" {
		out.Wikibase = wb
	}
	if thumb, ok := p.Get("thumb"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(thumb)); err == nil && n > 0 {
			out.Thumb = n
		}
	}

	return out
}

func parseSort(raw string) (SortMode, string, string) {
	raw = strings.TrimSpace(raw)
	switch strings.ToUpper(raw) {
	case "":
		return SortNone, "", ""
	case "LABEL":
		return SortLabel, "", ""
	case "FAMILY_NAME":
		return SortFamilyName, "", ""
	}
	if strings.HasPrefix(raw, "?") {
		return SortVariable, "", strings.ToUpper(raw[1:])
	}
	if m := propertyRe.FindStringSubmatch(raw); m != nil && strings.HasPrefix(strings.ToUpper(raw), "P") {
		return SortProperty, "P" + m[1], ""
	}
	return SortNone, "", ""
}

func parseSection(raw string) (SectionMode, string, string) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return SectionNone, "", ""
	case strings.HasPrefix(raw, "@"):
		return SectionVariable, "", strings.ToUpper(raw[1:])
	}
	upper := strings.ToUpper(raw)
	if strings.HasPrefix(upper, "P") {
		if m := propertyRe.FindStringSubmatch(upper); m != nil {
			return SectionProperty, "P" + m[1], ""
		}
	}
	// Bare digits normalize to "P...".
	if m := propertyRe.FindStringSubmatch(raw); m != nil {
		return SectionProperty, "P" + m[1], ""
	}
	return SectionNone, "", ""
}
