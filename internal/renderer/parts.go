package renderer

import (
	"strconv"
	"strings"

	"gitlab.com/wdlists/wdlists/internal/entitycache"
	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/resultcell"
	"gitlab.com/wdlists/wdlists/internal/template"
)

// entityText renders an Entity part according to the list's links mode
// (spec §3 "links"): TryLocalize false always yields a bare "[[:d:Q..|Q..]]"
// link (used for the Item column, which never resolves a label); otherwise
// the label is resolved current-language-first and the links mode decides
// between the bare label, a local page link, a Reasonator link, or the
// italicized Wikidata link.
func entityText(l *list.List, p resultcell.Part) string {
	if !p.TryLocalize {
		return "[[:d:" + p.EntityID + "|" + p.EntityID + "]]"
	}

	entity := l.Cache.GetEntity(p.EntityID)
	label := entitycache.Label(entity, l.Language, l.DefaultLanguage)
	if label == "" {
		label = p.EntityID
	}
	italicLink := "''[[:d:" + p.EntityID + "|" + label + "]]''"

	switch l.Params.Links {
	case template.LinksText:
		return label
	case template.LinksRed, template.LinksRedOnly:
		if l.RedlinkExists[label] {
			return italicLink
		}
		return "[[" + label + "]]"
	case template.LinksReasonator:
		return "[https://reasonator.toolforge.org/?q=" + p.EntityID + " " + label + "]"
	default: // LinksAll, LinksLocal
		return italicLink
	}
}

// locationText renders a Location part by substituting placeholders into
// the configured location template (spec §6 "location_templates"); an
// unconfigured template falls back to Part.String's plain "lat/lon
// (region)" form. The owning row's entity id is substituted for $ITEM$
// directly, rather than the original's row-index lookup back into the
// result set, which does not account for per-section row numbering.
func locationText(l *list.List, entityID string, p resultcell.Part) string {
	if l.LocationTemplate == "" {
		return p.String()
	}
	out := l.LocationTemplate
	out = strings.ReplaceAll(out, "$LAT$", formatCoordinate(p.Lat))
	out = strings.ReplaceAll(out, "$LON$", formatCoordinate(p.Lon))
	out = strings.ReplaceAll(out, "$ITEM$", entityID)
	out = strings.ReplaceAll(out, "$REGION$", p.Region)
	return out
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// fileText renders a File part as a thumbnail link, sized per the list's
// configured thumb width (spec §4.2 "thumb").
func fileText(l *list.List, p resultcell.Part) string {
	return "[[" + fileNamespacePrefix + ":" + p.FileName + "|thumb|" + strconv.Itoa(l.ThumbSize) + "px|]]"
}

// externalIDText renders an ExternalID part as a clickable link when the
// property has a known formatter URL (P1630), falling back to the bare id
// (spec §4.5 "external_id_url").
func externalIDText(l *list.List, p resultcell.Part) string {
	u := l.Cache.ExternalIDURL(p.Property, p.ID)
	if u == "" {
		return p.ID
	}
	return "[" + u + " " + p.ID + "]"
}
