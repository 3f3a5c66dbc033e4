// Package renderer turns a fully processed internal/list.List into the
// wikitext table that replaces an Element's "Inside" text (spec §4.8
// "Rendering"). It also renders the Special:TabularData companion page
// (original_source supplement, see RenderTabbedData in tabbed.go).
package renderer

import (
	"fmt"
	"sort"
	"strings"

	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/reference"
	"gitlab.com/wdlists/wdlists/internal/resultcell"
	"gitlab.com/wdlists/wdlists/internal/resultrow"
	"gitlab.com/wdlists/wdlists/internal/template"
)

// fileNamespacePrefix is used for File: links; no per-wiki localized
// namespace name is modeled (spec has no site-matrix namespace data), so
// the canonical English prefix is used everywhere.
const fileNamespacePrefix = "File"

// Render produces the full wikitext replacement for one list's template
// occurrence: one or more sections (heading + table + rows), followed by
// the shadow-file and summary footers (spec §4.8).
func Render(l *list.List) string {
	var b strings.Builder
	dedup := reference.NewDedup()

	sectionCount := 1
	if l.Params.Section == template.SectionProperty && len(l.SectionNames) > 0 {
		sectionCount = len(l.SectionNames)
	}

	for sectionID := 0; sectionID < sectionCount; sectionID++ {
		renderSection(&b, l, dedup, sectionID)
	}

	renderShadowFooter(&b, l)
	renderSummaryFooter(&b, l)

	return b.String()
}

// sectionName returns the heading text for sectionID, empty when sections
// are not in use (spec §4.7 stage 7, §4.8).
func sectionName(l *list.List, sectionID int) string {
	if l.Params.Section != template.SectionProperty {
		return ""
	}
	if sectionID < 0 || sectionID >= len(l.SectionNames) {
		return ""
	}
	return l.SectionNames[sectionID]
}

// renderSection writes one section's heading, table header, rows, and
// closing "|}" (when a table is in play at all).
func renderSection(b *strings.Builder, l *list.List, dedup *reference.Dedup, sectionID int) {
	b.WriteString(renderHeading(sectionName(l, sectionID)))
	b.WriteString(tableHeader(l))

	rows := sectionRows(l, sectionID)

	if l.Params.RowTemplate == "" && !l.Params.SkipTable && !l.Params.WikidataEdit && len(rows) > 0 {
		b.WriteString("|-\n")
	}

	renderRows(b, l, dedup, rows)

	if !l.Params.SkipTable {
		b.WriteString("\n|}")
	}
}

// renderHeading renders a section's "== name ==" heading, or just blank
// lines when name is empty (unsectioned lists, or a single default
// section).
func renderHeading(name string) string {
	if strings.TrimSpace(name) == "" {
		return "\n\n\n"
	}
	return "\n\n\n== " + name + " ==\n"
}

// tableHeader renders the table-opening line(s): a header_template
// invocation when configured, otherwise a sortable wikitable opener with
// one "! label" per column, or nothing at all when skip_table is set
// (spec §4.2 "header_template", "skip_table").
func tableHeader(l *list.List) string {
	if l.Params.HeaderTemplate != "" {
		return "{{" + l.Params.HeaderTemplate + "}}\n"
	}
	if l.Params.SkipTable {
		return ""
	}
	var b strings.Builder
	b.WriteString("{| class='wikitable sortable")
	if l.Params.WikidataEdit {
		b.WriteString(" wd_can_edit")
	}
	b.WriteString("'\n")
	for _, col := range l.Columns {
		b.WriteString("! " + col.Label + "\n")
	}
	return b.String()
}

// sectionRows returns the kept rows belonging to sectionID, in their
// current accumulator order.
func sectionRows(l *list.List, sectionID int) []*resultrow.Row {
	sectioned := l.Params.Section == template.SectionProperty && len(l.SectionNames) > 0
	var rows []*resultrow.Row
	for _, row := range l.Rows.Rows() {
		if sectioned {
			if row.SectionID != sectionID {
				continue
			}
		} else if sectionID != 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// renderRows joins a section's rendered rows using the mode-specific
// separator/wrapping rules (spec §4.8): skip_table joins bare rows with a
// single newline, wdedit wraps each row in a "|- class='wd_<id>'" marker
// (or leaves it bare under header_template) and trims the whole section,
// and the default table mode joins rows with "|-\n".
func renderRows(b *strings.Builder, l *list.List, dedup *reference.Dedup, rows []*resultrow.Row) {
	rendered := make([]string, len(rows))
	for i, row := range rows {
		rendered[i] = renderRow(l, dedup, row, i)
	}

	switch {
	case l.Params.SkipTable:
		b.WriteString(strings.Join(rendered, "\n"))
	case l.Params.WikidataEdit:
		parts := make([]string, len(rows))
		for i, row := range rows {
			if l.Params.HeaderTemplate != "" {
				parts[i] = rendered[i]
			} else {
				parts[i] = fmt.Sprintf("\n|- class='wd_%s'\n%s", strings.ToLower(row.EntityID), rendered[i])
			}
		}
		b.WriteString(strings.TrimSpace(strings.Join(parts, "")))
	default:
		b.WriteString(strings.Join(rendered, "\n|-\n"))
	}
}

// renderRow renders one row's cells, either as a row_template invocation
// keyed by each column's ColumnType.AsKey(), or as plain "| cell" lines
// (spec §4.2 "row_template").
func renderRow(l *list.List, dedup *reference.Dedup, row *resultrow.Row, ordinalInSection int) string {
	cells := make([]string, len(row.Cells))
	for i := range row.Cells {
		cells[i] = renderCell(l, dedup, row, i, ordinalInSection)
	}

	if l.Params.RowTemplate != "" {
		return "{{" + l.Params.RowTemplate + "\n| " + rowTemplateFields(l, cells) + "\n}}"
	}
	return "| " + strings.Join(cells, "\n| ")
}

func rowTemplateFields(l *list.List, cells []string) string {
	fields := make([]string, len(cells))
	for i, col := range l.Columns {
		fields[i] = col.Type.AsKey() + " = " + cells[i]
	}
	return strings.Join(fields, "\n| ")
}

// renderCell renders one row/column intersection: every value attached to
// the cell, joined by "<br/>" when more than one statement landed in the
// same cell (spec §4.6 "one PartWithReference per kept statement").
func renderCell(l *list.List, dedup *reference.Dedup, row *resultrow.Row, colIdx, ordinalInSection int) string {
	values := row.Cells[colIdx]
	rendered := make([]string, len(values))
	for i, pwr := range values {
		rendered[i] = partWithReferenceText(l, dedup, row.EntityID, pwr, ordinalInSection)
	}
	return " " + strings.Join(rendered, "<br/>")
}

// partWithReferenceText renders a part's own text, then appends a <ref>
// element per attached reference: a full "<ref name='ref_H'>body</ref>"
// on a reference's first use on the page, a bare back-reference
// "<ref name='ref_H' />" thereafter (spec §3 "Reference", deduplicated by
// content hash across the whole rendered page).
func partWithReferenceText(l *list.List, dedup *reference.Dedup, entityID string, pwr resultcell.PartWithReference, ordinalInSection int) string {
	text := partText(l, entityID, pwr.Part, ordinalInSection)
	for _, ref := range pwr.References {
		name, first := dedup.Use(ref)
		if first {
			text += "<ref name='" + name + "'>" + ref.Emitted() + "</ref>"
		} else {
			text += "<ref name='" + name + "' />"
		}
	}
	return text
}

// partText renders a single ResultCellPart to wikitext. Kinds that need
// List context (current language, links mode, redlink/location/file/
// external-id lookups) are handled here; the remaining kinds delegate to
// Part.String, which is already total and context-free.
func partText(l *list.List, entityID string, p resultcell.Part, ordinalInSection int) string {
	switch p.Kind {
	case resultcell.Number:
		p.Ordinal = ordinalInSection + 1
		return p.String()
	case resultcell.Entity:
		return entityText(l, p)
	case resultcell.Location:
		return locationText(l, entityID, p)
	case resultcell.File:
		return fileText(l, p)
	case resultcell.ExternalID:
		return externalIDText(l, p)
	case resultcell.SnakList:
		parts := make([]string, len(p.Parts))
		for i, sub := range p.Parts {
			parts[i] = partText(l, entityID, sub, ordinalInSection)
		}
		return strings.Join(parts, " — ")
	default:
		return p.String()
	}
}

// renderShadowFooter appends the "shadowed Commons image" footer listing
// every filename the shadow-image filter dropped, sorted ascending (spec
// §4.7 stage 5, §4.8).
func renderShadowFooter(b *strings.Builder, l *list.List) {
	if len(l.ShadowFiles) == 0 {
		return
	}
	files := append([]string(nil), l.ShadowFiles...)
	sort.Strings(files)
	b.WriteString("\n----\nThe following local image(s) are not shown in the above list, because they shadow a Commons image of the same name, and might be non-free:")
	for _, f := range files {
		b.WriteString("\n# [[:" + fileNamespacePrefix + ":" + f + "|]]")
	}
}

// renderSummaryFooter appends the "&sum; N items." footer when
// summary=ITEMNUMBER is set (spec §4.2 "summary").
func renderSummaryFooter(b *strings.Builder, l *list.List) {
	if !l.Params.SummaryItemCount {
		return
	}
	fmt.Fprintf(b, "\n----\n&sum; %d items.", l.Rows.Len())
}
