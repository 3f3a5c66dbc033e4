package renderer

import (
	"encoding/json"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/resultcell"
)

// tabbedField is one entry of a Special:TabularData schema's "fields"
// array.
type tabbedField struct {
	Name  string            `json:"name"`
	Type  string            `json:"type"`
	Title map[string]string `json:"title"`
}

type tabbedSchema struct {
	Fields []tabbedField `json:"fields"`
}

type tabbedPayload struct {
	License     string            `json:"license"`
	Description map[string]string `json:"description"`
	Sources     string            `json:"sources"`
	Schema      tabbedSchema      `json:"schema"`
	Data        [][]interface{}   `json:"data"`
}

// RenderTabbedData builds the JSON payload for the list's companion
// Special:TabularData page, when tabbed_data=1 is set (original_source
// supplement to spec §4.8: the distillation described the wikitext
// renderer only, but listeria_rs ships a second renderer producing this
// JSON shape for Commons-hosted tabular data pages). Every row becomes one
// data row, its first field the section id; every column becomes one
// schema field plus one data cell, values truncated and newline-sanitized
// the way a tabular-data cell requires.
func RenderTabbedData(l *list.List) (string, errors.E) {
	payload := tabbedPayload{
		License:     "CC0-1.0",
		Description: map[string]string{"en": "List generated by wdlists."},
		Sources:     "Wikidata, " + l.Wiki,
		Schema: tabbedSchema{
			Fields: []tabbedField{
				{Name: "section", Type: "number", Title: map[string]string{"en": "section"}},
			},
		},
	}

	for i, col := range l.Columns {
		payload.Schema.Fields = append(payload.Schema.Fields, tabbedField{
			Name:  "col_" + strconv.Itoa(i),
			Type:  "string",
			Title: map[string]string{l.Language: col.Label},
		})
	}

	for _, row := range l.Rows.Rows() {
		data := make([]interface{}, 0, len(row.Cells)+1)
		data = append(data, row.SectionID)
		for _, cell := range row.Cells {
			data = append(data, tabbedCellText(l, row.EntityID, cell))
		}
		payload.Data = append(payload.Data, data)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(out), nil
}

// tabbedCellText renders a cell's values joined the same way the wikitext
// renderer does ("<br/>" between multiple statements), each value truncated
// to the tabular-data-safe length and with embedded newlines/tabs flattened
// to spaces (spec §9 "tabbed_string_safe"); the joined text is not
// truncated again. Reference markup is not emitted:
// tabular-data cells carry plain values only.
func tabbedCellText(l *list.List, entityID string, values []resultcell.PartWithReference) string {
	rendered := make([]string, len(values))
	for i, pwr := range values {
		rendered[i] = tabbedPartText(l, entityID, pwr.Part)
	}
	return strings.Join(rendered, "<br/>")
}

func tabbedPartText(l *list.List, entityID string, p resultcell.Part) string {
	var text string
	switch p.Kind {
	case resultcell.Entity:
		text = entityText(l, p)
	case resultcell.Location:
		text = locationText(l, entityID, p)
	case resultcell.File:
		text = fileText(l, p)
	case resultcell.ExternalID:
		text = externalIDText(l, p)
	case resultcell.SnakList:
		parts := make([]string, len(p.Parts))
		for i, sub := range p.Parts {
			parts[i] = tabbedPartText(l, entityID, sub)
		}
		text = strings.Join(parts, " — ")
	default:
		text = p.String()
	}
	return tabbedStringSafe(text)
}

// tabbedStringSafe truncates s to the tabular-data-safe length and
// flattens embedded newlines/tabs to spaces. Delegates truncation to
// resultcell.Part's own TabbedStringSafe by round-tripping through a Text
// part, so the 380-byte/UTF-8-safe logic lives in exactly one place.
func tabbedStringSafe(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return resultcell.NewText(s).TabbedStringSafe()
}
