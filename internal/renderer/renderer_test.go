package renderer_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/wdlists/wdlists/internal/column"
	"gitlab.com/wdlists/wdlists/internal/entitycache"
	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/renderer"
	"gitlab.com/wdlists/wdlists/internal/resultcell"
	"gitlab.com/wdlists/wdlists/internal/resultrow"
	"gitlab.com/wdlists/wdlists/internal/template"
)

func newTestList(t *testing.T, columns []column.Column, params template.Parameters) *list.List {
	t.Helper()
	cache, errE := entitycache.New(nil, 10, false)
	require.NoError(t, errE)
	return list.New("enwiki", "wikidatawiki", "en", "en", 120, nil, columns, params, cache, nil)
}

func oneTextRow(entityID, text string) *resultrow.Row {
	row := resultrow.New(entityID, 2)
	row.Cells[0] = []resultcell.PartWithReference{resultcell.New(numberedPart())}
	row.Cells[1] = []resultcell.PartWithReference{resultcell.New(resultcell.NewText(text))}
	return row
}

func numberedPart() resultcell.Part {
	return resultcell.NewNumber()
}

func TestRenderBasicTable(t *testing.T) {
	columns := []column.Column{
		{Type: column.New("number"), Label: "#"},
		{Type: column.New("label"), Label: "item"},
	}
	l := newTestList(t, columns, template.Parameters{Columns: columns})
	l.Rows = resultrow.NewAccumulator()
	l.Rows.Append(oneTextRow("Q1", "first"))
	l.Rows.Append(oneTextRow("Q2", "second"))

	out := renderer.Render(l)

	assert.Contains(t, out, "{| class='wikitable sortable'")
	assert.Contains(t, out, "! #\n")
	assert.Contains(t, out, "! item\n")
	assert.Contains(t, out, "style='text-align:right'| 1")
	assert.Contains(t, out, "style='text-align:right'| 2")
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.Contains(t, out, "\n|-\n")
	assert.True(t, len(out) > 0 && out[len(out)-2:] == "|}")
}

func TestRenderSkipTable(t *testing.T) {
	columns := []column.Column{{Type: column.New("label"), Label: "item"}}
	params := template.Parameters{Columns: columns, SkipTable: true}
	l := newTestList(t, columns, params)
	l.Rows = resultrow.NewAccumulator()
	row := resultrow.New("Q1", 1)
	row.Cells[0] = []resultcell.PartWithReference{resultcell.New(resultcell.NewText("only"))}
	l.Rows.Append(row)

	out := renderer.Render(l)

	assert.NotContains(t, out, "{|")
	assert.NotContains(t, out, "|}")
	assert.Contains(t, out, "only")
}

func TestRenderWikidataEditRowPrefix(t *testing.T) {
	columns := []column.Column{{Type: column.New("label"), Label: "item"}}
	params := template.Parameters{Columns: columns, WikidataEdit: true}
	l := newTestList(t, columns, params)
	l.Rows = resultrow.NewAccumulator()
	row := resultrow.New("Q42", 1)
	row.Cells[0] = []resultcell.PartWithReference{resultcell.New(resultcell.NewText("x"))}
	l.Rows.Append(row)

	out := renderer.Render(l)

	assert.Contains(t, out, "|- class='wd_q42'")
}

func TestRenderRowTemplateUsesColumnKeys(t *testing.T) {
	columns := []column.Column{{Type: column.New("P31"), Label: "instance of"}}
	params := template.Parameters{Columns: columns, RowTemplate: "Wikidata list row"}
	l := newTestList(t, columns, params)
	l.Rows = resultrow.NewAccumulator()
	row := resultrow.New("Q1", 1)
	row.Cells[0] = []resultcell.PartWithReference{resultcell.New(resultcell.NewText("human"))}
	l.Rows.Append(row)

	out := renderer.Render(l)

	// The cell text already carries its own leading space (the same prefix
	// a plain "| {cell}" column gets), so the "key = " wrapper produces a
	// double space before the value — matching the original renderer.
	assert.Contains(t, out, "{{Wikidata list row\n| p31 =  human\n}}")
}

func TestRenderSections(t *testing.T) {
	columns := []column.Column{{Type: column.New("label"), Label: "item"}}
	params := template.Parameters{Columns: columns, Section: template.SectionProperty}
	l := newTestList(t, columns, params)
	l.Rows = resultrow.NewAccumulator()
	l.SectionNames = []string{"Alpha", "Misc"}

	row0 := resultrow.New("Q1", 1)
	row0.Cells[0] = []resultcell.PartWithReference{resultcell.New(resultcell.NewText("a"))}
	row0.SectionID = 0
	row1 := resultrow.New("Q2", 1)
	row1.Cells[0] = []resultcell.PartWithReference{resultcell.New(resultcell.NewText("b"))}
	row1.SectionID = 1
	l.Rows.Append(row0)
	l.Rows.Append(row1)

	out := renderer.Render(l)

	alphaIdx := indexOf(out, "== Alpha ==")
	miscIdx := indexOf(out, "== Misc ==")
	require.GreaterOrEqual(t, alphaIdx, 0)
	require.GreaterOrEqual(t, miscIdx, 0)
	assert.Less(t, alphaIdx, miscIdx)
}

func TestRenderShadowAndSummaryFooters(t *testing.T) {
	columns := []column.Column{{Type: column.New("label"), Label: "item"}}
	params := template.Parameters{Columns: columns, SummaryItemCount: true}
	l := newTestList(t, columns, params)
	l.Rows = resultrow.NewAccumulator()
	row := resultrow.New("Q1", 1)
	row.Cells[0] = []resultcell.PartWithReference{resultcell.New(resultcell.NewText("a"))}
	l.Rows.Append(row)
	l.ShadowFiles = []string{"Zebra.jpg", "Apple.jpg"}

	out := renderer.Render(l)

	assert.Contains(t, out, "# [[:File:Apple.jpg|]]")
	assert.Contains(t, out, "# [[:File:Zebra.jpg|]]")
	assert.Less(t, indexOf(out, "Apple.jpg"), indexOf(out, "Zebra.jpg"))
	assert.Contains(t, out, "&sum; 1 items.")
}

func TestRenderEntityLinksModes(t *testing.T) {
	columns := []column.Column{{Type: column.New("item"), Label: "item"}}

	l := newTestList(t, columns, template.Parameters{Columns: columns, Links: template.LinksText})
	l.Rows = resultrow.NewAccumulator()
	row := resultrow.New("Q1", 1)
	row.Cells[0] = []resultcell.PartWithReference{resultcell.New(resultcell.NewEntity("Q1", true))}
	l.Rows.Append(row)

	out := renderer.Render(l)
	// No cached label for Q1, so entityText falls back to the bare id.
	assert.Contains(t, out, "Q1")
	assert.NotContains(t, out, "[[:d:Q1")
}

func TestRenderItemColumnNeverLocalizes(t *testing.T) {
	columns := []column.Column{{Type: column.New("item"), Label: "item"}}
	l := newTestList(t, columns, template.Parameters{Columns: columns})
	l.Rows = resultrow.NewAccumulator()
	row := resultrow.New("Q7", 1)
	row.Cells[0] = []resultcell.PartWithReference{resultcell.New(resultcell.NewEntity("Q7", false))}
	l.Rows.Append(row)

	out := renderer.Render(l)

	assert.Contains(t, out, "[[:d:Q7|Q7]]")
}

func TestRenderTabbedDataShape(t *testing.T) {
	columns := []column.Column{
		{Type: column.New("label"), Label: "item"},
		{Type: column.New("P31"), Label: "instance of"},
	}
	l := newTestList(t, columns, template.Parameters{Columns: columns, TabbedData: true})
	l.Rows = resultrow.NewAccumulator()
	row := resultrow.New("Q1", 2)
	row.Cells[0] = []resultcell.PartWithReference{resultcell.New(resultcell.NewText("first"))}
	row.Cells[1] = []resultcell.PartWithReference{resultcell.New(resultcell.NewText("human"))}
	l.Rows.Append(row)

	out, errE := renderer.RenderTabbedData(l)
	require.NoError(t, errE)

	var payload struct {
		License string `json:"license"`
		Schema  struct {
			Fields []struct {
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"fields"`
		} `json:"schema"`
		Data [][]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))

	assert.Equal(t, "CC0-1.0", payload.License)
	require.Len(t, payload.Schema.Fields, 3)
	assert.Equal(t, "section", payload.Schema.Fields[0].Name)
	assert.Equal(t, "number", payload.Schema.Fields[0].Type)
	assert.Equal(t, "col_0", payload.Schema.Fields[1].Name)
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "first", payload.Data[0][1])
	assert.Equal(t, "human", payload.Data[0][2])
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
