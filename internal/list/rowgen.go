package list

import (
	"strings"

	"gitlab.com/tozd/go/errors"
	"gitlab.com/tozd/go/mediawiki"

	"gitlab.com/wdlists/wdlists/internal/column"
	"gitlab.com/wdlists/wdlists/internal/entitycache"
	"gitlab.com/wdlists/wdlists/internal/reference"
	"gitlab.com/wdlists/wdlists/internal/resultcell"
	"gitlab.com/wdlists/wdlists/internal/resultrow"
	"gitlab.com/wdlists/wdlists/internal/sparql"
	"gitlab.com/wdlists/wdlists/internal/sparqltable"
	"gitlab.com/wdlists/wdlists/internal/template"
)

// Reference properties used to build PartWithReference.References from a
// statement's reference snaks (standard Wikidata provenance properties).
const (
	propReferenceURL = "P854"
	propTitle        = "P1476"
	propRetrieved    = "P813"
	propStatedIn     = "P248"
)

// GenerateRows builds l.Rows from l.Table per spec §4.6: driver-column
// iteration producing one resultrow.Row per surviving id when
// one_row_per_item is set, and one per surviving table row otherwise.
func (l *List) GenerateRows() errors.E {
	mainCol := l.Table.MainColumn()
	if mainCol < 0 {
		return errors.Errorf("sparql result has no item variable")
	}

	l.Rows = resultrow.NewAccumulator()
	header := l.Table.Header()

	if l.Params.OneRowPerItem {
		return l.generateOneRowPerItem(mainCol, header)
	}
	return l.generateOneRowPerRow(mainCol, header)
}

func (l *List) generateOneRowPerItem(mainCol int, header map[string]int) errors.E {
	var order []string
	seen := map[string]bool{}
	groups := map[string][]sparqltable.Row{}

	for i := 0; i < l.Table.Len(); i++ {
		row, errE := l.Table.Row(i)
		if errE != nil {
			return errE
		}
		v := row[mainCol]
		if v.Kind != sparql.KindEntity {
			continue
		}
		if !seen[v.EntityID] {
			seen[v.EntityID] = true
			order = append(order, v.EntityID)
		}
		groups[v.EntityID] = append(groups[v.EntityID], row)
	}

	for _, id := range order {
		sub := groups[id]
		if len(sub) == 0 {
			continue
		}
		row, errE := l.getResultRow(id, sub, header)
		if errE != nil {
			return errE
		}
		if row != nil {
			l.Rows.Append(row)
		}
	}
	return nil
}

func (l *List) generateOneRowPerRow(mainCol int, header map[string]int) errors.E {
	for i := 0; i < l.Table.Len(); i++ {
		row, errE := l.Table.Row(i)
		if errE != nil {
			return errE
		}
		v := row[mainCol]
		if v.Kind != sparql.KindEntity {
			continue
		}
		result, errE := l.getResultRow(v.EntityID, []sparqltable.Row{row}, header)
		if errE != nil {
			return errE
		}
		if result != nil {
			l.Rows.Append(result)
		}
	}
	return nil
}

// getResultRow applies the links=LOCAL filter and then builds one Row by
// iterating columns, per spec §4.6.
func (l *List) getResultRow(id string, sub []sparqltable.Row, header map[string]int) (*resultrow.Row, errors.E) {
	entity := l.Cache.GetEntity(id)

	if l.Params.Links == template.LinksLocal {
		if _, ok := entitycache.Sitelink(entity, l.Wiki); !ok {
			return nil, nil //nolint:nilnil
		}
	}

	row := resultrow.New(id, len(l.Columns))
	for i, col := range l.Columns {
		row.Cells[i] = l.buildCell(entity, col.Type, sub, header)
	}
	return row, nil
}

func (l *List) buildCell(entity *mediawiki.Entity, typ column.ColumnType, sub []sparqltable.Row, header map[string]int) []resultcell.PartWithReference {
	switch typ.Kind {
	case column.Item:
		return []resultcell.PartWithReference{resultcell.New(resultcell.NewEntity(entityID(entity), false))}

	case column.Qid:
		return []resultcell.PartWithReference{resultcell.New(resultcell.NewText(entityID(entity)))}

	case column.Description:
		langs := typ.Langs
		if len(langs) == 0 {
			langs = []string{l.Language, l.DefaultLanguage}
		}
		if desc, ok := entitycache.Description(entity, langs); ok {
			return []resultcell.PartWithReference{resultcell.New(resultcell.NewText(desc))}
		}
		if l.Params.AutoDescFallback {
			return []resultcell.PartWithReference{resultcell.New(resultcell.NewAutoDesc(entityID(entity)))}
		}
		return nil

	case column.Field:
		idx, ok := findHeaderField(header, typ.Field)
		if !ok {
			return nil
		}
		out := make([]resultcell.PartWithReference, 0, len(sub))
		for _, row := range sub {
			out = append(out, resultcell.New(sparqlValueToPart(row[idx])))
		}
		return out

	case column.Property:
		return l.buildPropertyCells(entity, typ.Property)

	case column.PropertyQualifier:
		return l.buildQualifierCells(entity, typ.Property, typ.Qualifier, "")

	case column.PropertyQualifierValue:
		return l.buildQualifierCells(entity, typ.Property, typ.Qualifier, typ.TargetItem)

	case column.Label:
		return []resultcell.PartWithReference{resultcell.New(l.labelPart(entity))}

	case column.LabelLang:
		label := entitycache.LabelLang(entity, typ.Lang, l.Language, l.DefaultLanguage)
		return []resultcell.PartWithReference{resultcell.New(resultcell.NewText(label))}

	case column.AliasLang:
		alias := entitycache.Alias(entity, typ.Lang)
		if alias == "" {
			return nil
		}
		return []resultcell.PartWithReference{resultcell.New(resultcell.NewText(alias))}

	case column.Number:
		return []resultcell.PartWithReference{resultcell.New(resultcell.NewNumber())}

	default: // Unknown
		return nil
	}
}

func entityID(entity *mediawiki.Entity) string {
	if entity == nil {
		return ""
	}
	return entity.ID
}

// labelPart implements the Label column: prefer a LocalLink when a
// sitelink to the current wiki exists, otherwise Entity(try_localize=true)
// (spec §4.6).
func (l *List) labelPart(entity *mediawiki.Entity) resultcell.Part {
	if title, ok := entitycache.Sitelink(entity, l.Wiki); ok {
		label := entitycache.Label(entity, l.Language, l.DefaultLanguage)
		return resultcell.NewLocalLink(title, label, resultcell.TargetPage)
	}
	return resultcell.NewEntity(entityID(entity), true)
}

func (l *List) buildPropertyCells(entity *mediawiki.Entity, property string) []resultcell.PartWithReference {
	statements := entitycache.GetFilteredClaims(entity, property)
	out := make([]resultcell.PartWithReference, 0, len(statements))
	for _, st := range statements {
		part := snakToPart(st.MainSnak, property)
		var refs []reference.Reference
		if l.Params.References == template.ReferencesAll {
			refs = l.buildReferences(st)
		}
		out = append(out, resultcell.New(part, refs...))
	}
	return out
}

// buildQualifierCells implements PropertyQualifier and (when targetItem is
// non-empty) PropertyQualifierValue (spec §4.6).
func (l *List) buildQualifierCells(entity *mediawiki.Entity, property, qualifier, targetItem string) []resultcell.PartWithReference {
	statements := entitycache.GetFilteredClaims(entity, property)
	var out []resultcell.PartWithReference
	for _, st := range statements {
		if targetItem != "" && !mainSnakLinksTo(st.MainSnak, targetItem) {
			continue
		}
		quals := st.Qualifiers[qualifier]
		for _, qsnak := range quals {
			mainPart := snakToPart(st.MainSnak, property)
			qualPart := snakToPart(qsnak, qualifier)
			out = append(out, resultcell.New(resultcell.NewSnakList(mainPart, qualPart)))
		}
	}
	return out
}

func mainSnakLinksTo(snak mediawiki.Snak, targetItem string) bool {
	if snak.DataValue == nil {
		return false
	}
	value, ok := snak.DataValue.Value.(mediawiki.WikiBaseEntityIDValue)
	if !ok {
		return false
	}
	return value.ID == targetItem
}

func findHeaderField(header map[string]int, field string) (int, bool) {
	if idx, ok := header[field]; ok {
		return idx, true
	}
	for name, idx := range header {
		if strings.EqualFold(name, field) {
			return idx, true
		}
	}
	return 0, false
}

// sparqlValueToPart converts a raw SPARQL value into a ResultCellPart for
// a Field(var) column (spec §4.6 "Field(var) | for each sub-row, the
// converted SPARQL value").
func sparqlValueToPart(v sparql.Value) resultcell.Part {
	switch v.Kind {
	case sparql.KindEntity:
		return resultcell.NewEntity(v.EntityID, true)
	case sparql.KindFile:
		return resultcell.NewFile(v.FileName)
	case sparql.KindURI:
		return resultcell.NewURI(v.URIValue)
	case sparql.KindTime:
		return resultcell.NewTime(v.TimeValue)
	case sparql.KindLocation:
		return resultcell.NewLocation(v.Lat, v.Lon)
	default:
		return resultcell.NewText(v.Literal)
	}
}

// buildReferences converts a statement's reference snaks into
// reference.Reference values (spec §4.6 "with references if
// references=ALL"). Stated-in labels are resolved from whatever is
// already cached; listprocessor's "reference items" stage (§4.7 stage 9)
// bulk-loads any missing ones and rebuilds these in place.
func (l *List) buildReferences(st mediawiki.Statement) []reference.Reference {
	var refs []reference.Reference
	for _, ref := range st.References {
		url := firstSnakString(ref.Snaks[propReferenceURL])
		title := firstSnakMonolingual(ref.Snaks[propTitle])
		accessDate := firstSnakTime(ref.Snaks[propRetrieved])
		statedIn := firstSnakEntity(ref.Snaks[propStatedIn])

		if url == "" && title == "" && statedIn == "" {
			continue
		}
		statedInLabel := ""
		if statedIn != "" {
			statedInLabel = entitycache.Label(l.Cache.GetEntity(statedIn), l.Language, l.DefaultLanguage)
		}
		refs = append(refs, reference.New(url, title, accessDate, statedIn, statedInLabel))
	}
	return refs
}

func firstSnakString(snaks []mediawiki.Snak) string {
	if len(snaks) == 0 || snaks[0].DataValue == nil {
		return ""
	}
	if sv, ok := snaks[0].DataValue.Value.(mediawiki.StringValue); ok {
		return string(sv)
	}
	return ""
}

func firstSnakMonolingual(snaks []mediawiki.Snak) string {
	if len(snaks) == 0 || snaks[0].DataValue == nil {
		return ""
	}
	if mv, ok := snaks[0].DataValue.Value.(mediawiki.MonolingualTextValue); ok {
		return mv.Text
	}
	return ""
}

func firstSnakTime(snaks []mediawiki.Snak) string {
	if len(snaks) == 0 || snaks[0].DataValue == nil {
		return ""
	}
	if tv, ok := snaks[0].DataValue.Value.(mediawiki.TimeValue); ok {
		return sparql.ReduceTime(tv.Time, tv.Precision)
	}
	return ""
}

func firstSnakEntity(snaks []mediawiki.Snak) string {
	if len(snaks) == 0 || snaks[0].DataValue == nil {
		return ""
	}
	if ev, ok := snaks[0].DataValue.Value.(mediawiki.WikiBaseEntityIDValue); ok {
		return ev.ID
	}
	return ""
}
