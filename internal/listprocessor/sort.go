package listprocessor

import (
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/mediawiki"

	"gitlab.com/wdlists/wdlists/internal/entitycache"
	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/resultrow"
	"gitlab.com/wdlists/wdlists/internal/sparql"
	"gitlab.com/wdlists/wdlists/internal/template"
)

// timeSentinel and monolingualSentinel make rows without a sortable value
// sort last in ascending order (spec §4.7 stage 6 "Otherwise ... so rows
// without a value sort last").
const (
	timeSentinel        = "no time"
	monolingualSentinel = "￿￿￿"
)

var familyNameSuffixRe = []string{", Jr.", ", Sr."}

// Sort derives each row's SortKey per l.Params.Sort, then orders the
// accumulator by (sortkey, entity-id-numeric) ascending, reversing if
// sort_order=DESC (spec §4.7 stage 6).
func Sort(l *list.List) {
	if l.Params.Sort == template.SortNone {
		return
	}
	rows := l.Rows.Rows()
	if len(rows) == 0 {
		return
	}

	quantity := l.Params.Sort == template.SortProperty &&
		l.Cache.GetDatatypeForProperty(l.Params.SortProp) == mediawiki.Quantity

	for _, row := range rows {
		row.SortKey = sortKeyFor(l, row)
	}

	l.Rows.SortBy(func(a, b *resultrow.Row) bool {
		if quantity {
			av, bv := quantityKey(a.SortKey), quantityKey(b.SortKey)
			if av != bv {
				return av < bv
			}
			return numericID(a.EntityID) < numericID(b.EntityID)
		}
		if a.SortKey != b.SortKey {
			return a.SortKey < b.SortKey
		}
		return numericID(a.EntityID) < numericID(b.EntityID)
	})

	if l.Params.SortOrder == template.Descending {
		l.Rows.Reverse()
	}
}

func sortKeyFor(l *list.List, row *resultrow.Row) string {
	switch l.Params.Sort {
	case template.SortLabel:
		entity := l.Cache.GetEntity(row.EntityID)
		return entitycache.Label(entity, l.Language, l.DefaultLanguage)
	case template.SortFamilyName:
		entity := l.Cache.GetEntity(row.EntityID)
		return familyNameKey(entitycache.Label(entity, l.Language, l.DefaultLanguage))
	case template.SortProperty:
		return propertySortKey(l, row.EntityID)
	case template.SortVariable:
		return variableSortKey(l, row.EntityID)
	default:
		return ""
	}
}

// familyNameKey implements the FamilyName sort key (spec §4.7 stage 6):
// strip a trailing ", Jr."/", Sr." suffix, strip a trailing " (...)"
// disambiguator, then rewrite "first last" to "last, first".
func familyNameKey(label string) string {
	for _, suffix := range familyNameSuffixRe {
		if strings.HasSuffix(label, suffix) {
			label = strings.TrimSuffix(label, suffix)
			break
		}
	}
	if idx := strings.LastIndex(label, " ("); idx >= 0 && strings.HasSuffix(label, ")") {
		label = label[:idx]
	}
	parts := strings.SplitN(label, " ", 2)
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" && !strings.Contains(parts[1], " ") {
		return parts[1] + ", " + parts[0]
	}
	return label
}

// propertySortKey implements the Property(pid) sort key from the first
// filtered claim's main snak (spec §4.7 stage 6).
func propertySortKey(l *list.List, entityID string) string {
	entity := l.Cache.GetEntity(entityID)
	statements := entitycache.GetFilteredClaims(entity, l.Params.SortProp)
	datatype := l.Cache.GetDatatypeForProperty(l.Params.SortProp)

	if len(statements) == 0 || statements[0].MainSnak.DataValue == nil {
		switch datatype { //nolint:exhaustive
		case mediawiki.Time:
			return timeSentinel
		case mediawiki.MonolingualText:
			return monolingualSentinel
		default:
			return ""
		}
	}

	switch value := statements[0].MainSnak.DataValue.Value.(type) {
	case mediawiki.GlobeCoordinateValue:
		return fmt.Sprintf("%g/%g/%g", value.Latitude, value.Longitude, value.Precision)
	case mediawiki.MonolingualTextValue:
		return value.Language + ":" + value.Text
	case mediawiki.WikiBaseEntityIDValue:
		return entitycache.Label(l.Cache.GetEntity(value.ID), l.Language, l.DefaultLanguage)
	case mediawiki.QuantityValue:
		amount, _ := value.Amount.Float64()
		return strconv.FormatFloat(amount, 'f', -1, 64)
	case mediawiki.TimeValue:
		return value.Time
	default:
		return ""
	}
}

// variableSortKey implements the SparqlVariable(var) sort key: the raw
// value of var in the first sub-row belonging to entityID (spec §4.7
// stage 6).
func variableSortKey(l *list.List, entityID string) string {
	mainCol := l.Table.MainColumn()
	idx, ok := l.Table.Header()[l.Params.SortVar]
	if !ok || mainCol < 0 {
		return ""
	}
	for i := 0; i < l.Table.Len(); i++ {
		row, errE := l.Table.Row(i)
		if errE != nil {
			continue
		}
		if mainCol >= len(row) || row[mainCol].Kind != sparql.KindEntity || row[mainCol].EntityID != entityID {
			continue
		}
		if idx >= len(row) {
			return ""
		}
		return rawSparqlString(row[idx])
	}
	return ""
}

func rawSparqlString(v sparql.Value) string {
	switch v.Kind {
	case sparql.KindEntity:
		return v.EntityID
	case sparql.KindFile:
		return v.FileName
	case sparql.KindURI:
		return v.URIValue
	case sparql.KindTime:
		return v.TimeValue
	case sparql.KindLocation:
		return fmt.Sprintf("%g/%g", v.Lat, v.Lon)
	default:
		return v.Literal
	}
}

// quantityKey parses a quantity sort key as u64, per spec §4.7 stage 6
// "when the chosen datatype is Quantity, both keys are parsed as u64
// (missing/zero -> tie-broken by entity id)".
func quantityKey(s string) uint64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return uint64(f)
}

// numericID extracts the numeric suffix of a Wikibase entity id (Q42 ->
// 42), used as the stable tie-breaker in every sort comparator (spec §4.7
// stage 6, §5 "Sort determinism is guaranteed by the tie-breaker on
// numeric entity id").
func numericID(id string) uint64 {
	i := 0
	for i < len(id) && (id[i] < '0' || id[i] > '9') {
		i++
	}
	n, err := strconv.ParseUint(id[i:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
