package listprocessor

import (
	"sort"

	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/template"
)

// miscSectionName is the trailing bucket every row below min_section folds
// into (spec §4.7 stage 7).
const miscSectionName = "Misc"

// AssignSections buckets rows into named sections when section=Property(pid)
// (spec §4.7 stage 7): each row's section name is computed by the
// sort-key rule for that property, names occurring fewer than min_section
// times are folded into a trailing "Misc" bucket, remaining names are
// sorted ascending, and l.SectionNames is populated in that final order
// with "Misc" last when non-empty.
func AssignSections(l *list.List) {
	if l.Params.Section != template.SectionProperty {
		return
	}
	rows := l.Rows.Rows()
	if len(rows) == 0 {
		return
	}

	// propertySortKey reads l.Params.SortProp, so evaluate it on a copy of
	// the list whose SortProp is the section property.
	sectionList := *l
	sectionList.Params.SortProp = l.Params.SectionProp

	names := make([]string, len(rows))
	counts := map[string]int{}
	for i, row := range rows {
		name := propertySortKey(&sectionList, row.EntityID)
		names[i] = name
		counts[name]++
	}

	hasMisc := false
	seen := map[string]bool{}
	var keptNames []string
	for _, name := range names {
		if counts[name] < l.Params.MinSection {
			hasMisc = true
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		keptNames = append(keptNames, name)
	}
	sort.Strings(keptNames)
	if hasMisc {
		keptNames = append(keptNames, miscSectionName)
	}

	ids := make(map[string]int, len(keptNames))
	for i, name := range keptNames {
		ids[name] = i
	}

	for i, row := range rows {
		name := names[i]
		if counts[name] < l.Params.MinSection {
			row.SectionID = ids[miscSectionName]
			continue
		}
		row.SectionID = ids[name]
	}

	l.SectionNames = keptNames
}
