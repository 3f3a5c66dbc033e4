package listprocessor

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/resultcell"
	"gitlab.com/wdlists/wdlists/internal/template"
)

// GatherAndLoad collects every entity id a cell will need to resolve —
// Entity(try_localize=true) values, the property id of ExternalID parts
// (needed for the formatter-URL lookup), the sort property and the
// section property — and bulk-loads them through the entity cache (spec
// §4.7 stage 1).
func GatherAndLoad(ctx context.Context, l *list.List) errors.E {
	rows := l.Rows.Rows()
	if len(rows) == 0 {
		return nil
	}

	ids := mapset.NewThreadUnsafeSet[string]()
	add := func(id string) {
		if id != "" {
			ids.Add(id)
		}
	}

	visitParts(rows, func(p *resultcell.Part) {
		switch p.Kind {
		case resultcell.Entity:
			if p.TryLocalize {
				add(p.EntityID)
			}
		case resultcell.ExternalID:
			add(p.Property)
		}
	})

	if l.Params.Sort == template.SortProperty {
		add(l.Params.SortProp)
	}
	if l.Params.Section == template.SectionProperty {
		add(l.Params.SectionProp)
	}

	if ids.Cardinality() == 0 {
		return nil
	}
	return l.Cache.LoadEntities(ctx, ids.ToSlice())
}
