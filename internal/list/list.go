// Package list implements the per-page List aggregate (spec §3 "List"):
// the owner of one rendered table's SPARQL results, columns, parameters,
// entity cache and accumulated result rows, and the orchestration of row
// generation followed by the listprocessor pipeline stages.
package list

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/column"
	"gitlab.com/wdlists/wdlists/internal/entitycache"
	"gitlab.com/wdlists/wdlists/internal/resultrow"
	"gitlab.com/wdlists/wdlists/internal/sparql"
	"gitlab.com/wdlists/wdlists/internal/sparqltable"
	"gitlab.com/wdlists/wdlists/internal/template"
	"gitlab.com/wdlists/wdlists/internal/wikiapi"
)

// List owns everything needed to turn a SPARQL table into rendered
// wikitext for one list-start/list-end template occurrence on one wiki
// page (spec §3 "List").
type List struct {
	Wiki            string
	Wikibase        string
	Language        string
	DefaultLanguage string
	ThumbSize       int

	Table   *sparqltable.Table
	Columns []column.Column
	Params  template.Parameters

	Cache      *entitycache.Cache
	WikiClient *wikiapi.Client

	Rows *resultrow.Accumulator

	// SectionNames is the final, sorted section ordering assigned by
	// listprocessor's "assign sections" stage, always ending in "Misc"
	// when sections are used at all (spec §4.7 stage 7).
	SectionNames []string

	// RedlinkExists caches page-existence lookups keyed by title, filled
	// by listprocessor's "redlinks caching" stage (spec §4.7 stage 4).
	RedlinkExists map[string]bool

	// ShadowFiles collects filenames removed by the shadow-image filter
	// (spec §4.7 stage 5), rendered as a footer by the renderer.
	ShadowFiles []string

	// Changed records whether any stage mutated state in a way that
	// should trigger a purge even when the rendered text is unchanged
	// (spec §4.9 "if any internal state flagged changes").
	Changed bool

	// ShadowImagesOn and LocationRegionsOn mirror config.Configuration's
	// per-wiki feature toggles (spec §6 "shadow_images_check",
	// "location_regions"), resolved once by the caller at List
	// construction time.
	ShadowImagesOn    bool
	LocationRegionsOn bool

	// LocationTemplate is the configured "$LAT$/$LON$/$ITEM$/$REGION$"
	// template for rendering Location parts (spec §6
	// "location_templates"); empty means the renderer falls back to a
	// plain "lat/lon (region)" rendering.
	LocationTemplate string
}

// New builds a List ready for row generation.
func New(wiki, wikibase, language, defaultLanguage string, thumbSize int, table *sparqltable.Table, columns []column.Column, params template.Parameters, cache *entitycache.Cache, wikiClient *wikiapi.Client) *List {
	return &List{
		Wiki:            wiki,
		Wikibase:        wikibase,
		Language:        language,
		DefaultLanguage: defaultLanguage,
		ThumbSize:       thumbSize,
		Table:           table,
		Columns:         columns,
		Params:          params,
		Cache:           cache,
		WikiClient:      wikiClient,
		RedlinkExists:   map[string]bool{},
	}
}

// WithFeatureToggles sets the per-wiki feature toggles resolved from
// configuration (spec §6); returns l for chaining at construction time.
func (l *List) WithFeatureToggles(shadowImagesOn, locationRegionsOn bool, locationTemplate string) *List {
	l.ShadowImagesOn = shadowImagesOn
	l.LocationRegionsOn = locationRegionsOn
	l.LocationTemplate = locationTemplate
	return l
}

// driverIDs returns the distinct entity ids of the table's main column, in
// first-appearance order.
func (l *List) driverIDs() ([]string, errors.E) {
	mainCol := l.Table.MainColumn()
	if mainCol < 0 {
		return nil, errors.Errorf("sparql result has no item variable")
	}
	var ids []string
	seen := map[string]bool{}
	for i := 0; i < l.Table.Len(); i++ {
		row, errE := l.Table.Row(i)
		if errE != nil {
			return nil, errE
		}
		v := row[mainCol]
		if v.Kind != sparql.KindEntity || seen[v.EntityID] {
			continue
		}
		seen[v.EntityID] = true
		ids = append(ids, v.EntityID)
	}
	return ids, nil
}

// Load loads the driver entities (the rows' main-column ids) plus every
// property/qualifier id referenced by a column without an explicit label
// into the entity cache, then resolves those columns' labels (spec §4.1
// "derived from the entity labels of the property IDs involved, joined
// with '/'"; grounded on the original implementation's
// Column::generate_label and ListeriaList::get_label_with_fallback).
// Loading both sets together is a prerequisite for GenerateRows: building
// a Property/Label cell for an id requires the entity already be cached
// (spec §4.5/§4.6).
func (l *List) Load(ctx context.Context) errors.E {
	ids, errE := l.driverIDs()
	if errE != nil {
		return errE
	}
	ids = append(ids, l.columnLabelIDs()...)
	if errE := l.Cache.LoadEntities(ctx, ids); errE != nil {
		return errE
	}
	l.resolveColumnLabels()
	return nil
}

// columnLabelIDs returns the distinct property ids needed to resolve the
// fallback label of every column that has no explicit label.
func (l *List) columnLabelIDs() []string {
	var ids []string
	for _, col := range l.Columns {
		if col.HasLabel {
			continue
		}
		switch col.Type.Kind {
		case column.Property:
			ids = append(ids, col.Type.Property)
		case column.PropertyQualifier:
			ids = append(ids, col.Type.Property, col.Type.Qualifier)
		case column.PropertyQualifierValue:
			ids = append(ids, col.Type.Property, col.Type.Qualifier)
		}
	}
	return ids
}

// resolveColumnLabels fills in the label of every column without an
// explicit one, joining the cached labels of the property ids involved
// with "/", matching Column::generate_label.
func (l *List) resolveColumnLabels() {
	labelOf := func(id string) string {
		if label := entitycache.Label(l.Cache.GetEntity(id), l.Language, l.DefaultLanguage); label != "" {
			return label
		}
		return id
	}
	for i := range l.Columns {
		col := &l.Columns[i]
		if col.HasLabel {
			continue
		}
		switch col.Type.Kind {
		case column.Property:
			col.Label = labelOf(col.Type.Property)
		case column.PropertyQualifier, column.PropertyQualifierValue:
			col.Label = labelOf(col.Type.Property) + "/" + labelOf(col.Type.Qualifier)
		}
	}
}
