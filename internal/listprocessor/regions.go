package listprocessor

import (
	"context"
	"fmt"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/resultcell"
	"gitlab.com/wdlists/wdlists/internal/resultrow"
	"gitlab.com/wdlists/wdlists/internal/sparqlrunner"
	"gitlab.com/wdlists/wdlists/internal/sparqltable"
)

// regionQuery is the ISO-3166-2-up-the-administrative-tree sub-query
// issued per row entity (spec §4.7 stage 8).
const regionQuery = `SELECT ?q ?x { wd:%s wdt:P131* ?q . ?q wdt:P300 ?x }`

// Regions assigns a region string to every Location part of a row, when
// the wiki is configured for location regions (spec §4.7 stage 8). For
// each row containing at least one Location part, it issues regionQuery
// against the row's own entity id, takes the longest ?x literal returned,
// and stamps it onto every Location part in that row.
func Regions(ctx context.Context, l *list.List, regionRunner *sparqlrunner.Runner) errors.E {
	if !l.LocationRegionsOn {
		return nil
	}
	rows := l.Rows.Rows()
	if len(rows) == 0 {
		return nil
	}

	for _, row := range rows {
		if !rowHasLocation(row) {
			continue
		}

		query := fmt.Sprintf(regionQuery, row.EntityID)
		table, errE := regionRunner.Run(ctx, l.WikiClient, query)
		if errE != nil {
			return errors.WithMessagef(errE, "region query for %s", row.EntityID)
		}

		region := longestRegionLiteral(table)
		table.Close() //nolint:errcheck

		if region == "" {
			continue
		}
		visitParts([]*resultrow.Row{row}, func(p *resultcell.Part) {
			if p.Kind == resultcell.Location {
				p.Region = region
			}
		})
	}
	return nil
}

func rowHasLocation(row *resultrow.Row) bool {
	found := false
	visitParts([]*resultrow.Row{row}, func(p *resultcell.Part) {
		if p.Kind == resultcell.Location {
			found = true
		}
	})
	return found
}

// longestRegionLiteral returns the longest ?x value across table's rows,
// ignoring read errors for individual rows (spec §4.7 stage 8 "take the
// longest literal").
func longestRegionLiteral(table *sparqltable.Table) string {
	idx, ok := table.Header()["x"]
	if !ok {
		return ""
	}
	longest := ""
	for i := 0; i < table.Len(); i++ {
		row, errE := table.Row(i)
		if errE != nil || idx >= len(row) {
			continue
		}
		s := rawSparqlString(row[idx])
		if len(s) > len(longest) {
			longest = s
		}
	}
	return longest
}
