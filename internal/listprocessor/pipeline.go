// Package listprocessor implements the ten ordered pipeline stages that
// run over a list.List's generated rows (spec §4.7 "The pipeline"): entity
// gathering, redlink/shadow filtering, localization, sorting, section and
// region assignment, reference resolution and autodescription filling.
// Each stage is a no-op when its inputs are empty, matching the spec's
// blanket "each is a no-op if its inputs are empty" rule.
package listprocessor

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/autodesc"
	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/resultcell"
	"gitlab.com/wdlists/wdlists/internal/resultrow"
	"gitlab.com/wdlists/wdlists/internal/sparqlrunner"
)

// Run executes every stage in spec §4.7 order over l, which must already
// have had GenerateRows called on it.
func Run(ctx context.Context, l *list.List, regionRunner *sparqlrunner.Runner, autodescClient *autodesc.Client) errors.E {
	if errE := GatherAndLoad(ctx, l); errE != nil {
		return errors.WithMessage(errE, "gather-and-load")
	}
	if errE := RedlinksOnlyFilter(l); errE != nil {
		return errors.WithMessage(errE, "redlinks-only filter")
	}
	ItemsToLocalLinks(l)
	if errE := RedlinksCaching(ctx, l); errE != nil {
		return errors.WithMessage(errE, "redlinks caching")
	}
	if errE := ShadowFileFilter(ctx, l); errE != nil {
		return errors.WithMessage(errE, "shadow-file filter")
	}
	Sort(l)
	AssignSections(l)
	if errE := Regions(ctx, l, regionRunner); errE != nil {
		return errors.WithMessage(errE, "regions")
	}
	if errE := ReferenceItems(ctx, l); errE != nil {
		return errors.WithMessage(errE, "reference items")
	}
	if errE := Autodescriptions(ctx, l, autodescClient); errE != nil {
		return errors.WithMessage(errE, "autodescriptions")
	}
	return nil
}

// visitParts calls visit on every top-level part in every row's cells, and
// on every part nested one level inside a SnakList (the only nesting the
// spec's cell model produces).
func visitParts(rows []*resultrow.Row, visit func(p *resultcell.Part)) {
	for _, row := range rows {
		for colIdx := range row.Cells {
			for cellIdx := range row.Cells[colIdx] {
				p := &row.Cells[colIdx][cellIdx].Part
				visit(p)
				for i := range p.Parts {
					visit(&p.Parts[i])
				}
			}
		}
	}
}
