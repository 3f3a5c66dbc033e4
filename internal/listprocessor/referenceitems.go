package listprocessor

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/entitycache"
	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/reference"
)

// ReferenceItems batch-loads every "stated in" entity referenced by a
// row's cells so that their labels are available at render time, then
// rebuilds each Reference in place with the resolved label (spec §4.7
// stage 9). References are immutable values, built eagerly during row
// generation with whatever label was already cached (internal/list's
// buildReferences); this stage is what makes a "stated in" label that
// arrived after row generation still show up in the rendered page.
func ReferenceItems(ctx context.Context, l *list.List) errors.E {
	rows := l.Rows.Rows()
	if len(rows) == 0 {
		return nil
	}

	ids := mapset.NewThreadUnsafeSet[string]()
	for _, row := range rows {
		for colIdx := range row.Cells {
			for cellIdx := range row.Cells[colIdx] {
				for _, ref := range row.Cells[colIdx][cellIdx].References {
					if ref.StatedIn != "" {
						ids.Add(ref.StatedIn)
					}
				}
			}
		}
	}
	if ids.Cardinality() == 0 {
		return nil
	}
	if errE := l.Cache.LoadEntities(ctx, ids.ToSlice()); errE != nil {
		return errE
	}

	for _, row := range rows {
		for colIdx := range row.Cells {
			for cellIdx := range row.Cells[colIdx] {
				pwr := &row.Cells[colIdx][cellIdx]
				for i, ref := range pwr.References {
					if ref.StatedIn == "" {
						continue
					}
					label := entitycache.Label(l.Cache.GetEntity(ref.StatedIn), l.Language, l.DefaultLanguage)
					pwr.References[i] = reference.New(ref.URL, ref.Title, ref.AccessDate, ref.StatedIn, label)
				}
			}
		}
	}
	return nil
}
