// Package resultrow implements ResultRow and the Results accumulator
// (spec §3 "Result row", "Results accumulator"): a column-by-column
// assembly of cell parts for one entity, and the append-mutate-retain
// sequence of rows the list processor mutates in place.
package resultrow

import "gitlab.com/wdlists/wdlists/internal/resultcell"

// Row is {entity-id, cells[], section-id, sortkey, keep-flag} per spec §3.
// Invariant: len(Cells) == number of columns for the owning List.
type Row struct {
	EntityID string
	Cells    [][]resultcell.PartWithReference

	SectionID int
	SortKey   string

	Keep bool
}

// New builds a Row with the given entity id and column count, all cells
// empty, Keep defaulting to true (dropped only by an explicit filter
// stage, spec §4.7 stage 2).
func New(entityID string, numColumns int) *Row {
	return &Row{
		EntityID: entityID,
		Cells:    make([][]resultcell.PartWithReference, numColumns),
		Keep:     true,
	}
}
