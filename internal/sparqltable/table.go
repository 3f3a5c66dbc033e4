// Package sparqltable implements the streaming, optionally disk-spilled
// table of SPARQL result rows (spec §3 "SPARQL table"): an ordered sequence
// of rows plus a header map from variable name to column index and an
// optional main (driver) column.
//
// Rows held in memory are kept as-is. Once the row count passes Threshold,
// every row (old and new) is serialized to JSON and appended to a shared
// internal/blockstore.Store; Row(i) then reads the bytes back and decodes
// them. This mirrors the teacher's Downloader, which switches a stream from
// buffered to file-backed once it outgrows a size limit.
package sparqltable

import (
	"encoding/json"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/blockstore"
	"gitlab.com/wdlists/wdlists/internal/sparql"
)

// DefaultThreshold is small so tests can exercise the spill path without
// constructing thousands of rows. Production callers may pass a larger
// value to NewWithThreshold.
const DefaultThreshold = 5

// Row is one row of SPARQL values, in column order.
type Row []sparql.Value

// Table is an ordered, optionally disk-spilled sequence of Rows.
type Table struct {
	header     map[string]int
	mainColumn int // -1 if unset

	threshold int
	memory    []Row
	store     *blockstore.Store
	refs      []blockstore.Ref // valid only once spilled
	spilled   bool
	count     int
}

// New creates an empty table from an ordered list of variable names. The
// index of mainVar in vars becomes the main column (the last one, if vars
// repeats it); pass "" if there is none.
func New(vars []string, mainVar string) *Table {
	return NewWithThreshold(vars, mainVar, DefaultThreshold)
}

// NewWithThreshold is New with an explicit spill threshold.
func NewWithThreshold(vars []string, mainVar string, threshold int) *Table {
	header := make(map[string]int, len(vars))
	mainColumn := -1
	for i, v := range vars {
		header[v] = i
		if v == mainVar {
			mainColumn = i
		}
	}
	return &Table{
		header:     header,
		mainColumn: mainColumn,
		threshold:  threshold,
	}
}

// Header returns the variable-name to column-index map.
func (t *Table) Header() map[string]int {
	return t.header
}

// MainColumn returns the resolved main (driver) column index, or -1 if the
// table has none.
func (t *Table) MainColumn() int {
	return t.mainColumn
}

// Len returns the number of rows appended so far.
func (t *Table) Len() int {
	return t.count
}

// Append adds a row to the table, spilling to disk once the threshold is
// crossed. The row's arity must equal the header's column count.
func (t *Table) Append(row Row) errors.E {
	if len(row) != len(t.header) {
		return errors.Errorf("row has %d values, header has %d columns", len(row), len(t.header))
	}

	if !t.spilled && t.count+1 > t.threshold {
		if errE := t.spillToDisk(); errE != nil {
			return errE
		}
	}

	if t.spilled {
		ref, errE := t.appendSpilled(row)
		if errE != nil {
			return errE
		}
		t.refs = append(t.refs, ref)
	} else {
		t.memory = append(t.memory, row)
	}
	t.count++
	return nil
}

// Row returns the row at index i, transparently reading from memory or
// disk depending on whether the table has spilled.
func (t *Table) Row(i int) (Row, errors.E) {
	if i < 0 || i >= t.count {
		return nil, errors.Errorf("row index %d out of range [0,%d)", i, t.count)
	}
	if !t.spilled {
		return t.memory[i], nil
	}
	data, errE := t.store.Read(t.refs[i])
	if errE != nil {
		return nil, errE
	}
	var row Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, errors.WithStack(err)
	}
	return row, nil
}

// Close releases the backing block store, if one was created.
func (t *Table) Close() error {
	if t.store != nil {
		return t.store.Close()
	}
	return nil
}

func (t *Table) spillToDisk() errors.E {
	store, errE := blockstore.New("", "sparqltable-*")
	if errE != nil {
		return errE
	}
	t.store = store
	t.spilled = true

	refs := make([]blockstore.Ref, 0, len(t.memory))
	for _, row := range t.memory {
		ref, errE := t.appendSpilled(row)
		if errE != nil {
			return errE
		}
		refs = append(refs, ref)
	}
	t.refs = refs
	t.memory = nil
	return nil
}

func (t *Table) appendSpilled(row Row) (blockstore.Ref, errors.E) {
	data, err := json.Marshal(row)
	if err != nil {
		return blockstore.Ref{}, errors.WithStack(err)
	}
	return t.store.Append(data)
}
