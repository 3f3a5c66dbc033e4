package sparqltable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/wdlists/wdlists/internal/sparql"
	"gitlab.com/wdlists/wdlists/internal/sparqltable"
)

func TestHeaderAndMainColumn(t *testing.T) {
	t.Parallel()

	tbl := sparqltable.New([]string{"item", "label"}, "item")
	defer tbl.Close() //nolint:errcheck

	assert.Equal(t, 0, tbl.Header()["item"])
	assert.Equal(t, 1, tbl.Header()["label"])
	assert.Equal(t, 0, tbl.MainColumn())
}

func TestAppendRejectsWrongArity(t *testing.T) {
	t.Parallel()

	tbl := sparqltable.New([]string{"item", "label"}, "item")
	defer tbl.Close() //nolint:errcheck

	errE := tbl.Append(sparqltable.Row{{Kind: sparql.KindEntity, EntityID: "Q1"}})
	require.Error(t, errE)
}

func TestSpillPreservesReadsAcrossThreshold(t *testing.T) {
	t.Parallel()

	tbl := sparqltable.NewWithThreshold([]string{"item"}, "item", 3)
	defer tbl.Close() //nolint:errcheck

	for i := 0; i < 10; i++ {
		row := sparqltable.Row{{Kind: sparql.KindEntity, EntityID: entityID(i)}}
		require.NoError(t, tbl.Append(row))
	}
	assert.Equal(t, 10, tbl.Len())

	for i := 0; i < 10; i++ {
		row, errE := tbl.Row(i)
		require.NoError(t, errE)
		assert.Equal(t, entityID(i), row[0].EntityID)
	}
}

func TestRowOutOfRange(t *testing.T) {
	t.Parallel()

	tbl := sparqltable.New([]string{"item"}, "item")
	defer tbl.Close() //nolint:errcheck

	_, errE := tbl.Row(0)
	require.Error(t, errE)
}

func entityID(i int) string {
	return "Q" + string(rune('0'+i))
}
