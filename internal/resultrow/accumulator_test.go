package resultrow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/wdlists/wdlists/internal/resultrow"
)

func TestKeepMarkedPreservesOrder(t *testing.T) {
	acc := resultrow.NewAccumulator()
	r1 := resultrow.New("Q1", 0)
	r2 := resultrow.New("Q2", 0)
	r2.Keep = false
	r3 := resultrow.New("Q3", 0)
	acc.Append(r1)
	acc.Append(r2)
	acc.Append(r3)

	acc.KeepMarked()

	require := assert.New(t)
	require.Equal(2, acc.Len())
	require.Equal("Q1", acc.At(0).EntityID)
	require.Equal("Q3", acc.At(1).EntityID)
}

func TestSortByStableWithNumericTieBreak(t *testing.T) {
	acc := resultrow.NewAccumulator()
	rows := []*resultrow.Row{
		{EntityID: "Q10", SortKey: "A"},
		{EntityID: "Q2", SortKey: "A"},
		{EntityID: "Q3", SortKey: "B"},
	}
	for _, r := range rows {
		acc.Append(r)
	}

	less := func(a, b *resultrow.Row) bool {
		if a.SortKey != b.SortKey {
			return a.SortKey < b.SortKey
		}
		return numericID(a.EntityID) < numericID(b.EntityID)
	}
	acc.SortBy(less)

	got := []string{acc.At(0).EntityID, acc.At(1).EntityID, acc.At(2).EntityID}
	assert.Equal(t, []string{"Q2", "Q10", "Q3"}, got)

	acc.Reverse()
	got = []string{acc.At(0).EntityID, acc.At(1).EntityID, acc.At(2).EntityID}
	assert.Equal(t, []string{"Q3", "Q10", "Q2"}, got)
}

func numericID(id string) int {
	n := 0
	for _, r := range id {
		if r < '0' || r > '9' {
			continue
		}
		n = n*10 + int(r-'0')
	}
	return n
}
