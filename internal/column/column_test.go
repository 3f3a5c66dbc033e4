package column_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/wdlists/wdlists/internal/column"
)

func TestKeywordColumns(t *testing.T) {
	t.Parallel()

	ct := column.New("label/de")
	assert.Equal(t, column.LabelLang, ct.Kind)
	assert.Equal(t, "de", ct.Lang)
	assert.Equal(t, "language:de", ct.AsKey())

	ct = column.New("P31")
	assert.Equal(t, column.Property, ct.Kind)
	assert.Equal(t, "P31", ct.Property)
	assert.Equal(t, "p31", ct.AsKey())
}

func TestLowerCaseProperty(t *testing.T) {
	t.Parallel()

	ct := column.New("p106")
	assert.Equal(t, column.Property, ct.Kind)
	assert.Equal(t, "P106", ct.Property)
}

func TestPropertyQualifier(t *testing.T) {
	t.Parallel()

	ct := column.New("P39/P580")
	assert.Equal(t, column.PropertyQualifier, ct.Kind)
	assert.Equal(t, "P39", ct.Property)
	assert.Equal(t, "P580", ct.Qualifier)
}

func TestPropertyQualifierValue(t *testing.T) {
	t.Parallel()

	ct := column.New("P39/Q30185/P580")
	assert.Equal(t, column.PropertyQualifierValue, ct.Kind)
	assert.Equal(t, "P39", ct.Property)
	assert.Equal(t, "Q30185", ct.TargetItem)
	assert.Equal(t, "P580", ct.Qualifier)
}

func TestFieldColumn(t *testing.T) {
	t.Parallel()

	ct := column.New("?population")
	assert.Equal(t, column.Field, ct.Kind)
	assert.Equal(t, "POPULATION", ct.Field)
}

func TestUnknownColumn(t *testing.T) {
	t.Parallel()

	ct := column.New("garbage")
	assert.Equal(t, column.Unknown, ct.Kind)
}

func TestDistinctKeysAreUnique(t *testing.T) {
	t.Parallel()

	specs := []string{
		"number", "label", "item", "qid", "description", "description/en,de",
		"label/de", "alias/de", "P31", "P39/P580", "P39/Q30185/P580", "?x", "garbage",
	}
	seen := map[string]bool{}
	for _, s := range specs {
		key := column.New(s).AsKey()
		assert.False(t, seen[key], "duplicate key %q for spec %q", key, s)
		seen[key] = true
	}
}

func TestParseExplicitLabel(t *testing.T) {
	t.Parallel()

	col := column.Parse("P31:instance of")
	assert.Equal(t, "instance of", col.Label)
	assert.True(t, col.HasLabel)
	assert.Equal(t, column.Property, col.Type.Kind)
}

func TestParseListDefault(t *testing.T) {
	t.Parallel()

	cols := column.ParseList("")
	assert.Len(t, cols, 1)
	assert.Equal(t, column.Item, cols[0].Type.Kind)
}
