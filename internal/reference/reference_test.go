package reference_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/wdlists/wdlists/internal/reference"
)

func TestEqualityIgnoresHashAndRender(t *testing.T) {
	t.Parallel()

	a := reference.New("http://example.org", "Example", "2024-01-01", "Q328", "Wikidata")
	b := reference.New("http://example.org", "Example", "2024-01-01", "Q328", "Wikidata")
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestDifferentFieldsProduceDifferentHashes(t *testing.T) {
	t.Parallel()

	a := reference.New("http://example.org/a", "Example", "", "", "")
	b := reference.New("http://example.org/b", "Example", "", "", "")
	assert.False(t, a.Equal(b))
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestDedupFirstOccurrenceThenBackReference(t *testing.T) {
	t.Parallel()

	ref := reference.New("http://example.org", "Example", "", "", "")
	d := reference.NewDedup()

	name1, first1 := d.Use(ref)
	assert.True(t, first1)

	name2, first2 := d.Use(ref)
	assert.False(t, first2)
	assert.Equal(t, name1, name2)
}
