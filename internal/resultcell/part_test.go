package resultcell_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/wdlists/wdlists/internal/resultcell"
)

func TestLocalLinkString(t *testing.T) {
	p := resultcell.NewLocalLink("Some Page", "label", resultcell.TargetPage)
	assert.Equal(t, "[[Some Page|label]]", p.String())
}

func TestCategoryLinkString(t *testing.T) {
	p := resultcell.NewLocalLink("Foo", "", resultcell.TargetCategory)
	assert.Equal(t, "[[:Category:Foo|Foo]]", p.String())
}

func TestSnakListString(t *testing.T) {
	p := resultcell.NewSnakList(resultcell.NewText("a"), resultcell.NewText("b"))
	assert.Equal(t, "a — b", p.String())
}

func TestNumberStringUsesOrdinal(t *testing.T) {
	p := resultcell.NewNumber()
	p.Ordinal = 3
	assert.Equal(t, "style='text-align:right'| 3", p.String())
}

func TestTabbedStringSafeTruncates(t *testing.T) {
	p := resultcell.NewText(strings.Repeat("x", 1000))
	safe := p.TabbedStringSafe()
	assert.LessOrEqual(t, len(safe), 380)
	assert.Equal(t, strings.Repeat("x", 380), safe)
}

func TestTabbedStringSafeShortUnaffected(t *testing.T) {
	p := resultcell.NewText("short")
	assert.Equal(t, "short", p.TabbedStringSafe())
}
