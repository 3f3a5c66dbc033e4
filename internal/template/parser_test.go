package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/wdlists/wdlists/internal/template"
)

func TestParseNestedTemplate(t *testing.T) {
	t.Parallel()

	p, errE := template.Parse(`p1={{cite web|url=x|t=y}}|p2=simple`)
	require.NoError(t, errE)

	v, ok := p.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "{{cite web|url=x|t=y}}", v)

	v, ok = p.Get("p2")
	require.True(t, ok)
	assert.Equal(t, "simple", v)
}

func TestParseQuotedPipe(t *testing.T) {
	t.Parallel()

	p, errE := template.Parse(`a="b|c"`)
	require.NoError(t, errE)

	v, ok := p.Get("a")
	require.True(t, ok)
	assert.Equal(t, `"b|c"`, v)
}

func TestParseUnclosedQuote(t *testing.T) {
	t.Parallel()

	_, errE := template.Parse(`a="b|c`)
	require.ErrorIs(t, errE, template.ErrUnclosedQuote)
}

func TestParsePipeEscape(t *testing.T) {
	t.Parallel()

	p, errE := template.Parse(`a=one{{!}}two`)
	require.NoError(t, errE)

	v, ok := p.Get("a")
	require.True(t, ok)
	assert.Equal(t, "one|two", v)
}

func TestUnparseRoundTrips(t *testing.T) {
	t.Parallel()

	body := `columns=Item,P31|sparql=SELECT ?item {}|sort=LABEL`
	p, errE := template.Parse(body)
	require.NoError(t, errE)
	assert.Equal(t, body, template.Unparse(p))
}
