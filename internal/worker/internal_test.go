package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/config"
	"gitlab.com/wdlists/wdlists/internal/wikiapi"
)

func TestClassify(t *testing.T) {
	w := &Worker{}

	assert.Equal(t, DELETED, w.classify(errors.WithStack(wikiapi.ErrPageDeleted)).Status)
	assert.Equal(t, INVALID, w.classify(errors.WithStack(wikiapi.ErrPageInvalid)).Status)
	assert.Equal(t, FAIL, w.classify(errors.New("boom")).Status)
	assert.Equal(t, TRANSLATION, w.classify(errors.New("This page is a translation of the page Foo")).Status)
}

func TestFail(t *testing.T) {
	w := &Worker{}

	result := w.fail(errors.New("connection reset by peer"))
	assert.Equal(t, FAIL, result.Status)
	assert.Equal(t, "104_RESET_BY_PEER", result.Message)
}

func TestNamespaceOf(t *testing.T) {
	cases := []struct {
		title string
		want  int
	}{
		{"Main Page", 0},
		{"Talk:Main Page", 1},
		{"User:Someone", 2},
		{"User talk:Someone", 3},
		{"Template:Infobox", 10},
		{"Template talk:Infobox", 11},
		{"Category:Foo", 14},
		{"File:Foo.png", 6},
		{"image:Foo.png", 6},
		{"Draft:Foo", 118},
		{"Portal:Foo", 100},
		{"Unknown Namespace:Foo", 0},
		{"no colon at all", 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, namespaceOf(c.title), c.title)
	}
}

func TestTabbedDataTitle(t *testing.T) {
	title := tabbedDataTitle("enwiki", "List of things")
	assert.Equal(t, "Data:Listeria/enwiki/List of things.tab", title)

	longTitle := make([]byte, 300)
	for i := range longTitle {
		longTitle[i] = 'a'
	}
	assert.Empty(t, tabbedDataTitle("enwiki", string(longTitle)))
}

func TestResolveTemplateTitles_Literal(t *testing.T) {
	w := &Worker{
		Wiki: "testwiki",
		Config: &config.Configuration{
			Template: config.Template{Start: "Wikidata list", End: "Wikidata list end"},
		},
	}
	start, end, errE := w.resolveTemplateTitles(context.Background())
	assert.NoError(t, errE)
	assert.Equal(t, "Wikidata list", start)
	assert.Equal(t, "Wikidata list end", end)
}

func TestResolveTemplateTitles_Unconfigured(t *testing.T) {
	w := &Worker{
		Wiki:   "testwiki",
		Config: &config.Configuration{},
	}
	_, _, errE := w.resolveTemplateTitles(context.Background())
	assert.Error(t, errE)
}
