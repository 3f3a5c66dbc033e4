package wikiregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/wdlists/wdlists/internal/wikiapi"
)

func TestSiteMatrix_ServerURL(t *testing.T) {
	closed := struct{}{}
	matrix := newSiteMatrix([]wikiapi.SiteMatrixEntry{
		{DBName: "enwiki", URL: "https://en.wikipedia.org"},
		{DBName: "dewiki", URL: "https://de.wikipedia.org"},
		{DBName: "closedwiki", URL: "https://closed.example.org", Closed: &closed},
		{DBName: "wikidatawiki", URL: "https://www.wikidata.org"},
	})

	url, errE := matrix.serverURL("enwiki")
	require.NoError(t, errE)
	assert.Equal(t, "https://en.wikipedia.org", url)

	_, errE = matrix.serverURL("closedwiki")
	assert.Error(t, errE)

	_, errE = matrix.serverURL("nosuchwiki")
	assert.Error(t, errE)
}

func TestSiteMatrix_SpecialCases(t *testing.T) {
	matrix := newSiteMatrix(nil)

	url, errE := matrix.serverURL("be_x_oldwiki")
	require.NoError(t, errE)
	assert.Equal(t, "https://be-tarask.wikipedia.org", url)

	url, errE = matrix.serverURL("metawiki")
	require.NoError(t, errE)
	assert.Equal(t, "https://meta.wikimedia.org", url)
}
