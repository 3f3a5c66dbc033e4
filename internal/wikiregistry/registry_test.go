package wikiregistry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/wdlists/wdlists/internal/wikiapi"
)

func TestRegistry_ClientFor_CachesAndReuses(t *testing.T) {
	r := &Registry{
		matrix: newSiteMatrix([]wikiapi.SiteMatrixEntry{
			{DBName: "enwiki", URL: "https://en.wikipedia.org"},
		}),
		apiTimeout: time.Second,
		editDelay:  time.Millisecond,
		clients:    map[string]*wikiapi.Client{},
	}

	client1, errE := r.ClientFor("enwiki")
	require.NoError(t, errE)
	require.NotNil(t, client1)
	assert.Equal(t, 1, r.Len())

	client2, errE := r.ClientFor("enwiki")
	require.NoError(t, errE)
	assert.Same(t, client1, client2)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ClientFor_UnknownWiki(t *testing.T) {
	r := &Registry{
		matrix:  newSiteMatrix(nil),
		clients: map[string]*wikiapi.Client{},
	}

	_, errE := r.ClientFor("nosuchwiki")
	assert.Error(t, errE)
	assert.Equal(t, 0, r.Len())
}
