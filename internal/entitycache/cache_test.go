package entitycache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/tozd/go/mediawiki"

	"gitlab.com/wdlists/wdlists/internal/entitycache"
)

func TestGetFilteredClaimsPrefersPreferred(t *testing.T) {
	entity := &mediawiki.Entity{
		ID: "Q42",
		Claims: map[string][]mediawiki.Statement{
			"P21": {
				{ID: "Q42$1", Rank: mediawiki.Normal},
				{ID: "Q42$2", Rank: mediawiki.Preferred},
				{ID: "Q42$3", Rank: mediawiki.Deprecated},
			},
		},
	}

	got := entitycache.GetFilteredClaims(entity, "P21")
	assert.Len(t, got, 1)
	assert.Equal(t, "Q42$2", got[0].ID)
}

func TestGetFilteredClaimsNoPreferredReturnsAll(t *testing.T) {
	entity := &mediawiki.Entity{
		ID: "Q42",
		Claims: map[string][]mediawiki.Statement{
			"P21": {
				{ID: "Q42$1", Rank: mediawiki.Normal},
				{ID: "Q42$3", Rank: mediawiki.Deprecated},
			},
		},
	}

	got := entitycache.GetFilteredClaims(entity, "P21")
	assert.Len(t, got, 2)
}
