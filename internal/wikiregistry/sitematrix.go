// Package wikiregistry resolves a wiki's database name (e.g. "enwiki") to
// its action-API base URL via a one-time site-matrix snapshot, and caches
// the wikiapi.Client built for each wiki so every page dispatched for the
// same wiki reuses one client (spec §4.10 "Wiki registry", §5 "Shared
// state" item 1). Grounded on the original implementation's site_matrix.rs
// and wiki_apis.rs.
package wikiregistry

import (
	"strings"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/wikiapi"
)

// specialServerURLs are the two hardcoded exceptions the original
// implementation carves out of the site-matrix lookup: be-taraskwiki's
// canonical domain differs from its historical aliases, and metawiki is
// absent from the "specials" group entirely.
var specialServerURLs = map[string]string{ //nolint:gochecknoglobals
	"be-taraskwiki": "https://be-tarask.wikipedia.org",
	"be-x-oldwiki":  "https://be-tarask.wikipedia.org",
	"metawiki":      "https://meta.wikimedia.org",
}

// ErrWikiNotFound is returned when a wiki database name is absent from the
// site matrix.
var ErrWikiNotFound = errors.Base("wiki not found in site matrix")

// siteMatrix is the immutable dbname -> server URL snapshot (spec §5 "the
// site-matrix is immutable after startup").
type siteMatrix struct {
	serverURLs map[string]string
}

func newSiteMatrix(entries []wikiapi.SiteMatrixEntry) *siteMatrix {
	serverURLs := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.Closed != nil || entry.Private != nil {
			continue
		}
		if entry.DBName == "" || entry.URL == "" {
			continue
		}
		serverURLs[entry.DBName] = entry.URL
	}
	return &siteMatrix{serverURLs: serverURLs}
}

func (m *siteMatrix) serverURL(wiki string) (string, errors.E) {
	key := strings.ReplaceAll(wiki, "_", "-")
	if url, ok := specialServerURLs[key]; ok {
		return url, nil
	}
	if url, ok := m.serverURLs[wiki]; ok {
		return url, nil
	}
	return "", errors.Errorf("%w: %q", ErrWikiNotFound, wiki)
}
