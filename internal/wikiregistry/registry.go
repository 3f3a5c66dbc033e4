package wikiregistry

import (
	"context"
	"sync"
	"time"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/wikiapi"
)

// Registry resolves a wiki database name to a cached wikiapi.Client,
// creating one on first use and reusing it for every subsequent page on
// that wiki. Mirrors the original implementation's WikiApis: readers take
// the lock, check the cache, and on a miss create-insert-reread under the
// same lock rather than racing two creations for the same wiki (spec §5
// "Shared state" item 1).
type Registry struct {
	matrix *siteMatrix
	token  string

	apiTimeout time.Duration
	editDelay  time.Duration
	isBot      bool

	mu      sync.Mutex
	clients map[string]*wikiapi.Client
}

// New builds a Registry from a knowledge-graph client used only to fetch
// the one-time site-matrix snapshot (spec §5 "the site-matrix is immutable
// after startup"). token is the OAuth2/bot token applied to every
// per-wiki client; apiTimeout/editDelay/isBot are forwarded to
// wikiapi.NewClient for each wiki.
func New(ctx context.Context, wikibaseClient *wikiapi.Client, token string, apiTimeout, editDelay time.Duration, isBot bool) (*Registry, errors.E) {
	entries, errE := wikibaseClient.SiteMatrix(ctx)
	if errE != nil {
		return nil, errE
	}

	return &Registry{
		matrix:     newSiteMatrix(entries),
		token:      token,
		apiTimeout: apiTimeout,
		editDelay:  editDelay,
		isBot:      isBot,
		clients:    map[string]*wikiapi.Client{},
	}, nil
}

// ClientFor returns the cached wikiapi.Client for wiki, building and
// caching one on first use.
func (r *Registry) ClientFor(wiki string) (*wikiapi.Client, errors.E) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[wiki]; ok {
		return client, nil
	}

	serverURL, errE := r.matrix.serverURL(wiki)
	if errE != nil {
		return nil, errE
	}

	client := wikiapi.NewClient(serverURL, r.token, r.apiTimeout, r.editDelay, r.isBot)
	r.clients[wiki] = client
	return client, nil
}

// Len reports how many per-wiki clients have been created so far, the
// "concurrent wiki API handles" count spec §5's bounded-resources table
// tracks against max_mw_apis_total.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
