package wdlists

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/autodesc"
	"gitlab.com/wdlists/wdlists/internal/config"
	"gitlab.com/wdlists/wdlists/internal/sparqlrunner"
	"gitlab.com/wdlists/wdlists/internal/sparqltable"
	"gitlab.com/wdlists/wdlists/internal/wikiapi"
	"gitlab.com/wdlists/wdlists/internal/wikiregistry"
	"gitlab.com/wdlists/wdlists/internal/worker"
)

// defaultCommonsURL is where Special:TabularData publishing always goes,
// regardless of which wiki or knowledge graph a Worker otherwise talks to
// (spec §4.8 "tabbed_data"). Shadow-file checks (spec §4.7 stage 5) use
// the page's own wiki client instead.
const defaultCommonsURL = "https://commons.wikimedia.org"

// bot bundles the process-wide singletons every per-wiki Worker shares:
// one entity client against the configured knowledge graph, the SPARQL
// runners, the autodesc client, and the wiki registry that hands out
// per-wiki API clients (spec §5 "Shared state").
type bot struct {
	cfg      *config.Configuration
	registry *wikiregistry.Registry

	entityClient  *wikiapi.Client
	commonsClient *wikiapi.Client

	sparqlRunner *sparqlrunner.Runner
	regionRunner *sparqlrunner.Runner

	autodescClient *autodesc.Client
}

// newBot resolves the site matrix once (spec §5, "the site-matrix is
// immutable after startup") and builds every shared dependency a Worker
// needs, grounded on the teacher's populate.go assembling its indexer
// dependencies once at the top of Run.
func newBot(ctx context.Context, cfg *config.Configuration, token string) (*bot, errors.E) {
	apiTimeout := cfg.APITimeoutOrDefault()
	editDelay := cfg.EditDelayOrDefault()

	entityAPI, errE := cfg.APIFor(DefaultEntityWikibase)
	if errE != nil {
		return nil, errE
	}
	entityClient := wikiapi.NewClient(entityAPI, token, apiTimeout, editDelay, true)

	registry, errE := wikiregistry.New(ctx, entityClient, token, apiTimeout, editDelay, true)
	if errE != nil {
		return nil, errE
	}

	permits := sparqlrunner.NewGlobalPermits(cfg.MaxSPARQLRunningOrDefault())
	sparqlRunner := sparqlrunner.New(cfg.DefaultSPARQLEndpointOrDefault(), apiTimeout, permits, sparqltable.DefaultThreshold)
	regionRunner := sparqlrunner.New(cfg.DefaultSPARQLEndpointOrDefault(), apiTimeout, permits, sparqltable.DefaultThreshold)

	commonsClient := wikiapi.NewClient(defaultCommonsURL, token, apiTimeout, editDelay, true)

	return &bot{
		cfg:            cfg,
		registry:       registry,
		entityClient:   entityClient,
		commonsClient:  commonsClient,
		sparqlRunner:   sparqlRunner,
		regionRunner:   regionRunner,
		autodescClient: autodesc.New(),
	}, nil
}

// workerFor builds a Worker for wiki, resolving its wiki API client
// through the registry (spec §5 "Shared state": "readers clone the
// handle; a failed lookup takes the lock, creates, inserts, then
// re-reads").
func (b *bot) workerFor(wiki string) (*worker.Worker, errors.E) {
	wikiClient, errE := b.registry.ClientFor(wiki)
	if errE != nil {
		return nil, errE
	}
	return &worker.Worker{
		Wiki:           wiki,
		WikiClient:     wikiClient,
		EntityClient:   b.entityClient,
		CommonsClient:  b.commonsClient,
		SPARQLRunner:   b.sparqlRunner,
		RegionRunner:   b.regionRunner,
		AutodescClient: b.autodescClient,
		Config:         b.cfg,
	}, nil
}
