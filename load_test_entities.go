package wdlists

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gitlab.com/tozd/go/errors"
	"gitlab.com/tozd/go/mediawiki"

	"gitlab.com/wdlists/wdlists/internal/config"
	"gitlab.com/wdlists/wdlists/internal/entitycache"
	"gitlab.com/wdlists/wdlists/internal/wikiapi"
)

// fixtureEntities are a handful of well-known Wikidata items covering the
// shapes every rendering stage needs to see at least once (human, dates,
// coordinates, external ids); grounded on the original implementation's
// main_commands.rs load_test_entities, which reads a fixed list from
// "test_data/entities.tab" and always appends Q3/Q4.
var fixtureEntities = []string{ //nolint:gochecknoglobals
	"Q42", "Q5", "Q2095", "Q811979", "Q3", "Q4",
}

// LoadTestEntitiesCommand fetches LoadTestEntitiesCommand.Entities (plus
// the fixed fixtureEntities set) from the configured knowledge graph and
// dumps them as a JSON object keyed by entity id, for use as offline test
// fixtures (spec §6, "load-test-entities").
type LoadTestEntitiesCommand struct {
	Entities []string `help:"Additional knowledge-graph item ids to dump." placeholder:"QID" sep:","`
}

func (c *LoadTestEntitiesCommand) Run(globals *Globals) errors.E {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, errE := config.Load(globals.Options)
	if errE != nil {
		return errE
	}

	entityAPI, errE := cfg.APIFor(DefaultEntityWikibase)
	if errE != nil {
		return errE
	}
	client := wikiapi.NewClient(entityAPI, string(globals.Token), cfg.APITimeoutOrDefault(), cfg.EditDelayOrDefault(), false)

	ids := make([]string, 0, len(c.Entities)+len(fixtureEntities))
	ids = append(ids, c.Entities...)
	ids = append(ids, fixtureEntities...)

	cache, errE := entitycache.New(client, len(ids)+1, cfg.PreferPreferred)
	if errE != nil {
		return errE
	}
	defer cache.Close() //nolint:errcheck

	if errE := cache.LoadEntities(ctx, ids); errE != nil {
		return errE
	}

	out := map[string]*mediawiki.Entity{}
	for _, id := range ids {
		if entity := cache.GetEntity(id); entity != nil {
			out[id] = entity
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	fmt.Println(string(data)) //nolint:forbidigo

	return nil
}
