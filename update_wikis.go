package wdlists

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/config"
	"gitlab.com/wdlists/wdlists/internal/entitycache"
	"gitlab.com/wdlists/wdlists/internal/jobstore"
	"gitlab.com/wdlists/wdlists/internal/wikiapi"
)

// UpdateWikisCommand discovers which wikis run the bot from the start
// template item's sitelinks, then syncs each wiki's transcluding pages
// into the job store (spec §6, "update-wikis"; grounded on the original
// implementation's wiki_list.rs update_wiki_list_in_database /
// update_all_wikis).
type UpdateWikisCommand struct{}

func (c *UpdateWikisCommand) Run(globals *Globals) errors.E {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, errE := config.Load(globals.Options)
	if errE != nil {
		return errE
	}
	if cfg.StartQ == "" {
		return errors.New("template_start_q is not configured, update-wikis needs a knowledge-graph item to find monitored wikis")
	}
	if globals.Database == nil {
		return errors.New("database is required for update-wikis")
	}

	store, errE := jobstore.NewStore(ctx, string(globals.Database), globals.Logger)
	if errE != nil {
		return errE
	}
	defer store.Close()

	b, errE := newBot(ctx, cfg, string(globals.Token))
	if errE != nil {
		return errE
	}

	wikis, errE := c.monitoredWikis(ctx, b, cfg.StartQ)
	if errE != nil {
		return errE
	}
	if len(wikis) == 0 {
		return errors.Errorf("%s has no sitelinks, nothing to update", cfg.StartQ)
	}

	for _, wiki := range wikis {
		if errE := c.syncWiki(ctx, b, store, wiki); errE != nil {
			globals.Logger.Error().Err(errE).Str("wiki", wiki).Msg("could not sync wiki")
		}
	}

	return nil
}

// monitoredWikis resolves the set of wikis with a sitelink to the
// configured start-template item.
func (c *UpdateWikisCommand) monitoredWikis(ctx context.Context, b *bot, startQ string) ([]string, errors.E) {
	cache, errE := entitycache.New(b.entityClient, 2, false) //nolint:mnd
	if errE != nil {
		return nil, errE
	}
	defer cache.Close() //nolint:errcheck

	if errE := cache.LoadEntities(ctx, []string{startQ}); errE != nil {
		return nil, errE
	}
	return entitycache.SitelinkWikis(cache.GetEntity(startQ)), nil
}

// syncWiki resolves wiki's list-start template title, lists every page
// transcluding it, and reconciles the job store with the current set
// (spec §4.10, "it enumerates pages by template-transclusion via
// paginated API calls").
func (c *UpdateWikisCommand) syncWiki(ctx context.Context, b *bot, store *jobstore.Store, wiki string) errors.E {
	w, errE := b.workerFor(wiki)
	if errE != nil {
		return errE
	}
	startTitle, _, errE := w.TemplateTitles(ctx)
	if errE != nil {
		return errE
	}

	titles := make([]string, 0, 256) //nolint:mnd
	refs := make(chan wikiapi.PageRef)
	listErrCh := make(chan errors.E, 1)
	go func() {
		defer close(refs)
		listErrCh <- w.WikiClient.ListTransclusions(ctx, startTitle, refs)
	}()
	for ref := range refs {
		titles = append(titles, ref.Title)
	}
	if errE := <-listErrCh; errE != nil {
		return errE
	}

	if errE := store.EnsurePages(ctx, wiki, titles); errE != nil {
		return errE
	}
	return store.PurgeMissing(ctx, wiki, titles)
}
