package worker

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/entitycache"
)

// TemplateTitles is the exported form of resolveTemplateTitles, used by
// the update-wikis command to discover the transclusion target before any
// page has been loaded.
func (w *Worker) TemplateTitles(ctx context.Context) (string, string, errors.E) {
	return w.resolveTemplateTitles(ctx)
}

// resolveTemplateTitles returns this wiki's list-start/list-end template
// titles, per spec §6 "template_start/template_end or the _q variants": a
// literal pair of titles when configured directly, or this wiki's
// sitelink to a pair of knowledge-graph items otherwise.
func (w *Worker) resolveTemplateTitles(ctx context.Context) (string, string, errors.E) {
	if w.Config.Start != "" || w.Config.End != "" {
		return w.Config.Start, w.Config.End, nil
	}
	if w.Config.StartQ == "" || w.Config.EndQ == "" {
		return "", "", errors.Errorf("no list template configured for wiki %q", w.Wiki)
	}

	cache, errE := entitycache.New(w.EntityClient, 2, false) //nolint:mnd
	if errE != nil {
		return "", "", errE
	}
	defer cache.Close() //nolint:errcheck

	if errE := cache.LoadEntities(ctx, []string{w.Config.StartQ, w.Config.EndQ}); errE != nil {
		return "", "", errE
	}

	startTitle, ok := entitycache.Sitelink(cache.GetEntity(w.Config.StartQ), w.Wiki)
	if !ok {
		return "", "", errors.Errorf("no %q sitelink for start template item %s", w.Wiki, w.Config.StartQ)
	}
	endTitle, ok := entitycache.Sitelink(cache.GetEntity(w.Config.EndQ), w.Wiki)
	if !ok {
		return "", "", errors.Errorf("no %q sitelink for end template item %s", w.Wiki, w.Config.EndQ)
	}
	return startTitle, endTitle, nil
}
