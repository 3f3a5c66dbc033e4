package listprocessor

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/entitycache"
	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/resultcell"
	"gitlab.com/wdlists/wdlists/internal/template"
)

// redlinkConcurrency bounds the number of simultaneous page-existence
// batches per list (spec §5 "Concurrent redlink existence checks per
// list").
const redlinkConcurrency = 5

// RedlinksCaching collects the distinct labels of entities that remained
// unlocalized (no sitelink to the current wiki) after stage 3, and
// batch-queries their page existence so the renderer can color them red
// or blue, when links=RED or RED_ONLY (spec §4.7 stage 4).
func RedlinksCaching(ctx context.Context, l *list.List) errors.E {
	if l.Params.Links != template.LinksRed && l.Params.Links != template.LinksRedOnly {
		return nil
	}
	rows := l.Rows.Rows()
	if len(rows) == 0 {
		return nil
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	visitParts(rows, func(p *resultcell.Part) {
		if p.Kind != resultcell.Entity || !p.TryLocalize {
			return
		}
		entity := l.Cache.GetEntity(p.EntityID)
		label := entitycache.Label(entity, l.Language, l.DefaultLanguage)
		if label != "" {
			seen.Add(label)
		}
	})
	titles := seen.ToSlice()
	if len(titles) == 0 {
		return nil
	}

	chunk := l.WikiClient.BatchSize()
	var batches [][]string
	for i := 0; i < len(titles); i += chunk {
		end := i + chunk
		if end > len(titles) {
			end = len(titles)
		}
		batches = append(batches, titles[i:end])
	}

	results := make([]map[string]bool, len(batches))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(redlinkConcurrency)
	for i, batch := range batches {
		i, batch := i, batch
		group.Go(func() error {
			exists, errE := l.WikiClient.PagesExist(groupCtx, batch)
			if errE != nil {
				return errE
			}
			results[i] = exists
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		errE, ok := err.(errors.E) //nolint:errorlint
		if ok {
			return errE
		}
		return errors.WithStack(err)
	}

	for _, m := range results {
		for title, exists := range m {
			l.RedlinkExists[title] = exists
		}
	}
	return nil
}
