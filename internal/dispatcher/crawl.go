package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/wikiapi"
	"gitlab.com/wdlists/wdlists/internal/worker"
)

// CrawlDispatcher is the no-database Source: it enumerates every page
// transcluding the start template on a single wiki via
// internal/wikiapi.ListTransclusions, processes each once, and then
// reports exhaustion (spec §4.10, "one that enumerates pages by
// template-transclusion via paginated API calls... for a single wiki
// without a database").
type CrawlDispatcher struct {
	Wiki     string
	Template string // full "Template:Name" title

	Client *wikiapi.Client
	Logger zerolog.Logger

	once    sync.Once
	pages   chan wikiapi.PageRef
	listErr errors.E
	listMu  sync.Mutex
}

var _ Source = (*CrawlDispatcher)(nil)

func (d *CrawlDispatcher) start(ctx context.Context) {
	d.pages = make(chan wikiapi.PageRef)
	go func() {
		defer close(d.pages)
		errE := d.Client.ListTransclusions(ctx, d.Template, d.pages)
		d.listMu.Lock()
		d.listErr = errE
		d.listMu.Unlock()
	}()
}

func (d *CrawlDispatcher) Next(ctx context.Context) (Page, bool, errors.E) {
	d.once.Do(func() { d.start(ctx) })

	select {
	case ref, ok := <-d.pages:
		if !ok {
			d.listMu.Lock()
			errE := d.listErr
			d.listMu.Unlock()
			return Page{}, false, errE
		}
		return Page{Wiki: d.Wiki, Title: ref.Title}, true, nil
	case <-ctx.Done():
		return Page{}, false, nil
	}
}

func (d *CrawlDispatcher) Report(_ context.Context, page Page, result worker.Result, runtime time.Duration) {
	d.Logger.Info().
		Str("wiki", page.Wiki).
		Str("page", page.Title).
		Str("status", result.Status.String()).
		Str("message", result.Message).
		Dur("runtime", runtime).
		Msg("page processed")
}
