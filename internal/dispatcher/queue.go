package dispatcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/jobstore"
	"gitlab.com/wdlists/wdlists/internal/worker"
)

// queuePollInterval is how long QueueDispatcher waits before asking the
// job store for the next page again after finding the queue empty, rather
// than busy-looping against the database.
const queuePollInterval = 5 * time.Second

// QueueDispatcher is the production Source: it pulls pages from the
// persistent job store (spec §4.10, "one that pulls from the persistent
// job store (used in production)"). Next never reports permanent
// exhaustion (ok is always true on success) since the queue is
// replenished continuously by the update-wikis command; it only returns
// once ctx is done.
type QueueDispatcher struct {
	Store  *jobstore.Store
	Logger zerolog.Logger
}

var _ Source = (*QueueDispatcher)(nil)

// Prepare runs the startup recovery steps spec §4.10 requires before the
// main loop starts: reset_running reclaims pages whose worker was killed
// mid-run, clear_deleted drops rows for pages no longer transcluding the
// template.
func (d *QueueDispatcher) Prepare(ctx context.Context) errors.E {
	if errE := d.Store.ResetRunning(ctx); errE != nil {
		return errE
	}
	return d.Store.ClearDeleted(ctx)
}

func (d *QueueDispatcher) Next(ctx context.Context) (Page, bool, errors.E) {
	for {
		page, ok, errE := d.Store.PrepareNextPage(ctx)
		if errE != nil {
			return Page{}, false, errE
		}
		if ok {
			return Page{ID: page.ID, Wiki: page.Wiki, Title: page.Title}, true, nil
		}

		select {
		case <-ctx.Done():
			return Page{}, false, nil
		case <-time.After(queuePollInterval):
		}
	}
}

func (d *QueueDispatcher) Report(ctx context.Context, page Page, result worker.Result, runtime time.Duration) {
	status := jobstore.Status(result.Status.String())
	if errE := d.Store.UpdateStatus(ctx, page.ID, status, result.Message); errE != nil {
		d.Logger.Error().Err(errE).Str("wiki", page.Wiki).Str("page", page.Title).Msg("could not update page status")
	}
	if errE := d.Store.SetRuntime(ctx, page.ID, runtime); errE != nil {
		d.Logger.Error().Err(errE).Str("wiki", page.Wiki).Str("page", page.Title).Msg("could not record page runtime")
	}
}
