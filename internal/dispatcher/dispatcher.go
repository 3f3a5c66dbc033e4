// Package dispatcher owns the bounded worker pool that drives
// internal/worker across many pages concurrently, plus the liveness
// watchdog that terminates the process if no page has been dispatched in
// too long (spec §4.10). Grounded on the teacher's
// internal/indexer/download.go: an errgroup.WithContext paired with an
// explicit cancel, and a notify.Var used as a "latest value + wake
// waiters" signal between the producer (here, the dispatch loop pulsing
// the watchdog) and a consumer goroutine.
package dispatcher

import (
	"context"
	"time"

	"github.com/cockroachdb/field-eng-powertools/notify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"gitlab.com/wdlists/wdlists/internal/worker"
)

// DefaultInactivityLimit is MAX_INACTIVITY_BEFORE_SEPPUKU_SEC (spec §4.10).
const DefaultInactivityLimit = 240 * time.Second

// ErrInactive is returned by Pool.Run when the watchdog fires.
var ErrInactive = errors.Base("no page dispatched within the inactivity limit")

// Page is one unit of work a Source hands the pool: a wiki and a page
// title, plus an opaque ID a Source can use to correlate Report calls back
// to its own bookkeeping (a pagestatus row id for QueueDispatcher; unused,
// left zero, for CrawlDispatcher).
type Page struct {
	ID    int64
	Wiki  string
	Title string
}

// Source is what a concrete dispatcher implements: a way to pull the next
// page to process, and a way to record the outcome.
type Source interface {
	// Next blocks until a page is ready, the source is permanently
	// exhausted (ok=false, errE=nil), or ctx is done.
	Next(ctx context.Context) (page Page, ok bool, errE errors.E)
	// Report records the outcome of running page. Called exactly once per
	// Page returned by Next with ok=true.
	Report(ctx context.Context, page Page, result worker.Result, runtime time.Duration)
}

// Pool runs a Source to completion, processing up to MaxConcurrent pages
// at a time and self-terminating if InactivityLimit elapses between
// dispatches (spec §4.10, §5 "Bounded resources" row "Concurrent pages").
type Pool struct {
	// MaxConcurrent is max_threads (spec §5, default 8): the counted
	// semaphore seeded at startup.
	MaxConcurrent int

	// WorkerFor builds or reuses the per-wiki worker.Worker for wiki (spec
	// §4.10 step 2, "build or reuse a per-wiki worker").
	WorkerFor func(ctx context.Context, wiki string) (*worker.Worker, errors.E)

	// InactivityLimit overrides DefaultInactivityLimit when non-zero.
	InactivityLimit time.Duration

	Logger zerolog.Logger
}

// Run pulls pages from source until it is exhausted, dispatching each onto
// a bounded pool of goroutines, and returns once every in-flight page has
// finished. It returns ErrInactive if the watchdog fires first.
func (p *Pool) Run(ctx context.Context, source Source) errors.E {
	limit := p.InactivityLimit
	if limit == 0 {
		limit = DefaultInactivityLimit
	}

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	pulse := notify.VarOf[time.Time](time.Now())

	g.Go(func() error {
		return watch(gctx, cancel, pulse, limit)
	})

	permits := make(chan struct{}, p.MaxConcurrent)

	dispatchErr := func() errors.E {
		for {
			page, ok, errE := source.Next(gctx)
			if errE != nil {
				return errE
			}
			if !ok {
				return nil
			}

			select {
			case permits <- struct{}{}:
			case <-gctx.Done():
				return errors.WithStack(gctx.Err())
			}

			pulse.Set(time.Now())

			g.Go(func() error {
				defer func() { <-permits }()
				p.runPage(gctx, source, page)
				return nil
			})
		}
	}()

	if dispatchErr != nil {
		// A real error (or ctx cancellation) on the dispatch loop itself: cut
		// in-flight pages short rather than waiting for a pool that may never
		// free up. On clean exhaustion (dispatchErr == nil), gctx is left
		// live here; the deferred cancel() above only runs after every
		// in-flight page has finished, matching Run's own doc comment.
		cancel()
	}

	waitErr := g.Wait()
	if waitErr != nil {
		// The watchdog's ErrInactive, if it fired, surfaces here; it is the
		// reason gctx was cancelled and so takes priority over the
		// resulting context.Canceled that dispatchErr would otherwise
		// carry.
		return errors.WithStack(waitErr)
	}
	if dispatchErr != nil {
		return dispatchErr
	}
	return nil
}

func (p *Pool) runPage(ctx context.Context, source Source, page Page) {
	start := time.Now()

	w, errE := p.WorkerFor(ctx, page.Wiki)
	var result worker.Result
	if errE != nil {
		p.Logger.Error().Err(errE).Str("wiki", page.Wiki).Msg("could not obtain worker")
		result = worker.Result{Status: worker.FAIL, Message: "could not obtain worker: " + errE.Error()}
	} else {
		result = w.ProcessPage(ctx, page.Title)
	}

	source.Report(ctx, page, result, time.Since(start))
}

// watch cancels cancel once limit elapses without an update to pulse.
func watch(ctx context.Context, cancel context.CancelFunc, pulse *notify.Var[time.Time], limit time.Duration) error {
	last, updated := pulse.Get()
	timer := time.NewTimer(time.Until(last.Add(limit)))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-updated:
			last, updated = pulse.Get()
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(time.Until(last.Add(limit)))
		case <-timer.C:
			cancel()
			return errors.WithStack(ErrInactive)
		}
	}
}
