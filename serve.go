package wdlists

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/config"
	"gitlab.com/wdlists/wdlists/internal/dispatcher"
	"gitlab.com/wdlists/wdlists/internal/jobstore"
	"gitlab.com/wdlists/wdlists/internal/worker"
)

// ServeCommand runs the long-running bot dispatcher, either against the
// persistent job queue or, in "crawl" mode, against a single wiki's
// template transclusions without a database (spec §4.10, §6 "run-as-bot").
//
//nolint:lll
type ServeCommand struct {
	Mode     string `default:"queue" enum:"queue,crawl" help:"Dispatch from the persistent job queue, or crawl a single wiki by template transclusion." placeholder:"MODE"`
	Wiki     string `help:"Wiki dbname to crawl (crawl mode only)."                                                                                      placeholder:"WIKI"`
	Template string `help:"Full template title to crawl transclusions of, e.g. \"Template:Wikidata list\" (crawl mode only)."                            placeholder:"TITLE"`
}

// Validate checks that crawl mode's required flags are present, matching
// the teacher's habit of command-level cross-field Validate methods.
func (c *ServeCommand) Validate() error {
	if c.Mode == "crawl" && (c.Wiki == "" || c.Template == "") {
		return errors.New("crawl mode requires both --wiki and --template")
	}
	return nil
}

func (c *ServeCommand) Run(globals *Globals) errors.E {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, errE := config.Load(globals.Options)
	if errE != nil {
		return errE
	}

	b, errE := newBot(ctx, cfg, string(globals.Token))
	if errE != nil {
		return errE
	}

	source, errE := c.source(ctx, globals, b)
	if errE != nil {
		return errE
	}

	pool := &dispatcher.Pool{
		MaxConcurrent: cfg.MaxThreadsOrDefault(),
		WorkerFor: func(_ context.Context, wiki string) (*worker.Worker, errors.E) {
			return b.workerFor(wiki)
		},
		Logger: globals.Logger,
	}

	errE = pool.Run(ctx, source)
	if errE != nil && errors.Is(errE, context.Canceled) {
		// A graceful shutdown (signal.NotifyContext firing) surfaces here as
		// a cancelled context, not a failure worth a non-zero exit code.
		return nil
	}
	return errE
}

func (c *ServeCommand) source(ctx context.Context, globals *Globals, b *bot) (dispatcher.Source, errors.E) {
	if c.Mode == "crawl" {
		wikiClient, errE := b.registry.ClientFor(c.Wiki)
		if errE != nil {
			return nil, errE
		}
		return &dispatcher.CrawlDispatcher{
			Wiki:     c.Wiki,
			Template: c.Template,
			Client:   wikiClient,
			Logger:   globals.Logger,
		}, nil
	}

	if globals.Database == nil {
		return nil, errors.New("database is required to serve from the persistent queue")
	}
	store, errE := jobstore.NewStore(ctx, string(globals.Database), globals.Logger)
	if errE != nil {
		return nil, errE
	}
	queue := &dispatcher.QueueDispatcher{Store: store, Logger: globals.Logger}
	if errE := queue.Prepare(ctx); errE != nil {
		return nil, errE
	}
	return queue, nil
}
