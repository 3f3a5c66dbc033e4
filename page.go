package wdlists

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/config"
	"gitlab.com/wdlists/wdlists/internal/worker"
)

// PageCommand processes one page once and prints its outcome, matching
// the spec §6 CLI surface's `page --server S --page P`.
type PageCommand struct {
	Server string `help:"Wiki dbname to process (e.g. \"enwiki\")." placeholder:"WIKI" required:""`
	Page   string `help:"Page title to process."                    placeholder:"TITLE" required:""`
}

// Run loads configuration, processes the one page, and reports OK/ERROR
// to stdout. A non-nil error return is reserved for configuration or I/O
// failure reaching the page at all (spec §6, "Exit codes").
func (c *PageCommand) Run(globals *Globals) errors.E {
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

	w, errE := b.workerFor(c.Server)
	if errE != nil {
		return errE
	}

	result := w.ProcessPage(ctx, c.Page)
	if result.Status == worker.OK {
		fmt.Printf("OK: %s\n", result.Message) //nolint:forbidigo
	} else {
		fmt.Printf("ERROR (%s): %s\n", result.Status, result.Message) //nolint:forbidigo
	}

	return nil
}
