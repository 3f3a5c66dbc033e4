// Package worker implements the per-page processing described by spec
// §4.9 "Save/purge": fetch a page, render every list template occurrence
// on it, and either edit the page with the new wikitext or purge its
// cache when only internal state changed. Grounded on the teacher's
// populate.go (a single Run entry point that wires its dependencies and
// walks a fixed unit of work to completion, reporting one terminal
// outcome) and the original implementation's listeria_page.rs
// update_source_page/save_wikitext_to_page/purge_page.
package worker

import (
	"context"
	"strings"

	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/autodesc"
	"gitlab.com/wdlists/wdlists/internal/config"
	"gitlab.com/wdlists/wdlists/internal/entitycache"
	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/listprocessor"
	"gitlab.com/wdlists/wdlists/internal/renderer"
	"gitlab.com/wdlists/wdlists/internal/sparqlrunner"
	"gitlab.com/wdlists/wdlists/internal/template"
	"gitlab.com/wdlists/wdlists/internal/wikiapi"
	"gitlab.com/wdlists/wdlists/internal/wikitext"
)

// Status is the outcome taxonomy a dispatcher's job store records for a
// processed page (spec §4.9, §7 "Error handling and propagation").
type Status int

const (
	OK Status = iota
	FAIL
	DELETED
	INVALID
	TRANSLATION
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case DELETED:
		return "DELETED"
	case INVALID:
		return "INVALID"
	case TRANSLATION:
		return "TRANSLATION"
	default:
		return "FAIL"
	}
}

// Result is what ProcessPage produces for the caller to record.
type Result struct {
	Status  Status
	Message string
	Edited  bool
	Purged  bool
}

// editSummary is the fixed edit summary used for every save, matching the
// original implementation's save_wikitext_to_page.
const editSummary = "Wikidata list updated [V2]"

// Worker processes single pages on one wiki (spec §4.9). One Worker is
// built per wiki; its clients and runners are shared across every page it
// processes.
type Worker struct {
	Wiki string

	// WikiClient talks to the wiki the page itself lives on: fetching and
	// saving wikitext, purging, batch existence/imageinfo checks.
	WikiClient *wikiapi.Client

	// EntityClient talks to the knowledge-graph API (e.g. Wikidata) that
	// backs the per-page entity cache and the _q template-title lookup.
	EntityClient *wikiapi.Client

	// CommonsClient talks to Commons, for writing a list's companion
	// Special:TabularData page when tabbed_data=1 is set. Nil disables
	// tabbed-data publishing entirely.
	CommonsClient *wikiapi.Client

	SPARQLRunner   *sparqlrunner.Runner
	RegionRunner   *sparqlrunner.Runner
	AutodescClient *autodesc.Client

	Config *config.Configuration
}

// ProcessPage loads title, renders every list template occurrence on it,
// and saves or purges the page as needed, returning the outcome a job
// store records (spec §4.9).
func (w *Worker) ProcessPage(ctx context.Context, title string) Result {
	if w.Config.NamespaceBlocked(w.Wiki, namespaceOf(title)) {
		return Result{Status: FAIL, Message: "namespace not allowed for edit"}
	}

	startTitle, endTitle, errE := w.resolveTemplateTitles(ctx)
	if errE != nil {
		return w.fail(errE)
	}

	oldText, _, errE := w.WikiClient.GetWikitext(ctx, title)
	if errE != nil {
		return w.classify(errE)
	}

	elements, errE := wikitext.Split(
		oldText, startTitle, endTitle,
		w.Config.PatternStartOrDefault(), w.Config.PatternEndOrDefault(),
	)
	if errE != nil {
		return w.fail(errE)
	}

	anyChanged := false
	for i := range elements {
		el := &elements[i]
		if el.IsJustText {
			continue
		}
		inside, changed, errE := w.renderElement(ctx, title, el.Params)
		if errE != nil {
			return w.classify(errE)
		}
		el.Inside = inside
		anyChanged = anyChanged || changed
	}

	newText := wikitext.Join(elements)

	if newText != oldText {
		token, errE := w.WikiClient.GetCSRFToken(ctx)
		if errE != nil {
			return w.classify(errE)
		}
		if errE := w.WikiClient.Edit(ctx, title, newText, editSummary, token); errE != nil {
			return w.classify(errE)
		}
		return Result{Status: OK, Message: "Success", Edited: true}
	}

	if anyChanged {
		if errE := w.WikiClient.Purge(ctx, title); errE != nil {
			return w.classify(errE)
		}
		return Result{Status: OK, Message: "Success", Purged: true}
	}

	return Result{Status: OK, Message: "Success"}
}

// renderElement runs the full per-template pipeline (spec §4.4-§4.8) for
// one list template's parameter blob and returns its replacement inside
// text, plus whether the list flagged internal state as changed.
func (w *Worker) renderElement(ctx context.Context, pageTitle, paramsBlob string) (string, bool, errors.E) {
	params, errE := template.Parse(paramsBlob)
	if errE != nil {
		return "", false, errE
	}
	projected := template.Project(
		params,
		w.Config.DefaultLanguageOrDefault(),
		w.Config.DefaultThumbnailSizeOrDefault(),
		config.DefaultMinSection,
	)

	cache, errE := entitycache.New(
		w.EntityClient,
		w.Config.MaxLocalEntitiesOrDefault(),
		w.Config.PreferPreferred,
	)
	if errE != nil {
		return "", false, errE
	}
	defer cache.Close() //nolint:errcheck

	table, errE := w.SPARQLRunner.Run(ctx, w.WikiClient, projected.SPARQL)
	if errE != nil {
		return "", false, errE
	}

	l := list.New(
		w.Wiki, projected.Wikibase, projected.Language, w.Config.DefaultLanguageOrDefault(),
		projected.Thumb, table, projected.Columns, projected, cache, w.WikiClient,
	).WithFeatureToggles(
		w.Config.ShadowImagesEnabled(w.Wiki),
		w.Config.LocationRegionsEnabled(w.Wiki),
		w.Config.LocationTemplateFor(w.Wiki),
	)

	if errE := l.Load(ctx); errE != nil {
		return "", false, errE
	}
	if errE := l.GenerateRows(); errE != nil {
		return "", false, errE
	}
	if errE := listprocessor.Run(ctx, l, w.RegionRunner, w.AutodescClient); errE != nil {
		return "", false, errE
	}

	inside := renderer.Render(l)

	if projected.TabbedData && w.CommonsClient != nil {
		if errE := w.writeTabbedData(ctx, pageTitle, l); errE != nil {
			return "", false, errE
		}
	}

	return inside, l.Changed, nil
}

func (w *Worker) fail(errE errors.E) Result {
	msg := wikiapi.NormalizeMessage(errE.Error())
	if wikiapi.IsTranslationSubpage(errE.Error()) {
		return Result{Status: TRANSLATION, Message: msg}
	}
	return Result{Status: FAIL, Message: msg}
}

// classify maps a wikiapi error into the OK/FAIL/DELETED/INVALID/
// TRANSLATION taxonomy (spec §4.9 "missingtitle -> DELETED, invalid ->
// INVALID, others -> FAIL").
func (w *Worker) classify(errE errors.E) Result {
	switch {
	case errors.Is(errE, wikiapi.ErrPageDeleted):
		return Result{Status: DELETED, Message: "page deleted"}
	case errors.Is(errE, wikiapi.ErrPageInvalid):
		return Result{Status: INVALID, Message: "page invalid"}
	default:
		return w.fail(errE)
	}
}

// namespaceOf maps a title's namespace prefix to its canonical id using
// the standard MediaWiki core namespace numbering. An unrecognized or
// absent prefix is namespace 0 (main); this does not model a wiki's own
// site-matrix namespace customizations, matching the renderer's similar
// simplification for file namespaces (see DESIGN.md).
func namespaceOf(title string) int {
	idx := strings.IndexByte(title, ':')
	if idx < 0 {
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(title[:idx])) {
	case "talk":
		return 1
	case "user":
		return 2
	case "user talk":
		return 3
	case "wikipedia", "project":
		return 4
	case "wikipedia talk", "project talk":
		return 5
	case "file", "image":
		return 6
	case "file talk", "image talk":
		return 7
	case "mediawiki":
		return 8
	case "mediawiki talk":
		return 9
	case "template":
		return 10
	case "template talk":
		return 11
	case "help":
		return 12
	case "help talk":
		return 13
	case "category":
		return 14
	case "category talk":
		return 15
	case "portal":
		return 100
	case "draft":
		return 118
	default:
		return 0
	}
}
