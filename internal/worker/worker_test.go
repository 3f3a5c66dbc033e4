package worker_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/wdlists/wdlists/internal/config"
	"gitlab.com/wdlists/wdlists/internal/sparqlrunner"
	"gitlab.com/wdlists/wdlists/internal/wikiapi"
	"gitlab.com/wdlists/wdlists/internal/worker"
)

func TestStatusString(t *testing.T) {
	assert.Equal(t, "OK", worker.OK.String())
	assert.Equal(t, "FAIL", worker.FAIL.String())
	assert.Equal(t, "DELETED", worker.DELETED.String())
	assert.Equal(t, "INVALID", worker.INVALID.String())
	assert.Equal(t, "TRANSLATION", worker.TRANSLATION.String())
	assert.Equal(t, "FAIL", worker.Status(99).String())
}

func TestWorkerProcessPage_NamespaceBlocked(t *testing.T) {
	w := &worker.Worker{
		Wiki: "testwiki",
		Config: &config.Configuration{
			NamespaceBlocks: map[string]config.NamespaceBlock{
				"testwiki": {All: true},
			},
		},
	}
	result := w.ProcessPage(context.Background(), "Some Page")
	assert.Equal(t, worker.FAIL, result.Status)
	assert.False(t, result.Edited)
	assert.False(t, result.Purged)
}

// mwHandler dispatches the handful of action=... endpoints worker.Worker
// actually calls, keyed by the request's "action" form value.
type mwHandler struct {
	t           *testing.T
	getWikitext func(w http.ResponseWriter)
	edit        func(w http.ResponseWriter, r *http.Request)
	purgeCalled bool
	editCalled  bool
}

func (h *mwHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	require.NoError(h.t, r.ParseForm())
	w.Header().Set("Content-Type", "application/json")
	switch r.FormValue("action") {
	case "query":
		if r.FormValue("meta") == "tokens" {
			w.Write([]byte(`{"query":{"tokens":{"csrftoken":"abc123"}}}`)) //nolint:errcheck
			return
		}
		h.getWikitext(w)
	case "edit":
		h.editCalled = true
		if h.edit != nil {
			h.edit(w, r)
			return
		}
		w.Write([]byte(`{}`)) //nolint:errcheck
	case "purge":
		h.purgeCalled = true
		w.Write([]byte(`{}`)) //nolint:errcheck
	default:
		h.t.Fatalf("unexpected action %q", r.FormValue("action"))
	}
}

func newTestWorker(t *testing.T, handler *mwHandler) (*worker.Worker, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := wikiapi.NewClient(server.URL, "", 5*time.Second, 0, true)
	runner := sparqlrunner.New("", time.Second, sparqlrunner.NewGlobalPermits(1), 1)
	runner.Simulate(func(query string) ([]byte, bool) {
		return []byte(`{"head":{"vars":["item"]},"results":{"bindings":[]}}`), true
	})

	w := &worker.Worker{
		Wiki:         "testwiki",
		WikiClient:   client,
		EntityClient: nil,
		SPARQLRunner: runner,
		Config: &config.Configuration{
			Template: config.Template{
				Start: "Wikidata list",
				End:   "Wikidata list end",
			},
		},
	}
	return w, server
}

func TestWorkerProcessPage_EditsOnChangedText(t *testing.T) {
	handler := &mwHandler{t: t}
	handler.getWikitext = func(w http.ResponseWriter) {
		w.Write([]byte(`{"query":{"pages":[{"revisions":[{"revid":1,"slots":{"main":{` + //nolint:errcheck
			`"content":"Intro.\n{{Wikidata list\n|sparql=SELECT ?item WHERE { }\n}}\nOLD INSIDE\n{{Wikidata list end}}\nOutro."}}}]}]}}`))
	}

	var editedText string
	handler.edit = func(w http.ResponseWriter, r *http.Request) {
		editedText = r.FormValue("text")
		w.Write([]byte(`{}`)) //nolint:errcheck
	}

	w, _ := newTestWorker(t, handler)

	result := w.ProcessPage(context.Background(), "Some Page")

	require.Equal(t, worker.OK, result.Status)
	assert.True(t, result.Edited)
	assert.False(t, result.Purged)
	assert.True(t, handler.editCalled)
	assert.NotContains(t, editedText, "OLD INSIDE")
	assert.Contains(t, editedText, "Intro.")
	assert.Contains(t, editedText, "Outro.")
}

func TestWorkerProcessPage_PageDeleted(t *testing.T) {
	handler := &mwHandler{t: t}
	handler.getWikitext = func(w http.ResponseWriter) {
		w.Write([]byte(`{"query":{"pages":[{"missing":true}]}}`)) //nolint:errcheck
	}

	w, _ := newTestWorker(t, handler)

	result := w.ProcessPage(context.Background(), "Deleted Page")

	assert.Equal(t, worker.DELETED, result.Status)
	assert.False(t, handler.editCalled)
	assert.False(t, handler.purgeCalled)
}

func TestWorkerProcessPage_PageInvalid(t *testing.T) {
	handler := &mwHandler{t: t}
	handler.getWikitext = func(w http.ResponseWriter) {
		w.Write([]byte(`{"query":{"pages":[{"invalid":true}]}}`)) //nolint:errcheck
	}

	w, _ := newTestWorker(t, handler)

	result := w.ProcessPage(context.Background(), "Invalid Page")

	assert.Equal(t, worker.INVALID, result.Status)
}

func TestWorkerProcessPage_NoTemplateIsNoop(t *testing.T) {
	handler := &mwHandler{t: t}
	handler.getWikitext = func(w http.ResponseWriter) {
		w.Write([]byte(`{"query":{"pages":[{"revisions":[{"revid":1,"slots":{"main":{` + //nolint:errcheck
			`"content":"Just plain text, no list template here."}}}]}]}}`))
	}

	w, _ := newTestWorker(t, handler)

	result := w.ProcessPage(context.Background(), "Plain Page")

	require.Equal(t, worker.OK, result.Status)
	assert.False(t, result.Edited)
	assert.False(t, result.Purged)
	assert.False(t, handler.editCalled)
	assert.False(t, handler.purgeCalled)
}

