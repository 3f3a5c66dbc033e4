// Package sparqlrunner executes a SPARQL query against a configured
// endpoint and materializes the result into an internal/sparqltable.Table
// (spec §4.4 "SPARQL runner"). Grounded on the teacher's
// internal/wikipedia/api.go request-building and internal/indexer/download.go's
// retryable POST pattern.
package sparqlrunner

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/sparqltable"
	"gitlab.com/wdlists/wdlists/internal/wikiapi"
)

// ErrNoSPARQLVariable is returned when the driver variable (spec's "main
// variable", defaulting to "item") cannot be resolved against the query's
// header (spec §4.4 step 5, §7 "NoSparqlVariable").
var ErrNoSPARQLVariable = errors.Base("sparql result has no item variable")

// MainVariable is the SPARQL result variable treated as the driver column
// when present (spec glossary "Driver column / main variable").
const MainVariable = "item"

// UserAgent is the fixed header sent on every SPARQL POST (spec §4.4 step 4).
const UserAgent = "wdlists/0.1 (SPARQL list-synchronization bot)"

// Runner executes queries against one SPARQL endpoint behind a
// process-wide concurrency permit (spec §5 "Concurrent SPARQL queries,
// global").
type Runner struct {
	httpClient *retryablehttp.Client
	endpoint   string
	permits    chan struct{}
	threshold  int

	// simulated, when non-nil, returns canned JSON instead of making a
	// network call (spec §4.4 step 2); set through Simulate, which the
	// worker tests use.
	simulated func(query string) ([]byte, bool)
}

// NewGlobalPermits constructs the process-wide SPARQL concurrency
// semaphore, shared by every Runner (spec §5, §9 "Global mutable state").
// A buffered channel is used as the counting semaphore, matching the
// teacher's preference for explicit channel-based coordination over a
// third-party semaphore package (no example repo imports
// golang.org/x/sync/semaphore).
func NewGlobalPermits(maxSimultaneous int) chan struct{} {
	return make(chan struct{}, maxSimultaneous)
}

// New builds a Runner. permits is the shared global semaphore from
// NewGlobalPermits; threshold is forwarded to sparqltable.NewWithThreshold.
func New(endpoint string, timeout time.Duration, permits chan struct{}, threshold int) *Runner {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = timeout
	client := retryablehttp.NewClient()
	client.HTTPClient = hc
	client.Logger = nil

	return &Runner{
		httpClient: client,
		endpoint:   endpoint,
		permits:    permits,
		threshold:  threshold,
	}
}

// Simulate configures canned JSON responses for queries, bypassing the
// network entirely (spec §4.4 step 2).
func (r *Runner) Simulate(fn func(query string) ([]byte, bool)) {
	r.simulated = fn
}

// ErrSPARQLError marks the failures Run detects itself, an empty query or a
// missing simulated response (spec §7 "SparqlError"). Network, status and
// decode errors are returned without it.
var ErrSPARQLError = errors.Base("sparql query failed")

// Run executes query (pre-expanding "{{...}}" template syntax through
// wikiClient first, when present) and returns the materialized table with
// its main column resolved to MainVariable if present.
func (r *Runner) Run(ctx context.Context, wikiClient *wikiapi.Client, query string) (*sparqltable.Table, errors.E) {
	if query == "" {
		return nil, errors.WithMessage(errors.WithStack(ErrSPARQLError), "empty query")
	}

	if strings.Contains(query, "{{") && wikiClient != nil {
		expanded, errE := wikiClient.ExpandTemplates(ctx, query)
		if errE != nil {
			return nil, errors.WithMessage(errE, "template pre-expansion failed")
		}
		query = expanded
	}

	var body []byte
	if r.simulated != nil {
		data, ok := r.simulated(query)
		if !ok {
			return nil, errors.WithMessage(errors.WithStack(ErrSPARQLError), "no simulated response for query")
		}
		body = data
	} else {
		data, errE := r.post(ctx, query)
		if errE != nil {
			return nil, errE
		}
		body = data
	}

	vars, errE := headerVars(body)
	if errE != nil {
		return nil, errors.WithMessage(errE, "decoding sparql header failed")
	}

	mainVar := ""
	for _, v := range vars {
		if v == MainVariable {
			mainVar = MainVariable
			break
		}
	}

	table := sparqltable.NewWithThreshold(vars, mainVar, r.threshold)
	if errE := decodeInto(body, table); errE != nil {
		return nil, errors.WithMessage(errE, "decoding sparql bindings failed")
	}

	if mainVar == "" {
		return table, errors.WithStack(ErrNoSPARQLVariable)
	}

	return table, nil
}

func (r *Runner) post(ctx context.Context, query string) ([]byte, errors.E) {
	select {
	case r.permits <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.WithStack(ctx.Err())
	}
	defer func() { <-r.permits }()

	values := url.Values{}
	values.Set("query", query)
	values.Set("format", "json")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		errE := errors.WithStack(err)
		errors.Details(errE)["endpoint"] = r.endpoint
		return nil, errE
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if resp.StatusCode != http.StatusOK {
		errE := errors.New("bad sparql response status")
		errors.Details(errE)["code"] = resp.StatusCode
		errors.Details(errE)["endpoint"] = r.endpoint
		errors.Details(errE)["body"] = strings.TrimSpace(string(body))
		return nil, errE
	}
	return body, nil
}
