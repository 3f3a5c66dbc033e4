package dispatcher_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/config"
	"gitlab.com/wdlists/wdlists/internal/dispatcher"
	"gitlab.com/wdlists/wdlists/internal/worker"
)

// fakeSource hands out a fixed list of pages, then reports exhaustion.
// Report just records what it was called with, protected by a mutex since
// the pool calls it from multiple goroutines.
type fakeSource struct {
	mu      sync.Mutex
	pages   []dispatcher.Page
	next    int
	reports []dispatcher.Page
	results []worker.Result
}

func (s *fakeSource) Next(_ context.Context) (dispatcher.Page, bool, errors.E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.pages) {
		return dispatcher.Page{}, false, nil
	}
	page := s.pages[s.next]
	s.next++
	return page, true, nil
}

func (s *fakeSource) Report(_ context.Context, page dispatcher.Page, result worker.Result, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, page)
	s.results = append(s.results, result)
}

// blockedWorker returns immediately with FAIL via the namespace-block
// short-circuit in worker.Worker.ProcessPage, with no network calls at
// all: a deterministic, offline way to drive pages through Pool.Run.
func blockedWorker(wiki string) *worker.Worker {
	return &worker.Worker{
		Wiki: wiki,
		Config: &config.Configuration{
			NamespaceBlocks: map[string]config.NamespaceBlock{
				wiki: {All: true},
			},
		},
	}
}

func TestPool_Run_ProcessesEveryPage(t *testing.T) {
	source := &fakeSource{
		pages: []dispatcher.Page{
			{ID: 1, Wiki: "testwiki", Title: "Page A"},
			{ID: 2, Wiki: "testwiki", Title: "Page B"},
			{ID: 3, Wiki: "testwiki", Title: "Page C"},
		},
	}

	pool := &dispatcher.Pool{
		MaxConcurrent: 2,
		WorkerFor: func(_ context.Context, wiki string) (*worker.Worker, errors.E) {
			return blockedWorker(wiki), nil
		},
	}

	errE := pool.Run(context.Background(), source)
	require.NoError(t, errE)

	source.mu.Lock()
	defer source.mu.Unlock()
	assert.Len(t, source.reports, 3)
	for _, result := range source.results {
		assert.Equal(t, worker.FAIL, result.Status)
		assert.Equal(t, "namespace not allowed for edit", result.Message)
	}
}

func TestPool_Run_WorkerForError(t *testing.T) {
	source := &fakeSource{
		pages: []dispatcher.Page{{ID: 1, Wiki: "badwiki", Title: "Page"}},
	}

	pool := &dispatcher.Pool{
		MaxConcurrent: 1,
		WorkerFor: func(_ context.Context, _ string) (*worker.Worker, errors.E) {
			return nil, errors.New("boom")
		},
	}

	errE := pool.Run(context.Background(), source)
	require.NoError(t, errE)

	require.Len(t, source.results, 1)
	assert.Equal(t, worker.FAIL, source.results[0].Status)
}

func TestPool_Run_InactivityTimeout(t *testing.T) {
	blockUntilDone := make(chan struct{})
	defer close(blockUntilDone)

	source := &blockingSource{unblock: blockUntilDone}

	pool := &dispatcher.Pool{
		MaxConcurrent:   1,
		InactivityLimit: 20 * time.Millisecond,
		WorkerFor: func(_ context.Context, wiki string) (*worker.Worker, errors.E) {
			return blockedWorker(wiki), nil
		},
	}

	errE := pool.Run(context.Background(), source)
	require.Error(t, errE)
	assert.True(t, errors.Is(errE, dispatcher.ErrInactive))
}

// blockingSource never returns a page; Next blocks until ctx is done or
// unblock is closed, simulating an empty queue a QueueDispatcher would
// otherwise poll forever.
type blockingSource struct {
	unblock chan struct{}
}

func (s *blockingSource) Next(ctx context.Context) (dispatcher.Page, bool, errors.E) {
	select {
	case <-ctx.Done():
		return dispatcher.Page{}, false, nil
	case <-s.unblock:
		return dispatcher.Page{}, false, nil
	}
}

func (s *blockingSource) Report(context.Context, dispatcher.Page, worker.Result, time.Duration) {}
