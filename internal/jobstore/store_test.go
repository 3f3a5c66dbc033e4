package jobstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/wdlists/wdlists/internal/jobstore"
)

// newTestStore opens a real Store against the POSTGRES environment variable,
// the same opt-in convention as the teacher's store package tests
// (internal/store/store_test.go's initDatabase): these tests need a running
// Postgres and are skipped otherwise, since a fake substitute for the
// dequeue/locking semantics under test would not be testing anything real.
func newTestStore(t *testing.T) (context.Context, *jobstore.Store) {
	t.Helper()

	if os.Getenv("POSTGRES") == "" {
		t.Skip("POSTGRES is not available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()

	s, errE := jobstore.NewStore(ctx, os.Getenv("POSTGRES"), logger)
	require.NoError(t, errE, "% -+#.1v", errE)
	t.Cleanup(s.Close)

	return ctx, s
}

func TestStore_PrepareNextPage_Priority(t *testing.T) {
	ctx, s := newTestStore(t)

	require.NoError(t, s.EnsurePages(ctx, "testwiki", []string{"First Inserted Page", "Bumped Page"}))
	require.NoError(t, s.Prioritize(ctx, "testwiki", "Bumped Page"))

	// Both pages come from one EnsurePages call and share an updated_at;
	// Bumped Page's priority=1 is what must put it first.
	page, ok, errE := s.PrepareNextPage(ctx)
	require.NoError(t, errE)
	require.True(t, ok)
	assert.Equal(t, "testwiki", page.Wiki)
	assert.Equal(t, "Bumped Page", page.Title)

	page2, ok, errE := s.PrepareNextPage(ctx)
	require.NoError(t, errE)
	require.True(t, ok)
	assert.Equal(t, "First Inserted Page", page2.Title)

	// Queue is now empty of eligible rows.
	_, ok, errE = s.PrepareNextPage(ctx)
	require.NoError(t, errE)
	assert.False(t, ok)
}

func TestStore_UpdateStatus_AcceptsLongMessageAndRequeuesOK(t *testing.T) {
	ctx, s := newTestStore(t)

	require.NoError(t, s.EnsurePages(ctx, "testwiki", []string{"A Page"}))
	page, ok, errE := s.PrepareNextPage(ctx)
	require.NoError(t, errE)
	require.True(t, ok)

	longMessage := make([]byte, 500)
	for i := range longMessage {
		longMessage[i] = 'x'
	}
	require.NoError(t, s.UpdateStatus(ctx, page.ID, jobstore.StatusOK, string(longMessage)))

	// A page marked OK is eligible for dequeue again (e.g. a later edit
	// brought it back into rotation at priority 0).
	page2, ok, errE := s.PrepareNextPage(ctx)
	require.NoError(t, errE)
	require.True(t, ok)
	assert.Equal(t, page.ID, page2.ID)
}

func TestStore_ResetRunningAndClearDeleted(t *testing.T) {
	ctx, s := newTestStore(t)

	require.NoError(t, s.EnsurePages(ctx, "testwiki", []string{"Stuck Page", "Gone Page"}))

	stuck, ok, errE := s.PrepareNextPage(ctx)
	require.NoError(t, errE)
	require.True(t, ok)

	gone, ok, errE := s.PrepareNextPage(ctx)
	require.NoError(t, errE)
	require.True(t, ok)
	require.NoError(t, s.UpdateStatus(ctx, gone.ID, jobstore.StatusDeleted, ""))

	require.NoError(t, s.ResetRunning(ctx))
	require.NoError(t, s.ClearDeleted(ctx))

	// The stuck page is reclaimable again after ResetRunning put it back
	// to PAUSED.
	reclaimed, ok, errE := s.PrepareNextPage(ctx)
	require.NoError(t, errE)
	require.True(t, ok)
	assert.Equal(t, stuck.ID, reclaimed.ID)
}

func TestStore_EnsurePages_IsIdempotent(t *testing.T) {
	ctx, s := newTestStore(t)

	require.NoError(t, s.EnsurePages(ctx, "testwiki", []string{"Idempotent Page"}))
	require.NoError(t, s.EnsurePages(ctx, "testwiki", []string{"Idempotent Page"}))

	page, ok, errE := s.PrepareNextPage(ctx)
	require.NoError(t, errE)
	require.True(t, ok)
	require.NoError(t, s.UpdateStatus(ctx, page.ID, jobstore.StatusDeleted, ""))
	require.NoError(t, s.ClearDeleted(ctx))

	// If EnsurePages had inserted a duplicate row, it would still be sitting
	// in the queue now that the original has been deleted and cleared.
	_, ok, errE = s.PrepareNextPage(ctx)
	require.NoError(t, errE)
	assert.False(t, ok, "EnsurePages must not have inserted a duplicate row")
}
