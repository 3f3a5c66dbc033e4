package blockstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/wdlists/wdlists/internal/blockstore"
)

func TestAppendAndReadAfterInterleavedReads(t *testing.T) {
	t.Parallel()

	s, errE := blockstore.New("", "blockstore-test-*")
	require.NoError(t, errE)
	defer s.Close() //nolint:errcheck

	ref1, errE := s.Append([]byte("hello"))
	require.NoError(t, errE)
	ref2, errE := s.Append([]byte("world!"))
	require.NoError(t, errE)

	got1, errE := s.Read(ref1)
	require.NoError(t, errE)
	assert.Equal(t, "hello", string(got1))

	// A write after a read must still append correctly.
	ref3, errE := s.Append([]byte("third"))
	require.NoError(t, errE)

	got2, errE := s.Read(ref2)
	require.NoError(t, errE)
	assert.Equal(t, "world!", string(got2))

	got3, errE := s.Read(ref3)
	require.NoError(t, errE)
	assert.Equal(t, "third", string(got3))
}
