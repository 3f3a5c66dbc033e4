// Package blockstore implements the single-file, append-write /
// offset-read discipline that both the SPARQL table and the entity cache
// spill to once they outgrow memory (spec §3, §9 "Streaming large tables").
//
// A Store is a single os.File opened for read and write. Writes always
// append; reads always seek to an absolute offset. Because the same file
// descriptor is shared between the writer and the reader, a boolean tracks
// whether the last operation was a read, so that the next write knows it
// must seek back to the end exactly once (grounded on the teacher's
// Downloader, which tracks a similar read/write position split over a
// single *os.File pair in internal/mediawiki/downloader.go).
package blockstore

import (
	"io"
	"os"

	"gitlab.com/tozd/go/errors"
)

// Ref addresses one previously written block.
type Ref struct {
	Offset int64
	Length int64
}

// Store is a temp-file-backed append/read block store.
type Store struct {
	file       *os.File
	end        int64
	lastWasRead bool
}

// New creates a temp file to back the store. The file is removed once
// Close is called; callers do not need to unlink it themselves.
func New(dir, pattern string) (*Store, errors.E) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Store{file: f}, nil
}

// Append writes data at the end of the file and returns a Ref to it.
func (s *Store) Append(data []byte) (Ref, errors.E) {
	if s.lastWasRead {
		if _, err := s.file.Seek(0, io.SeekEnd); err != nil {
			return Ref{}, errors.WithStack(err)
		}
		s.lastWasRead = false
	}
	n, err := s.file.Write(data)
	if err != nil {
		return Ref{}, errors.WithStack(err)
	}
	ref := Ref{Offset: s.end, Length: int64(n)}
	s.end += int64(n)
	return ref, nil
}

// Read returns the bytes previously written at ref. Reads always seek to
// an absolute offset first, per spec §3's entity-cache invariant.
func (s *Store) Read(ref Ref) ([]byte, errors.E) {
	if _, err := s.file.Seek(ref.Offset, io.SeekStart); err != nil {
		return nil, errors.WithStack(err)
	}
	buf := make([]byte, ref.Length)
	if _, err := io.ReadFull(s.file, buf); err != nil {
		return nil, errors.WithStack(err)
	}
	s.lastWasRead = true
	return buf, nil
}

// Close closes and removes the backing temp file.
func (s *Store) Close() error {
	name := s.file.Name()
	err := s.file.Close()
	_ = os.Remove(name)
	return err //nolint:wrapcheck
}
