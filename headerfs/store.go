// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package headerfs implements the append-only flat-file record store a
// branch uses to persist its headers: fixed 80-byte records at a
// byte offset derived from height, with truncate-then-fsync write
// semantics and a mutex-guarded cached size.
package headerfs

import (
	"io"
	"os"
	"sync"

	"github.com/feathercoin/ftc-headerchain/wire"
)

// Store is a single flat file of fixed wire.HeaderSize-byte records. It
// has no notion of height or checkpoint — callers address records by
// delta (record index from the start of the file); translating an
// absolute chain height into a delta is the branch's job.
type Store struct {
	mu   sync.Mutex
	path string
	file *os.File
	size uint32 // number of complete records currently on disk
}

// Open opens path for reading and writing, creating it if it does not
// already exist, and primes the cached size from the file's current
// length.
func Open(path string) (*Store, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, file: file}
	if err := s.refreshSize(); err != nil {
		file.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) refreshSize() error {
	info, err := s.file.Stat()
	if err != nil {
		return err
	}
	s.size = uint32(info.Size() / wire.HeaderSize)
	return nil
}

// Size returns the number of complete records currently on disk.
func (s *Store) Size() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Close closes the underlying file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// ReadAt returns the raw record at record index delta. present is false,
// with a nil buf, when delta is beyond the current size or the record is
// an all-zero sentinel run (a sparsely-written file).
func (s *Store) ReadAt(delta uint32) (buf []byte, present bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if delta >= s.size {
		return nil, false, nil
	}
	raw := make([]byte, wire.HeaderSize)
	n, err := s.file.ReadAt(raw, int64(delta)*wire.HeaderSize)
	if err != nil && err != io.EOF {
		return nil, false, err
	}
	if n != wire.HeaderSize {
		return nil, false, &ErrShortRead{Got: n}
	}
	if wire.IsZero(raw) {
		return nil, false, nil
	}
	return raw, true, nil
}

// WriteAt writes data (which must be a multiple of wire.HeaderSize) at
// record index delta. When truncate is true and the write does not land
// exactly at the current end of file, the file is truncated at the write
// offset first, discarding any stale tail — matching the save_chunk
// semantics of only ever preserving a prefix, never leaving orphaned
// bytes past a rewritten region.
func (s *Store) WriteAt(delta uint32, data []byte, truncate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offset := int64(delta) * wire.HeaderSize
	if truncate && offset != int64(s.size)*wire.HeaderSize {
		if err := s.file.Truncate(offset); err != nil {
			return err
		}
	}
	if _, err := s.file.WriteAt(data, offset); err != nil {
		return err
	}
	if err := s.file.Sync(); err != nil {
		return err
	}
	return s.refreshSize()
}

// ReadRange returns n records' worth of raw bytes starting at record index
// delta, with no zero-sentinel interpretation — used when relocating a
// contiguous run of records between two stores wholesale (a branch
// swap-with-parent promotion), where an all-zero record is still real
// data to carry over rather than an absent marker.
func (s *Store) ReadRange(delta uint32, n uint32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, int64(n)*wire.HeaderSize)
	if len(buf) == 0 {
		return buf, nil
	}
	if _, err := s.file.ReadAt(buf, int64(delta)*wire.HeaderSize); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadAll returns the full contents of the file.
func (s *Store) ReadAll() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, int64(s.size)*wire.HeaderSize)
	if _, err := s.file.ReadAt(buf, 0); err != nil && len(buf) > 0 {
		return nil, err
	}
	return buf, nil
}

// ErrShortRead is returned when a record-sized read returns fewer bytes
// than expected — the on-disk file is shorter than the cached size
// implies, which can only mean it was truncated out from under this
// Store by something other than WriteAt.
type ErrShortRead struct {
	Got int
}

func (e *ErrShortRead) Error() string {
	return "headerfs: short read"
}
