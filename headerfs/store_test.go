// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerfs

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feathercoin/ftc-headerchain/wire"
)

func record(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, wire.HeaderSize)
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain_headers")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, uint32(0), s.Size())
}

func TestWriteAtThenReadAtRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain_headers")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteAt(0, record(0xAB), true))
	require.Equal(t, uint32(1), s.Size())

	buf, present, err := s.ReadAt(0)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, record(0xAB), buf)
}

func TestReadAtBeyondSizeIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain_headers")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, present, err := s.ReadAt(5)
	require.NoError(t, err)
	require.False(t, present)
}

func TestReadAtZeroRunIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain_headers")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteAt(0, record(0x00), true))

	_, present, err := s.ReadAt(0)
	require.NoError(t, err)
	require.False(t, present, "an all-zero record is the sparse-file absent sentinel")
}

func TestWriteAtTruncatesStaleTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain_headers")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	twoRecords := append(record(0x01), record(0x02)...)
	require.NoError(t, s.WriteAt(0, twoRecords, true))
	require.Equal(t, uint32(2), s.Size())

	require.NoError(t, s.WriteAt(0, record(0x03), true))
	require.Equal(t, uint32(1), s.Size(), "writing one record with truncate=true must discard the stale second record")
}

func TestWriteAtSuppressedTruncateKeepsTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain_headers")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	twoRecords := append(record(0x01), record(0x02)...)
	require.NoError(t, s.WriteAt(0, twoRecords, true))

	require.NoError(t, s.WriteAt(0, record(0x03), false))
	require.Equal(t, uint32(2), s.Size(), "truncate=false must preserve the existing tail")

	buf, present, err := s.ReadAt(1)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, record(0x02), buf)
}
