// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the 80-byte block header codec: serialization,
// deserialization, and the two hashes (identity and proof-of-work) derived
// from a header's wire encoding.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/feathercoin/ftc-headerchain/neoscrypt"
)

// HeaderSize is the number of bytes in the wire encoding of a Header.
const HeaderSize = 80

// neoScryptActivationTime is the header timestamp at and after which the
// proof-of-work hash is NeoScrypt instead of SHA-256d.
const neoScryptActivationTime = 1414346265

// ErrBadLength is returned by Deserialize when the supplied buffer is not
// exactly HeaderSize bytes.
type ErrBadLength struct {
	Got int
}

func (e *ErrBadLength) Error() string {
	return fmt.Sprintf("wire: invalid header length: got %d bytes, want %d", e.Got, HeaderSize)
}

// Header is the decoded, in-memory form of an 80-byte block header.
// BlockHeight is not part of the wire encoding; it is carried alongside the
// header because every consumer in this module needs it to know where in
// the chain the header belongs.
type Header struct {
	Version       uint32
	PrevBlockHash chainhash.Hash
	MerkleRoot    chainhash.Hash
	Timestamp     uint32
	Bits          uint32
	Nonce         uint32
	BlockHeight   uint32
}

// Serialize encodes h into its canonical 80-byte wire form: the four
// integer fields little-endian, the two hashes in their on-wire
// (reversed-from-display) byte order.
func Serialize(h *Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Version)
	copy(buf[4:36], h.PrevBlockHash[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
	return buf
}

// Deserialize decodes an 80-byte wire-format buffer into a Header at the
// given height. It fails with *ErrBadLength if buf is not exactly
// HeaderSize bytes long.
func Deserialize(buf []byte, height uint32) (*Header, error) {
	if len(buf) != HeaderSize {
		return nil, &ErrBadLength{Got: len(buf)}
	}
	h := &Header{
		Version:     binary.LittleEndian.Uint32(buf[0:4]),
		Timestamp:   binary.LittleEndian.Uint32(buf[68:72]),
		Bits:        binary.LittleEndian.Uint32(buf[72:76]),
		Nonce:       binary.LittleEndian.Uint32(buf[76:80]),
		BlockHeight: height,
	}
	copy(h.PrevBlockHash[:], buf[4:36])
	copy(h.MerkleRoot[:], buf[36:68])
	return h, nil
}

// IsZero reports whether buf is an all-zero 80-byte run — the sentinel a
// chain store file uses for a sparsely-written (never-populated) record.
func IsZero(buf []byte) bool {
	return bytes.Equal(buf, make([]byte, HeaderSize))
}

// IdentityHash returns the double-SHA-256 identity hash of h, used for
// chain linkage and branch equality checks. Unlike the proof-of-work hash,
// it is always SHA-256d regardless of the header's timestamp.
func IdentityHash(h *Header) chainhash.Hash {
	return chainhash.DoubleHashH(Serialize(h))
}

// usesNeoScrypt reports whether the proof-of-work hash for a header with
// the given timestamp is NeoScrypt (true) or SHA-256d (false).
func usesNeoScrypt(timestamp uint32) bool {
	return timestamp >= neoScryptActivationTime
}

// PoWHash returns the proof-of-work hash of h: SHA-256d for headers timestamped
// before the NeoScrypt activation time, NeoScrypt from that timestamp on.
// Both hash functions run over the full 80-byte serialization.
func PoWHash(h *Header) chainhash.Hash {
	ser := Serialize(h)
	if usesNeoScrypt(h.Timestamp) {
		return chainhash.Hash(neoscrypt.Sum256(ser))
	}
	return chainhash.DoubleHashH(ser)
}
