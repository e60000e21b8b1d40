// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ErrLinkBroken is returned by verifyHeader when a header's prev-block
// hash does not match the hash it is being connected onto.
type ErrLinkBroken struct {
	Height uint32
	Want   chainhash.Hash
	Got    chainhash.Hash
}

func (e *ErrLinkBroken) Error() string {
	return fmt.Sprintf("blockchain: link broken at height %d: want prev %s, got %s", e.Height, e.Want, e.Got)
}

// ErrBitsMismatch is returned when a header's bits field does not match
// the bits derived from the height's expected target.
type ErrBitsMismatch struct {
	Height uint32
	Want   uint32
	Got    uint32
}

func (e *ErrBitsMismatch) Error() string {
	return fmt.Sprintf("blockchain: bits mismatch at height %d: want 0x%08x, got 0x%08x", e.Height, e.Want, e.Got)
}

// ErrInsufficientPoW is returned when a header's proof-of-work hash,
// interpreted as a 256-bit integer, exceeds the expected target.
type ErrInsufficientPoW struct {
	Height  uint32
	PoWHash chainhash.Hash
	Target  *big.Int
}

func (e *ErrInsufficientPoW) Error() string {
	return fmt.Sprintf("blockchain: insufficient proof of work at height %d: hash %s vs target %s", e.Height, e.PoWHash, e.Target.String())
}

// ErrBadChunkLength is returned by VerifyChunk when the supplied byte
// slice is not a whole number of wire.HeaderSize records.
type ErrBadChunkLength struct {
	Got int
}

func (e *ErrBadChunkLength) Error() string {
	return fmt.Sprintf("blockchain: chunk length %d is not a multiple of the header size", e.Got)
}
