// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/feathercoin/ftc-headerchain/chaincfg"
	"github.com/feathercoin/ftc-headerchain/pow"
	"github.com/feathercoin/ftc-headerchain/wire"
)

// buildGenesis returns a height-0 header (zero PrevBlockHash, since
// genesis links to the GetHash(-1) sentinel) and params whose
// GenesisHash matches its identity hash — not an independently chosen
// value, since CanConnect's height-0 case checks the two for equality.
func buildGenesis(checkpointed bool) (*chaincfg.Params, *wire.Header) {
	h := &wire.Header{
		Version:     1,
		Timestamp:   1000,
		Bits:        0x1d00ffff,
		Nonce:       1,
		BlockHeight: 0,
	}
	params := &chaincfg.Params{
		Name:    "regtest",
		Testnet: false,
	}
	if checkpointed {
		// One checkpoint chunk puts height 0 below CheckpointHeight(),
		// so verifyHeader skips the bits/proof-of-work check entirely
		// (spec: no independent check inside the trusted checkpointed
		// region) — the deterministic way to build a header that
		// passes full verification without mining one.
		params.Checkpoints = []chainhash.Hash{{0x01}}
	}
	params.GenesisHash = wire.IdentityHash(h)
	return params, h
}

func TestBranchVerifyChunkAcceptsWellFormedGenesis(t *testing.T) {
	params, h0 := buildGenesis(true)
	r, err := NewRegistry(testConfig{dir: t.TempDir()}, params)
	require.NoError(t, err)
	main, _ := r.branch(0)

	require.NoError(t, main.VerifyChunk(0, wire.Serialize(h0)))
}

func TestBranchVerifyChunkRejectsBadLength(t *testing.T) {
	params, _ := buildGenesis(true)
	r, err := NewRegistry(testConfig{dir: t.TempDir()}, params)
	require.NoError(t, err)
	main, _ := r.branch(0)

	err = main.VerifyChunk(0, make([]byte, wire.HeaderSize+1))
	require.Error(t, err)
	var badLen *ErrBadChunkLength
	require.ErrorAs(t, err, &badLen)
}

func TestBranchVerifyChunkRejectsBrokenLink(t *testing.T) {
	params, h0 := buildGenesis(true)
	r, err := NewRegistry(testConfig{dir: t.TempDir()}, params)
	require.NoError(t, err)
	main, _ := r.branch(0)

	tampered := *h0
	tampered.PrevBlockHash[0] = 0xAA // genesis must link to the zero hash

	err = main.VerifyChunk(0, wire.Serialize(&tampered))
	require.Error(t, err)
	var linkErr *ErrLinkBroken
	require.ErrorAs(t, err, &linkErr)
}

func TestBranchVerifyChunkRejectsBitsMismatch(t *testing.T) {
	// Outside the checkpointed region (no Checkpoints configured), height
	// 0's expected bits are always MaxTarget's encoding; pick a bits
	// value guaranteed not to match it.
	params, h0 := buildGenesis(false)
	h0.Bits = pow.TargetToBits(pow.MaxTargetNeoScrypt)

	r, err := NewRegistry(testConfig{dir: t.TempDir()}, params)
	require.NoError(t, err)
	main, _ := r.branch(0)

	err = main.VerifyChunk(0, wire.Serialize(h0))
	require.Error(t, err)
	var bitsErr *ErrBitsMismatch
	require.ErrorAs(t, err, &bitsErr)
}

func TestBranchCanConnectAcceptsGenesis(t *testing.T) {
	params, h0 := buildGenesis(true)
	r, err := NewRegistry(testConfig{dir: t.TempDir()}, params)
	require.NoError(t, err)
	main, _ := r.branch(0)

	require.True(t, main.CanConnect(h0, true))
}
