// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/feathercoin/ftc-headerchain/chaincfg"
	"github.com/feathercoin/ftc-headerchain/wire"
)

type testConfig struct{ dir string }

func (c testConfig) HeadersDir() string { return c.dir }

// buildTestChain deterministically builds n linked headers starting at a
// genesis header whose PrevBlockHash is the zero hash (the same sentinel
// GetHash(-1) returns), along with params whose GenesisHash is set to
// that genesis header's own identity hash — not an independently chosen
// value, since CanConnect's height-0 case checks the two for equality.
func buildTestChain(n int, testnet bool) (*chaincfg.Params, []*wire.Header) {
	headers := make([]*wire.Header, n)
	var prev chainhash.Hash
	for i := 0; i < n; i++ {
		h := &wire.Header{
			Version:       1,
			PrevBlockHash: prev,
			Timestamp:     uint32(1000 + i),
			Bits:          0x1d00ffff,
			Nonce:         uint32(i),
			BlockHeight:   uint32(i),
		}
		headers[i] = h
		prev = wire.IdentityHash(h)
	}
	params := &chaincfg.Params{
		Name:        "regtest",
		GenesisHash: wire.IdentityHash(headers[0]),
		Checkpoints: nil,
		Testnet:     testnet,
	}
	return params, headers
}

func newTestRegistryWithChain(t *testing.T, n int) (*Registry, *chaincfg.Params, []*wire.Header) {
	t.Helper()
	params, headers := buildTestChain(n, true)
	r, err := NewRegistry(testConfig{dir: t.TempDir()}, params)
	require.NoError(t, err)
	return r, params, headers
}
