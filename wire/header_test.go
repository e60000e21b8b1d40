// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func sampleHeader() *Header {
	return &Header{
		Version:       1,
		PrevBlockHash: chainhash.Hash{0x01, 0x02, 0x03},
		MerkleRoot:    chainhash.Hash{0x04, 0x05, 0x06},
		Timestamp:     1231006505,
		Bits:          0x1d00ffff,
		Nonce:         2083236893,
		BlockHeight:   0,
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	h := sampleHeader()
	buf := Serialize(h)
	require.Len(t, buf, HeaderSize)

	got, err := Deserialize(buf, h.BlockHeight)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestDeserializeBadLength(t *testing.T) {
	_, err := Deserialize(make([]byte, HeaderSize-1), 0)
	require.Error(t, err)

	var badLen *ErrBadLength
	require.ErrorAs(t, err, &badLen)
	require.Equal(t, HeaderSize-1, badLen.Got)
}

func TestIsZero(t *testing.T) {
	require.True(t, IsZero(make([]byte, HeaderSize)))

	buf := make([]byte, HeaderSize)
	buf[10] = 0x01
	require.False(t, IsZero(buf))
}

func TestPoWHashSelectorBoundary(t *testing.T) {
	before := sampleHeader()
	before.Timestamp = neoScryptActivationTime - 1

	at := sampleHeader()
	at.Timestamp = neoScryptActivationTime

	require.Equal(t, chainhash.DoubleHashH(Serialize(before)), PoWHash(before))
	require.NotEqual(t, chainhash.DoubleHashH(Serialize(at)), PoWHash(at))
}

func TestIdentityHashIgnoresPoWSelector(t *testing.T) {
	h := sampleHeader()
	h.Timestamp = neoScryptActivationTime + 1000

	require.Equal(t, chainhash.DoubleHashH(Serialize(h)), IdentityHash(h))
}

func TestSerializeRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := &Header{
			Version:     rapid.Uint32().Draw(rt, "version"),
			Timestamp:   rapid.Uint32().Draw(rt, "timestamp"),
			Bits:        rapid.Uint32().Draw(rt, "bits"),
			Nonce:       rapid.Uint32().Draw(rt, "nonce"),
			BlockHeight: rapid.Uint32().Draw(rt, "height"),
		}
		copy(h.PrevBlockHash[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(rt, "prev"))
		copy(h.MerkleRoot[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(rt, "merkle"))

		got, err := Deserialize(Serialize(h), h.BlockHeight)
		require.NoError(rt, err)
		require.Equal(rt, h, got)
	})
}
