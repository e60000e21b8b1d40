// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feathercoin/ftc-headerchain/wire"
)

func lookupFromMap(headers map[uint32]*wire.Header) HeaderLookup {
	return func(height uint32) (*wire.Header, error) {
		h, ok := headers[height]
		if !ok {
			return nil, wire.ErrMissingHeader{Height: height}
		}
		return h, nil
	}
}

func TestNextTargetTestnetAlwaysZero(t *testing.T) {
	target, err := NextTarget(500000, true, 0, big.NewInt(0), nil)
	require.NoError(t, err)
	require.Equal(t, 0, target.Sign())
}

func TestNextTargetGenesisIsMaxTarget(t *testing.T) {
	target, err := NextTarget(0, false, 0, big.NewInt(0), nil)
	require.NoError(t, err)
	require.Equal(t, 0, target.Cmp(MaxTarget))
}

func TestNextTargetBelowCheckpointIsSentinelZero(t *testing.T) {
	target, err := NextTarget(2015, false, 2016, big.NewInt(0), nil)
	require.NoError(t, err)
	require.Equal(t, 0, target.Sign())
}

func TestNextTargetAtCheckpointUsesConfiguredConstant(t *testing.T) {
	want, _ := new(big.Int).SetString("143256919707644724074290378570122304852251874692742198474282369024", 10)
	target, err := NextTarget(2016, false, 2016, want, nil)
	require.NoError(t, err)
	require.Equal(t, 0, target.Cmp(want))
}

func TestNextTargetAtForkFourIsMaxTargetNeoScrypt(t *testing.T) {
	target, err := NextTarget(HeightForkFour, false, 0, big.NewInt(0), nil)
	require.NoError(t, err)
	require.Equal(t, 0, target.Cmp(MaxTargetNeoScrypt))
}

func TestVanillaTargetCarriesForwardOnNonBoundary(t *testing.T) {
	bits := uint32(0x1d00ffff)
	headers := map[uint32]*wire.Header{
		99: {Bits: bits, Timestamp: 1000},
	}
	target, err := NextTarget(100, false, 0, big.NewInt(0), lookupFromMap(headers))
	require.NoError(t, err)

	want, _ := BitsToTarget(bits)
	require.Equal(t, 0, target.Cmp(want))
}

func TestVanillaTargetRetargetsOnBoundary(t *testing.T) {
	bits := uint32(0x1d00ffff)
	prevTarget, _ := BitsToTarget(bits)
	headers := map[uint32]*wire.Header{
		2015: {Bits: bits, Timestamp: sevenDays / 2}, // last header of the interval being closed
		0:    {Bits: bits, Timestamp: 0},
	}
	target, err := NextTarget(2016, false, 0, big.NewInt(0), lookupFromMap(headers))
	require.NoError(t, err)

	// actualTimespan == nTargetTimespan exactly: retarget should be a no-op.
	require.Equal(t, 0, target.Cmp(prevTarget))
}

func TestForkOneRetargetsOnlyAtInterval(t *testing.T) {
	bits := uint32(0x1d00ffff)
	headers := map[uint32]*wire.Header{
		HeightForkOne: {Bits: bits, Timestamp: 5000},
	}
	target, err := NextTarget(HeightForkOne+1, false, 0, big.NewInt(0), lookupFromMap(headers))
	require.NoError(t, err)

	want, _ := BitsToTarget(bits)
	require.Equal(t, 0, target.Cmp(want), "non-boundary height must carry the previous target forward unchanged")
}

func TestForkThreeRetargetsEveryBlock(t *testing.T) {
	bits := uint32(0x1d00ffff)
	last := HeightForkThree + 1000
	headers := map[uint32]*wire.Header{
		last - 1:   {Bits: bits, Timestamp: 100000},
		last - 16:  {Bits: bits, Timestamp: 99100},
		last - 121: {Bits: bits, Timestamp: 92800},
		last - 481: {Bits: bits, Timestamp: 61600},
	}
	target, err := NextTarget(last, false, 0, big.NewInt(0), lookupFromMap(headers))
	require.NoError(t, err)
	require.NotNil(t, target)
}
