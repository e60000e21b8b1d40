// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pow

import (
	"math/big"

	"github.com/feathercoin/ftc-headerchain/wire"
)

// Height boundaries of the four historical rule eras, after the vanilla
// Bitcoin-style retarget that governs everything below HeightForkOne.
const (
	HeightForkOne   = 33000
	HeightForkTwo   = 87948
	HeightForkThree = 204639
	HeightForkFour  = 432000

	sevenDays = 7 * 24 * 60 * 60
)

// HeaderLookup returns the header at an absolute height, however the
// caller wants to source it — from an in-memory chunk being verified, from
// a branch's persisted store, or from a parent branch. Retarget math never
// cares which.
type HeaderLookup func(height uint32) (*wire.Header, error)

// NextTarget computes the proof-of-work target a header at height must
// meet, dispatching to the correct rule era. checkpointHeight is
// len(checkpoints)*ChunkSize; checkpointTarget is the fixed target
// configured for height == checkpointHeight (Open Question a: a
// configured parameter, not derived).
func NextTarget(height uint32, testnet bool, checkpointHeight uint32, checkpointTarget *big.Int, lookup HeaderLookup) (*big.Int, error) {
	if testnet {
		return big.NewInt(0), nil
	}
	if height == 0 {
		return new(big.Int).Set(MaxTarget), nil
	}
	if height < checkpointHeight {
		// Pessimistic sentinel: PoW is not independently checked inside
		// the trusted checkpointed region.
		return big.NewInt(0), nil
	}
	if height == checkpointHeight {
		return new(big.Int).Set(checkpointTarget), nil
	}

	switch {
	case height == HeightForkFour:
		return new(big.Int).Set(MaxTargetNeoScrypt), nil
	case height >= HeightForkThree:
		return forkThreeTarget(height, lookup)
	case height >= HeightForkTwo:
		return forkTwoTarget(height, lookup)
	case height >= HeightForkOne:
		return forkOneTarget(height, lookup)
	default:
		return vanillaTarget(height, lookup)
	}
}

// damp pulls actual three quarters of the way toward target (three parts
// target, one part actual) before it is clamped and applied — the later
// forks retarget more gently than vanilla Bitcoin's undamped ratio.
func damp(actual, target int64) int64 {
	return (actual + 3*target) / 4
}

// clampTarget bounds actualTimespan into [targetTimespan*num/den,
// targetTimespan*den/num], then scales target by the clamped ratio,
// capped at MaxTarget. Every division here is truncating; the order of
// operations is consensus-critical and must not be reassociated.
func clampTarget(target *big.Int, actualTimespan, targetTimespan, num, den int64) *big.Int {
	lower := targetTimespan * num / den
	upper := targetTimespan * den / num
	if actualTimespan < lower {
		actualTimespan = lower
	}
	if actualTimespan > upper {
		actualTimespan = upper
	}

	newTarget := new(big.Int).Mul(target, big.NewInt(actualTimespan))
	newTarget.Quo(newTarget, big.NewInt(targetTimespan))
	if newTarget.Cmp(MaxTarget) > 0 {
		return new(big.Int).Set(MaxTarget)
	}
	return newTarget
}

func vanillaTarget(height uint32, lookup HeaderLookup) (*big.Int, error) {
	const interval = 2016

	lastHeight := height - 1
	last, err := lookup(lastHeight)
	if err != nil {
		return nil, err
	}
	target, err := BitsToTarget(last.Bits)
	if err != nil {
		return nil, err
	}
	if height%interval != 0 {
		return target, nil
	}

	firstHeight := int64(lastHeight) - interval
	if firstHeight < 0 {
		firstHeight = 0
	}
	first, err := lookup(uint32(firstHeight))
	if err != nil {
		return nil, err
	}

	actual := int64(last.Timestamp) - int64(first.Timestamp)
	return clampTarget(target, actual, sevenDays/2, 1, 4), nil
}

func forkOneTarget(height uint32, lookup HeaderLookup) (*big.Int, error) {
	const interval = 504

	lastHeight := height - 1
	last, err := lookup(lastHeight)
	if err != nil {
		return nil, err
	}
	target, err := BitsToTarget(last.Bits)
	if err != nil {
		return nil, err
	}
	if height%interval != 0 && height != HeightForkOne {
		return target, nil
	}

	first, err := lookup(lastHeight - interval)
	if err != nil {
		return nil, err
	}

	actual := int64(last.Timestamp) - int64(first.Timestamp)
	return clampTarget(target, actual, sevenDays/8, 70, 99), nil
}

func forkTwoTarget(height uint32, lookup HeaderLookup) (*big.Int, error) {
	const interval = 126

	lastHeight := height - 1
	last, err := lookup(lastHeight)
	if err != nil {
		return nil, err
	}
	target, err := BitsToTarget(last.Bits)
	if err != nil {
		return nil, err
	}
	if height%interval != 0 && height != HeightForkTwo {
		return target, nil
	}

	firstShort, err := lookup(lastHeight - interval)
	if err != nil {
		return nil, err
	}
	actualShort := int64(last.Timestamp) - int64(firstShort.Timestamp)

	firstLong, err := lookup(lastHeight - interval*4)
	if err != nil {
		return nil, err
	}
	actualLong := (int64(last.Timestamp) - int64(firstLong.Timestamp)) / 4

	actual := damp((actualShort+actualLong)/2, sevenDays/32)
	return clampTarget(target, actual, sevenDays/32, 453, 494), nil
}

func forkThreeTarget(height uint32, lookup HeaderLookup) (*big.Int, error) {
	lastHeight := height - 1
	last, err := lookup(lastHeight)
	if err != nil {
		return nil, err
	}
	target, err := BitsToTarget(last.Bits)
	if err != nil {
		return nil, err
	}

	first15, err := lookup(lastHeight - 15)
	if err != nil {
		return nil, err
	}
	short := (int64(last.Timestamp) - int64(first15.Timestamp)) / 15

	first120, err := lookup(lastHeight - 120)
	if err != nil {
		return nil, err
	}
	medium := (int64(last.Timestamp) - int64(first120.Timestamp)) / 120

	first480, err := lookup(lastHeight - 480)
	if err != nil {
		return nil, err
	}
	long := (int64(last.Timestamp) - int64(first480.Timestamp)) / 480

	actual := damp((short+medium+long)/3, 60)
	return clampTarget(target, actual, 60, 453, 494), nil
}
