// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg is the "constants.net" collaborator described by the
// header-chain core: the genesis hash, the ordered list of per-chunk
// checkpoint hashes, the testnet flag, and the two extended-key version
// bytes the wallet layer consumes but this core never reads.
package chaincfg

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Params defines a Feathercoin-style network by the parameters the
// header-chain core needs. Unlike a full node's chaincfg.Params, this
// carries nothing about addresses, transactions, or peer discovery — those
// belong to collaborators outside this core's scope.
type Params struct {
	// Name is a human-readable identifier for the network, used only in
	// log messages.
	Name string

	// GenesisHash is the hash of height-0, authoritative independent of
	// any checkpoint list.
	GenesisHash chainhash.Hash

	// Checkpoints holds, in order from oldest to newest, the terminal
	// hash of every trusted 2016-header chunk. len(Checkpoints)*2016 is
	// the height below which proof-of-work is not independently checked
	// (spec: the checkpointed region).
	Checkpoints []chainhash.Hash

	// CheckpointTarget is the target at height == len(Checkpoints)*2016,
	// the block immediately following the checkpointed region. The
	// source this was distilled from hard-codes this as a constant that
	// "needs updating when checkpoints.json updates"; here it is a
	// configured field of Params rather than a derived value (see
	// DESIGN.md, Open Question a).
	CheckpointTarget *big.Int

	// Testnet disables proof-of-work verification entirely when true,
	// per spec.
	Testnet bool

	// PrivateKeyID and PublicKeyID are the WIF/extended-key version bytes
	// (XPRV_HEADERS/XPUB_HEADERS in the spec's ambient surface). Neither
	// is read anywhere in this core; they're carried only so that Params
	// is a complete stand-in for the "constants.net" collaborator a
	// wallet would otherwise also consult.
	PrivateKeyID byte
	PublicKeyID  byte
}

// ChunkSize is the number of headers in one retarget/checkpoint chunk.
const ChunkSize = 2016

// CheckpointHeight returns the height of the first header not covered by
// the checkpoint list, i.e. len(Checkpoints)*2016.
func (p *Params) CheckpointHeight() uint32 {
	return uint32(len(p.Checkpoints)) * ChunkSize
}

// newHashFromStr parses a hard-coded big-endian hex hash. It panics on
// error since it is only ever called on constants below; a panic here is
// 100% predictable at init time and never reachable from user input.
func newHashFromStr(hexStr string) chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic("chaincfg: bad hard-coded hash " + hexStr + ": " + err.Error())
	}
	return *hash
}

// MainNetParams are the parameters for the Feathercoin-style main network
// this core was built against. The checkpoint list and CheckpointTarget
// are deliberately small placeholders here — an embedding application is
// expected to supply its own *Params built from its checkpoints.json.
var MainNetParams = Params{
	Name:        "mainnet",
	GenesisHash: newHashFromStr("5e3aefbf90fd154685efcd29cbca1e2a6475b63bf5f6e4c8ea68417c6c67e416"),
	Checkpoints: nil,
	CheckpointTarget: func() *big.Int {
		t, _ := new(big.Int).SetString("143256919707644724074290378570122304852251874692742198474282369024", 10)
		return t
	}(),
	Testnet:      false,
	PrivateKeyID: 0x8e,
	PublicKeyID:  0x0e,
}

// TestNetParams are the parameters for the test network. PoW verification
// is skipped entirely when Testnet is true, per spec §4.4.
var TestNetParams = Params{
	Name:             "testnet",
	GenesisHash:      newHashFromStr("5e3aefbf90fd154685efcd29cbca1e2a6475b63bf5f6e4c8ea68417c6c67e416"),
	Checkpoints:      nil,
	CheckpointTarget: big.NewInt(0),
	Testnet:          true,
	PrivateKeyID:     0xef,
	PublicKeyID:      0x6f,
}
