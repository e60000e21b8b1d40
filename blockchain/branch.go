// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain implements a logical chain branch rooted at a
// checkpoint height and the registry of branches that together model the
// main chain plus any outstanding forks.
package blockchain

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/feathercoin/ftc-headerchain/chaincfg"
	"github.com/feathercoin/ftc-headerchain/headerfs"
	"github.com/feathercoin/ftc-headerchain/log"
	"github.com/feathercoin/ftc-headerchain/pow"
	"github.com/feathercoin/ftc-headerchain/wire"
)

// headerCacheSize bounds the in-process LRU of recently read headers kept
// per branch; it's a performance aid for the retarget windows' repeated
// neighbor lookups, never a substitute for the on-disk read.
const headerCacheSize = 2048

// Branch is a logical chain segment rooted at a checkpoint height,
// backed by its own flat-file store and, for every branch but the main
// one, a parent branch that owns the headers below its checkpoint.
type Branch struct {
	mu sync.Mutex

	checkpoint       uint32
	parentCheckpoint uint32
	hasParent        bool
	store            *headerfs.Store
	path             string

	params   *chaincfg.Params
	registry *Registry
	cache    *headerCache
}

// newBranch wires up a Branch backed by the file at path, without
// touching the registry — callers insert it themselves.
func newBranch(registry *Registry, params *chaincfg.Params, checkpoint uint32, parentCheckpoint uint32, hasParent bool, path string) (*Branch, error) {
	store, err := headerfs.Open(path)
	if err != nil {
		return nil, err
	}
	return &Branch{
		checkpoint:       checkpoint,
		parentCheckpoint: parentCheckpoint,
		hasParent:        hasParent,
		store:            store,
		path:             path,
		params:           params,
		registry:         registry,
		cache:            newHeaderCache(headerCacheSize),
	}, nil
}

// Checkpoint returns the absolute height of this branch's first stored
// header (0 for the main branch).
func (b *Branch) Checkpoint() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checkpoint
}

// Size returns the number of headers currently stored on this branch.
func (b *Branch) Size() uint32 {
	return b.snapshotStore().Size()
}

// Height returns checkpoint + size - 1 as a signed value, since an empty
// main branch has height -1 (no header yet, not even genesis).
func (b *Branch) Height() int64 {
	b.mu.Lock()
	checkpoint := b.checkpoint
	b.mu.Unlock()
	return int64(checkpoint) + int64(b.Size()) - 1
}

func (b *Branch) snapshotStore() *headerfs.Store {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store
}

func (b *Branch) checkpointUnsafe() uint32 {
	return b.checkpoint
}

func (b *Branch) parent() (*Branch, bool) {
	b.mu.Lock()
	hasParent := b.hasParent
	parentCheckpoint := b.parentCheckpoint
	b.mu.Unlock()
	if !hasParent {
		return nil, false
	}
	return b.registry.branch(parentCheckpoint)
}

func (b *Branch) shortName() string {
	hash, err := b.GetHash(b.Height())
	if err != nil {
		return "?"
	}
	s := hash.String()
	for len(s) > 10 && s[0] == '0' {
		s = s[1:]
	}
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}

// ReadHeader returns the header at height, delegating to the parent chain
// for heights below this branch's checkpoint and returning (nil, nil) for
// a height beyond this branch's tip or at an absent (zero-filled) record.
func (b *Branch) ReadHeader(height uint32) (*wire.Header, error) {
	if h, ok := b.cache.get(height); ok {
		return h, nil
	}

	b.mu.Lock()
	checkpoint := b.checkpoint
	store := b.store
	b.mu.Unlock()

	if height < checkpoint {
		parent, ok := b.parent()
		if !ok {
			return nil, nil
		}
		return parent.ReadHeader(height)
	}

	delta := height - checkpoint
	raw, present, err := store.ReadAt(delta)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	h, err := wire.Deserialize(raw, height)
	if err != nil {
		return nil, err
	}
	b.cache.add(height, h)
	return h, nil
}

// GetHash returns the identity hash at height. height == -1 is the
// zero-hash sentinel used as the "previous hash" of the genesis header;
// chunk-terminal heights inside the checkpointed region return the
// configured checkpoint hash directly rather than reading a (trusted,
// unverified) header.
func (b *Branch) GetHash(height int64) (chainhash.Hash, error) {
	switch {
	case height == -1:
		return chainhash.Hash{}, nil
	case height == 0:
		return b.params.GenesisHash, nil
	case height > 0 && height < int64(b.params.CheckpointHeight()) && (height+1)%chaincfg.ChunkSize == 0:
		idx := height / chaincfg.ChunkSize
		if idx >= int64(len(b.params.Checkpoints)) {
			return chainhash.Hash{}, nil
		}
		return b.params.Checkpoints[idx], nil
	default:
		h, err := b.ReadHeader(uint32(height))
		if err != nil {
			return chainhash.Hash{}, err
		}
		if h == nil {
			return chainhash.Hash{}, nil
		}
		return wire.IdentityHash(h), nil
	}
}

// Checkpoints returns, for each chunk fully covered by this branch's
// stored height, the identity hash terminating that chunk — output
// suitable for persisting into an updated checkpoint list.
func (b *Branch) Checkpoints() ([]chainhash.Hash, error) {
	n := (b.Height() + 1) / chaincfg.ChunkSize
	out := make([]chainhash.Hash, 0, n)
	for i := int64(0); i < n; i++ {
		hash, err := b.GetHash((i+1)*chaincfg.ChunkSize - 1)
		if err != nil {
			return nil, err
		}
		out = append(out, hash)
	}
	return out, nil
}

// persistedLookup is a pow.HeaderLookup that only ever reads through
// ReadHeader — used wherever no in-memory chunk context is available
// (single-header connect, exactly as Open Question (b) describes).
func (b *Branch) persistedLookup() pow.HeaderLookup {
	return func(height uint32) (*wire.Header, error) {
		h, err := b.ReadHeader(height)
		if err != nil {
			return nil, err
		}
		if h == nil {
			return nil, wire.ErrMissingHeader{Height: height}
		}
		return h, nil
	}
}

// chunkLookup is a pow.HeaderLookup that serves heights inside
// [windowStart, windowStart+len(headers)) from the in-memory chunk being
// verified and everything else from persisted storage.
func (b *Branch) chunkLookup(headers []*wire.Header, windowStart uint32) pow.HeaderLookup {
	return func(height uint32) (*wire.Header, error) {
		if height < windowStart {
			return b.persistedLookup()(height)
		}
		idx := int(height - windowStart)
		if idx >= len(headers) {
			return nil, wire.ErrMissingHeader{Height: height}
		}
		return headers[idx], nil
	}
}

// verifyHeader checks link continuity and, outside the checkpointed
// region and off testnet, the bits/target and proof-of-work.
func (b *Branch) verifyHeader(h *wire.Header, prevHash chainhash.Hash, target *big.Int) error {
	if h.PrevBlockHash != prevHash {
		return &ErrLinkBroken{Height: h.BlockHeight, Want: prevHash, Got: h.PrevBlockHash}
	}
	if b.params.Testnet {
		return nil
	}
	if h.BlockHeight < b.params.CheckpointHeight() {
		return nil
	}

	expectedBits := pow.TargetToBits(target)
	if expectedBits != h.Bits {
		return &ErrBitsMismatch{Height: h.BlockHeight, Want: expectedBits, Got: h.Bits}
	}

	powHash := wire.PoWHash(h)
	powInt, ok := new(big.Int).SetString(powHash.String(), 16)
	if !ok {
		return fmt.Errorf("blockchain: malformed pow hash at height %d", h.BlockHeight)
	}
	if powInt.Cmp(target) > 0 {
		return &ErrInsufficientPoW{Height: h.BlockHeight, PoWHash: powHash, Target: target}
	}
	return nil
}

// VerifyChunk deserializes a run of headers starting at index*ChunkSize
// and verifies each against its expected target and the previous
// header's identity hash, threading an in-memory lookup over the chunk
// itself so intra-chunk retarget windows don't need the headers on disk
// yet.
func (b *Branch) VerifyChunk(index uint32, data []byte) error {
	if len(data)%wire.HeaderSize != 0 {
		return &ErrBadChunkLength{Got: len(data)}
	}
	n := len(data) / wire.HeaderSize
	windowStart := index * chaincfg.ChunkSize

	prevHash, err := b.GetHash(int64(windowStart) - 1)
	if err != nil {
		return err
	}

	headers := make([]*wire.Header, n)
	for i := 0; i < n; i++ {
		raw := data[i*wire.HeaderSize : (i+1)*wire.HeaderSize]
		h, err := wire.Deserialize(raw, windowStart+uint32(i))
		if err != nil {
			return err
		}
		headers[i] = h
	}

	lookup := b.chunkLookup(headers, windowStart)
	for _, h := range headers {
		target, err := pow.NextTarget(h.BlockHeight, b.params.Testnet, b.params.CheckpointHeight(), b.params.CheckpointTarget, lookup)
		if err != nil {
			return err
		}
		if err := b.verifyHeader(h, prevHash, target); err != nil {
			return err
		}
		prevHash = wire.IdentityHash(h)
	}
	return nil
}

// CanConnect reports whether h may be appended to this branch's tip
// (checkHeight true) or would be consistent with this branch at its own
// height (checkHeight false, used when admitting a fork's root against
// its claimed parent). It performs no writes.
func (b *Branch) CanConnect(h *wire.Header, checkHeight bool) bool {
	if h == nil {
		return false
	}
	if checkHeight && b.Height() != int64(h.BlockHeight)-1 {
		return false
	}
	if h.BlockHeight == 0 {
		return wire.IdentityHash(h) == b.params.GenesisHash
	}

	prevHash, err := b.GetHash(int64(h.BlockHeight) - 1)
	if err != nil {
		return false
	}
	if prevHash != h.PrevBlockHash {
		return false
	}

	target, err := pow.NextTarget(h.BlockHeight, b.params.Testnet, b.params.CheckpointHeight(), b.params.CheckpointTarget, b.persistedLookup())
	if err != nil {
		return false
	}
	return b.verifyHeader(h, prevHash, target) == nil
}

// connectHeaderLocked appends h to this branch's tip and evaluates
// swap-with-parent. Callers must hold the owning Registry's write lock.
func (b *Branch) connectHeaderLocked(h *wire.Header, checkHeight bool) bool {
	if !b.CanConnect(h, checkHeight) {
		return false
	}
	if err := b.saveHeaderLocked(h); err != nil {
		log.Log.Warnf("blockchain: save_header failed at height %d: %v", h.BlockHeight, err)
		return false
	}
	return true
}

func (b *Branch) saveHeaderLocked(h *wire.Header) error {
	b.mu.Lock()
	checkpoint := b.checkpoint
	store := b.store
	b.mu.Unlock()

	delta := h.BlockHeight - checkpoint
	if delta != store.Size() {
		return fmt.Errorf("blockchain: save_header height mismatch: delta %d, size %d", delta, store.Size())
	}
	if err := store.WriteAt(delta, wire.Serialize(h), true); err != nil {
		return err
	}
	b.cache.add(h.BlockHeight, h)
	b.swapWithParentLocked()
	return nil
}

// connectChunkLocked verifies then persists a chunk. Callers must hold
// the owning Registry's write lock.
func (b *Branch) connectChunkLocked(index uint32, data []byte) bool {
	if err := b.VerifyChunk(index, data); err != nil {
		log.Log.Warnf("blockchain: verify_chunk %d failed: %v", index, err)
		return false
	}
	if err := b.saveChunkLocked(index, data); err != nil {
		log.Log.Warnf("blockchain: save_chunk %d failed: %v", index, err)
		return false
	}
	return true
}

func (b *Branch) saveChunkLocked(index uint32, data []byte) error {
	b.mu.Lock()
	checkpoint := b.checkpoint
	store := b.store
	b.mu.Unlock()

	delta := int64(index)*chaincfg.ChunkSize - int64(checkpoint)
	chunk := data
	if delta < 0 {
		dropBytes := -delta * wire.HeaderSize
		if dropBytes > int64(len(chunk)) {
			dropBytes = int64(len(chunk))
		}
		chunk = chunk[dropBytes:]
		delta = 0
	}
	truncate := index >= uint32(len(b.params.Checkpoints))
	if err := store.WriteAt(uint32(delta), chunk, truncate); err != nil {
		return err
	}
	b.cache.purge()
	b.swapWithParentLocked()
	return nil
}

// swapWithParentLocked promotes this branch over its parent when it has
// grown past the point where the parent's remaining unique tail is
// shorter than this branch, exactly mirroring the upstream
// swap_with_parent behaviour: file contents are relocated between the two
// stores, then the two Branch values trade checkpoint identities, so the
// object that used to be "the parent" becomes the shorter residual fork
// and vice versa. Callers must hold the owning Registry's write lock.
func (b *Branch) swapWithParentLocked() {
	// The registry's write lock is already held, so the parent is looked
	// up in the map directly: b.parent() would take the read lock again.
	b.mu.Lock()
	hasParent, parentCheckpoint := b.hasParent, b.parentCheckpoint
	b.mu.Unlock()
	if !hasParent {
		return
	}
	parent, ok := b.registry.branches[parentCheckpoint]
	if !ok {
		return
	}

	parentBranchSize := parent.Height() - int64(b.checkpointUnsafe()) + 1
	if parentBranchSize < 0 {
		parentBranchSize = 0
	}
	if uint32(parentBranchSize) >= b.Size() {
		return
	}

	first, second := b, parent
	if parent.checkpointUnsafe() < b.checkpointUnsafe() {
		first, second = parent, b
	}
	first.mu.Lock()
	second.mu.Lock()
	unlockBoth := func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}

	childPayload, err := b.store.ReadAll()
	if err != nil {
		unlockBoth()
		log.Log.Warnf("blockchain: swap_with_parent read of %s failed: %v", b.path, err)
		return
	}
	parentDelta := b.checkpoint - parent.checkpoint
	parentSlice, err := parent.store.ReadRange(parentDelta, uint32(parentBranchSize))
	if err != nil {
		unlockBoth()
		log.Log.Warnf("blockchain: swap_with_parent read of %s failed: %v", parent.path, err)
		return
	}

	if err := b.store.WriteAt(0, parentSlice, true); err != nil {
		unlockBoth()
		log.Log.Warnf("blockchain: swap_with_parent write of %s failed: %v", b.path, err)
		return
	}
	if err := parent.store.WriteAt(parentDelta, childPayload, true); err != nil {
		unlockBoth()
		log.Log.Warnf("blockchain: swap_with_parent write of %s failed: %v", parent.path, err)
		return
	}

	// The two stores now hold, in place, the correct bytes for each
	// branch's NEW identity (b's own store holds the short residual tail
	// that belongs under the parent's old checkpoint; parent's own store
	// holds the full combined chain that belongs under b's old
	// checkpoint). So rather than moving bytes again, the two Branch
	// values trade which store/path they reference, alongside their
	// checkpoint/parentCheckpoint/hasParent fields — mirroring how the
	// upstream implementation leaves both physical files untouched by
	// name and instead lets each object's path() recomputation resolve
	// to the other's old file.
	oldBCheckpoint, oldParentCheckpoint := b.checkpoint, parent.checkpoint
	b.checkpoint, parent.checkpoint = parent.checkpoint, b.checkpoint
	b.parentCheckpoint, parent.parentCheckpoint = parent.parentCheckpoint, b.parentCheckpoint
	b.hasParent, parent.hasParent = parent.hasParent, b.hasParent
	b.store, parent.store = parent.store, b.store
	b.path, parent.path = parent.path, b.path
	b.cache.purge()
	parent.cache.purge()
	unlockBoth()

	// The caller already holds the registry's write lock for this whole
	// operation, so the map is re-keyed directly rather than through a
	// method that would try to re-acquire it.
	delete(b.registry.branches, oldBCheckpoint)
	delete(b.registry.branches, oldParentCheckpoint)
	b.registry.branches[b.checkpoint] = b
	b.registry.branches[parent.checkpoint] = parent

	log.Log.Infof("blockchain: swapped branch at checkpoint %d with parent at checkpoint %d, new tips %s / %s",
		oldBCheckpoint, oldParentCheckpoint, b.shortName(), parent.shortName())
}

// fork creates a new child branch rooted at header's height, owning a
// freshly created (truncated) file, and saves header as its sole
// content. The caller inserts the returned branch into the registry.
func fork(registry *Registry, params *chaincfg.Params, parentCheckpoint uint32, path string, header *wire.Header) (*Branch, error) {
	b, err := newBranch(registry, params, header.BlockHeight, parentCheckpoint, true, path)
	if err != nil {
		return nil, err
	}
	if err := b.store.WriteAt(0, wire.Serialize(header), true); err != nil {
		return nil, err
	}
	b.cache.add(header.BlockHeight, header)
	return b, nil
}
