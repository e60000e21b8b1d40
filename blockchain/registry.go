// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/feathercoin/ftc-headerchain/chaincfg"
	"github.com/feathercoin/ftc-headerchain/log"
	"github.com/feathercoin/ftc-headerchain/wire"
)

// Config supplies the on-disk location this package persists header files
// under. An embedding application implements it, typically as a thin
// wrapper around its own data-directory layout.
type Config interface {
	HeadersDir() string
}

const (
	mainHeadersFile = "blockchain_headers"
	forksDirName    = "forks"
)

// Registry owns the main branch plus every outstanding fork, and
// serializes every admit/remove/swap against a single write lock so a
// swap-with-parent promotion can never race a concurrent connect on the
// same or a neighboring branch.
type Registry struct {
	mu sync.RWMutex

	branches   map[uint32]*Branch
	params     *chaincfg.Params
	headersDir string
}

// NewRegistry opens (creating if necessary) the main branch at
// cfg.HeadersDir() and loads any previously persisted forks underneath
// its forks/ subdirectory, exactly as ReadBlockchains does on node
// startup upstream.
func NewRegistry(cfg Config, params *chaincfg.Params) (*Registry, error) {
	r := &Registry{
		branches:   make(map[uint32]*Branch),
		params:     params,
		headersDir: cfg.HeadersDir(),
	}
	if err := r.readBlockchains(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) branch(checkpoint uint32) (*Branch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.branches[checkpoint]
	return b, ok
}

func (r *Registry) mainPath() string {
	return filepath.Join(r.headersDir, mainHeadersFile)
}

func (r *Registry) forkPath(parentCheckpoint, checkpoint uint32) string {
	return filepath.Join(r.headersDir, forksDirName, fmt.Sprintf("fork_%d_%d", parentCheckpoint, checkpoint))
}

// readBlockchains loads the main branch and, from headersDir/forks, every
// persisted fork file named fork_<parentCheckpoint>_<checkpoint>, in
// ascending checkpoint order so a fork rooted on another (just-loaded)
// fork resolves its parent. A fork that no longer connects to its parent
// (its claimed prev-link or proof-of-work no longer verifies, perhaps
// because the checkpoint list advanced past it) is discarded with a
// logged warning rather than aborting startup.
func (r *Registry) readBlockchains() error {
	if err := os.MkdirAll(r.headersDir, 0700); err != nil {
		return err
	}
	forksPath := filepath.Join(r.headersDir, forksDirName)
	if err := os.MkdirAll(forksPath, 0700); err != nil {
		return err
	}

	main, err := newBranch(r, r.params, 0, 0, false, r.mainPath())
	if err != nil {
		return err
	}
	r.branches[0] = main

	entries, err := os.ReadDir(forksPath)
	if err != nil {
		return err
	}

	type forkFile struct {
		parentCheckpoint, checkpoint uint32
		path                         string
	}
	var pending []forkFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var parentCheckpoint, checkpoint uint32
		n, err := fmt.Sscanf(entry.Name(), "fork_%d_%d", &parentCheckpoint, &checkpoint)
		if err != nil || n != 2 {
			continue
		}
		pending = append(pending, forkFile{parentCheckpoint, checkpoint, filepath.Join(forksPath, entry.Name())})
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].checkpoint < pending[j].checkpoint })

	for _, fe := range pending {
		b, err := newBranch(r, r.params, fe.checkpoint, fe.parentCheckpoint, true, fe.path)
		if err != nil {
			log.Log.Warnf("blockchain: failed to open fork file %s: %v", fe.path, err)
			continue
		}
		parent, ok := r.branches[fe.parentCheckpoint]
		if !ok {
			log.Log.Warnf("blockchain: fork %s claims unknown parent checkpoint %d, discarding", fe.path, fe.parentCheckpoint)
			b.store.Close()
			continue
		}
		header, err := b.ReadHeader(fe.checkpoint)
		if err != nil || header == nil {
			log.Log.Warnf("blockchain: fork %s unreadable at its own checkpoint, discarding", fe.path)
			b.store.Close()
			continue
		}
		if !parent.CanConnect(header, false) {
			log.Log.Warnf("blockchain: fork %s no longer connects to parent at checkpoint %d, discarding", fe.path, fe.parentCheckpoint)
			b.store.Close()
			continue
		}
		r.branches[fe.checkpoint] = b
	}
	return nil
}

func (r *Registry) snapshotBranches() []*Branch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Branch, 0, len(r.branches))
	for _, b := range r.branches {
		out = append(out, b)
	}
	return out
}

// CheckHeader reports whether h matches whatever header is already
// recorded at its height on any known branch.
func (r *Registry) CheckHeader(h *wire.Header) bool {
	for _, b := range r.snapshotBranches() {
		existing, err := b.ReadHeader(h.BlockHeight)
		if err != nil || existing == nil {
			continue
		}
		if wire.IdentityHash(existing) == wire.IdentityHash(h) {
			return true
		}
	}
	return false
}

// CanConnect reports whether h can be appended to some known branch's
// current tip, returning that branch when one is found.
func (r *Registry) CanConnect(h *wire.Header) (*Branch, bool) {
	for _, b := range r.snapshotBranches() {
		if b.CanConnect(h, true) {
			return b, true
		}
	}
	return nil, false
}

// ConnectHeader appends h to the branch rooted at checkpoint, verifying
// it first. It reports whether the header was accepted.
func (r *Registry) ConnectHeader(checkpoint uint32, h *wire.Header, checkHeight bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.branches[checkpoint]
	if !ok {
		return false
	}
	return b.connectHeaderLocked(h, checkHeight)
}

// ConnectChunk verifies and persists a chunk of headers onto the branch
// rooted at checkpoint.
func (r *Registry) ConnectChunk(checkpoint, index uint32, data []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.branches[checkpoint]
	if !ok {
		return false
	}
	return b.connectChunkLocked(index, data)
}

// Fork creates and registers a new branch rooted at header, hanging off
// the branch currently at parentCheckpoint.
func (r *Registry) Fork(parentCheckpoint uint32, header *wire.Header) (*Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.branches[header.BlockHeight]; exists {
		return nil, fmt.Errorf("blockchain: a branch already exists at checkpoint %d", header.BlockHeight)
	}
	path := r.forkPath(parentCheckpoint, header.BlockHeight)
	b, err := fork(r, r.params, parentCheckpoint, path, header)
	if err != nil {
		return nil, err
	}
	r.branches[header.BlockHeight] = b
	return b, nil
}

// Branches returns every branch this registry currently tracks, in no
// particular order.
func (r *Registry) Branches() []*Branch {
	return r.snapshotBranches()
}

// LongestChain returns the branch with the greatest height, preferring
// the main branch (checkpoint 0) on a tie.
func (r *Registry) LongestChain() *Branch {
	branches := r.snapshotBranches()
	if len(branches) == 0 {
		return nil
	}
	best := branches[0]
	for _, b := range branches[1:] {
		if b.Height() > best.Height() {
			best = b
		} else if b.Height() == best.Height() && b.Checkpoint() == 0 {
			best = b
		}
	}
	return best
}
