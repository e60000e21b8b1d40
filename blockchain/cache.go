// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"container/list"
	"sync"

	"github.com/feathercoin/ftc-headerchain/wire"
)

// headerCache is a small bounded LRU of recently read (height -> header)
// pairs. It is pure performance: a miss here always falls through to the
// authoritative on-disk read, and nothing downstream treats a cache hit
// differently from a fresh read.
//
// The teacher's dependency graph carries github.com/decred/dcrd/lru for
// exactly this kind of recent-item cache; this module could not pin down
// its exact value-cache API without the Go toolchain available to check
// against, so this is a small hand-rolled stand-in instead (see
// DESIGN.md).
type headerCache struct {
	mu       sync.Mutex
	limit    int
	items    map[uint32]*list.Element
	order    *list.List
}

type headerCacheEntry struct {
	height uint32
	header *wire.Header
}

func newHeaderCache(limit int) *headerCache {
	return &headerCache{
		limit: limit,
		items: make(map[uint32]*list.Element),
		order: list.New(),
	}
}

func (c *headerCache) get(height uint32) (*wire.Header, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[height]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*headerCacheEntry).header, true
}

func (c *headerCache) add(height uint32, h *wire.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[height]; ok {
		c.order.MoveToFront(el)
		el.Value.(*headerCacheEntry).header = h
		return
	}

	el := c.order.PushFront(&headerCacheEntry{height: height, header: h})
	c.items[height] = el

	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*headerCacheEntry).height)
	}
}

func (c *headerCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[uint32]*list.Element)
	c.order.Init()
}
