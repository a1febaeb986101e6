package ordix

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"
)

// MinCacheSize keeps the cache large enough to hold a root-to-leaf
// path plus concurrent readers.
const MinCacheSize = 16

// nodeCache bounds the number of resident nodes. Eviction drops a
// ref's resident node, never the ref itself; the next access re-loads
// it from storage. Entries arrive on load and on flush.
type nodeCache[T any] struct {
	lru *freelru.SyncedLRU[Position, *NodeRef[T]]
}

func hashPosition(p Position) uint32 {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], uint64(p.File))
	binary.BigEndian.PutUint64(b[8:], uint64(p.Offset))
	return uint32(xxhash.Sum64(b[:]))
}

func newNodeCache[T any](size int) (*nodeCache[T], error) {
	size = max(size, MinCacheSize)
	lru, err := freelru.NewSynced[Position, *NodeRef[T]](uint32(size), hashPosition)
	if err != nil {
		return nil, err
	}
	lru.SetOnEvict(func(_ Position, ref *NodeRef[T]) {
		ref.unload()
	})
	return &nodeCache[T]{lru: lru}, nil
}

func (c *nodeCache[T]) put(pos Position, ref *NodeRef[T]) {
	c.lru.Add(pos, ref)
}

func (c *nodeCache[T]) get(pos Position) (*NodeRef[T], bool) {
	return c.lru.Get(pos)
}

func (c *nodeCache[T]) len() int {
	return c.lru.Len()
}
