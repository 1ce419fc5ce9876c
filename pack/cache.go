package pack

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// DecodeCache is the bounded lookup the decode engine uses to avoid
// redecompressing base objects across a delta chain.
type DecodeCache interface {
	Get(packID ID, offset int64) (kind Kind, data []byte, packedSize int, ok bool)
	Put(packID ID, offset int64, data []byte, kind Kind, packedSize int)
}

// cacheKey is the (pack_id, data_offset) pair the cache is keyed by.
type cacheKey struct {
	pack   ID
	offset int64
}

type cacheEntry struct {
	kind       Kind
	data       []byte
	packedSize int
}

// LRUCache is a DecodeCache backed by github.com/golang/groupcache/lru,
// a dependency go-git already pulls in for plumbing/transport/http,
// repurposed here for decode-base caching. Safe for concurrent use by
// multiple readers; writers (cache.Put) are serialized by an internal
// mutex, so a cache can be shared across goroutines or owned by one.
type LRUCache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

// NewLRUCache returns a cache holding at most maxEntries decoded base
// objects. A maxEntries of 0 means unbounded.
func NewLRUCache(maxEntries int) *LRUCache {
	return &LRUCache{lru: lru.New(maxEntries)}
}

func (c *LRUCache) Get(packID ID, offset int64) (Kind, []byte, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(cacheKey{packID, offset})
	if !ok {
		return 0, nil, 0, false
	}
	e := v.(cacheEntry)
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return e.kind, out, e.packedSize, true
}

func (c *LRUCache) Put(packID ID, offset int64, data []byte, kind Kind, packedSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	c.lru.Add(cacheKey{packID, offset}, cacheEntry{kind: kind, data: stored, packedSize: packedSize})
}

// NoCache is a DecodeCache that never hits, letting a caller disable
// caching entirely at the cost of repeating work.
type NoCache struct{}

func (NoCache) Get(ID, int64) (Kind, []byte, int, bool)   { return 0, nil, 0, false }
func (NoCache) Put(ID, int64, []byte, Kind, int) {}
