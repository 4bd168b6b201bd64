package restclient

import (
	"bytes"
	"hash/fnv"
	"net/http"
	"sync"
	"time"
)

// CachedEntry is a stored response. Stores keep private copies, so an entry
// returned by Get may be used freely by the caller.
type CachedEntry struct {
	Key        CacheKey
	StatusCode int
	Header     http.Header
	Body       []byte
	StoredAt   time.Time
}

func (e *CachedEntry) clone() *CachedEntry {
	if e == nil {
		return nil
	}
	return &CachedEntry{
		Key:        e.Key,
		StatusCode: e.StatusCode,
		Header:     e.Header.Clone(),
		Body:       bytes.Clone(e.Body),
		StoredAt:   e.StoredAt,
	}
}

// CacheStore persists responses for offline fallback. Implementations must
// be safe for concurrent use, and Put must replace an entry atomically with
// respect to Get.
type CacheStore interface {
	Get(key CacheKey) (*CachedEntry, bool)
	Put(key CacheKey, entry *CachedEntry)
	Invalidate(key CacheKey)
	Clear()
	Len() int
}

// CacheCondition decides whether a successful response may be stored.
type CacheCondition func(r *ResolvedRequest) bool

// DefaultCacheCondition stores every response except uploads.
func DefaultCacheCondition(r *ResolvedRequest) bool {
	return r.Upload == nil
}

const defaultShardCount = 16

// MemoryCache is the default CacheStore: sharded maps with no expiry.
type MemoryCache struct {
	shards    []*cacheShard
	numShards int
}

type cacheShard struct {
	mu    sync.RWMutex
	store map[CacheKey]*CachedEntry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	shards := make([]*cacheShard, defaultShardCount)
	for i := range shards {
		shards[i] = &cacheShard{
			store: make(map[CacheKey]*CachedEntry),
		}
	}
	return &MemoryCache{
		shards:    shards,
		numShards: defaultShardCount,
	}
}

func (c *MemoryCache) getShard(key CacheKey) *cacheShard {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(key))
	return c.shards[hash.Sum32()%uint32(c.numShards)]
}

// Get returns a copy of the entry stored under key.
func (c *MemoryCache) Get(key CacheKey) (*CachedEntry, bool) {
	shard := c.getShard(key)
	shard.mu.RLock()
	entry, exists := shard.store[key]
	shard.mu.RUnlock()

	if !exists {
		return nil, false
	}
	return entry.clone(), true
}

// Put stores a copy of entry under key, replacing any previous entry.
func (c *MemoryCache) Put(key CacheKey, entry *CachedEntry) {
	if entry == nil {
		return
	}
	stored := entry.clone()
	stored.Key = key
	if stored.StoredAt.IsZero() {
		stored.StoredAt = time.Now()
	}

	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.store[key] = stored
}

func (c *MemoryCache) Invalidate(key CacheKey) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.store, key)
}

func (c *MemoryCache) Clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.store = make(map[CacheKey]*CachedEntry)
		shard.mu.Unlock()
	}
}

// Len returns the number of stored entries.
func (c *MemoryCache) Len() int {
	n := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		n += len(shard.store)
		shard.mu.RUnlock()
	}
	return n
}

// entryFromResponse captures a successful exchange for storage.
func entryFromResponse(key CacheKey, raw *RawResponse) *CachedEntry {
	return &CachedEntry{
		Key:        key,
		StatusCode: raw.StatusCode,
		Header:     raw.Header.Clone(),
		Body:       bytes.Clone(raw.Body),
		StoredAt:   time.Now(),
	}
}
