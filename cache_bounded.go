package restclient

import (
	"container/list"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// BoundedCache is a capacity-bounded CacheStore that evicts the least
// recently used entry of a shard once the shard is full.
type BoundedCache struct {
	shards    []*boundedShard
	shardMask uint32

	totalHits      int64
	totalMisses    int64
	totalPuts      int64
	totalEvictions int64
}

type boundedShard struct {
	mu       sync.Mutex
	items    map[CacheKey]*list.Element
	order    *list.List // front is most recently used
	capacity int

	evictions int64
}

// NewBoundedCache creates an LRU cache holding at most capacity entries.
func NewBoundedCache(capacity int) *BoundedCache {
	return NewBoundedCacheWithShards(1, capacity)
}

// NewBoundedCacheWithShards creates an LRU cache split into shardCount shards
// (rounded up to a power of two) of capacityPerShard entries each. Eviction
// order is tracked per shard.
func NewBoundedCacheWithShards(shardCount, capacityPerShard int) *BoundedCache {
	if shardCount <= 0 {
		shardCount = 1
	}
	if capacityPerShard <= 0 {
		capacityPerShard = 1000
	}
	shardCount = nextPowerOf2(shardCount)

	shards := make([]*boundedShard, shardCount)
	for i := range shards {
		shards[i] = &boundedShard{
			items:    make(map[CacheKey]*list.Element),
			order:    list.New(),
			capacity: capacityPerShard,
		}
	}
	return &BoundedCache{
		shards:    shards,
		shardMask: uint32(shardCount - 1),
	}
}

func (c *BoundedCache) getShard(key CacheKey) *boundedShard {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(key))
	return c.shards[hash.Sum32()&c.shardMask]
}

func (c *BoundedCache) Get(key CacheKey) (*CachedEntry, bool) {
	shard := c.getShard(key)
	shard.mu.Lock()
	elem, ok := shard.items[key]
	if !ok {
		shard.mu.Unlock()
		atomic.AddInt64(&c.totalMisses, 1)
		return nil, false
	}
	shard.order.MoveToFront(elem)
	entry := elem.Value.(*CachedEntry).clone()
	shard.mu.Unlock()

	atomic.AddInt64(&c.totalHits, 1)
	return entry, true
}

func (c *BoundedCache) Put(key CacheKey, entry *CachedEntry) {
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

	atomic.AddInt64(&c.totalPuts, 1)
	if elem, ok := shard.items[key]; ok {
		elem.Value = stored
		shard.order.MoveToFront(elem)
		return
	}
	shard.items[key] = shard.order.PushFront(stored)
	for shard.order.Len() > shard.capacity {
		c.evictOldest(shard)
	}
}

// evictOldest must be called with shard.mu held.
func (c *BoundedCache) evictOldest(shard *boundedShard) {
	oldest := shard.order.Back()
	if oldest == nil {
		return
	}
	shard.order.Remove(oldest)
	delete(shard.items, oldest.Value.(*CachedEntry).Key)

	shard.evictions++
	atomic.AddInt64(&c.totalEvictions, 1)
}

func (c *BoundedCache) Invalidate(key CacheKey) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if elem, ok := shard.items[key]; ok {
		shard.order.Remove(elem)
		delete(shard.items, key)
	}
}

func (c *BoundedCache) Clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.items = make(map[CacheKey]*list.Element)
		shard.order.Init()
		shard.mu.Unlock()
	}
}

func (c *BoundedCache) Len() int {
	n := 0
	for _, shard := range c.shards {
		shard.mu.Lock()
		n += shard.order.Len()
		shard.mu.Unlock()
	}
	return n
}

// GetStats returns cache statistics
func (c *BoundedCache) GetStats() CacheStats {
	shardStats := make([]ShardStats, len(c.shards))
	var totalSize, totalCapacity int64

	for i, shard := range c.shards {
		shard.mu.Lock()
		stats := ShardStats{
			Size:      int64(shard.order.Len()),
			Capacity:  int64(shard.capacity),
			Evictions: shard.evictions,
		}
		shard.mu.Unlock()

		totalSize += stats.Size
		totalCapacity += stats.Capacity
		shardStats[i] = stats
	}

	totalHits := atomic.LoadInt64(&c.totalHits)
	totalMisses := atomic.LoadInt64(&c.totalMisses)
	hitRatio := float64(0)
	if totalHits+totalMisses > 0 {
		hitRatio = float64(totalHits) / float64(totalHits+totalMisses)
	}

	return CacheStats{
		TotalSize:      totalSize,
		TotalCapacity:  totalCapacity,
		TotalHits:      totalHits,
		TotalMisses:    totalMisses,
		TotalPuts:      atomic.LoadInt64(&c.totalPuts),
		TotalEvictions: atomic.LoadInt64(&c.totalEvictions),
		HitRatio:       hitRatio,
		ShardCount:     int64(len(c.shards)),
		ShardStats:     shardStats,
	}
}

type CacheStats struct {
	TotalSize      int64
	TotalCapacity  int64
	TotalHits      int64
	TotalMisses    int64
	TotalPuts      int64
	TotalEvictions int64
	HitRatio       float64
	ShardCount     int64
	ShardStats     []ShardStats
}

type ShardStats struct {
	Size      int64
	Capacity  int64
	Evictions int64
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}
