package restclient

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/peterbourgon/diskv"
)

// persistentCacheSizeMax bounds the in-memory read cache of a persistent store.
const persistentCacheSizeMax = 16 * 1024 * 1024

// HTTPCacheStore adapts an httpcache.Cache backend into a CacheStore. Entries
// are stored as JSON blobs under the cache key.
type HTTPCacheStore struct {
	backend httpcache.Cache
	disk    *diskv.Diskv

	mu   sync.Mutex
	keys map[CacheKey]struct{}
}

// NewHTTPCacheStore wraps backend. Len and Clear only see entries written
// through this store.
func NewHTTPCacheStore(backend httpcache.Cache) *HTTPCacheStore {
	if backend == nil {
		backend = httpcache.NewMemoryCache()
	}
	return &HTTPCacheStore{
		backend: backend,
		keys:    make(map[CacheKey]struct{}),
	}
}

// NewPersistentCache returns a CacheStore kept under dir, so offline fallback
// keeps working across restarts. Writes go through a temporary directory and
// are renamed into place.
func NewPersistentCache(dir string) *HTTPCacheStore {
	d := diskv.New(diskv.Options{
		BasePath:     dir,
		TempDir:      dir + ".tmp",
		CacheSizeMax: persistentCacheSizeMax,
	})
	return &HTTPCacheStore{
		backend: diskcache.NewWithDiskv(d),
		disk:    d,
		keys:    make(map[CacheKey]struct{}),
	}
}

type storedEntry struct {
	StatusCode int                 `json:"status_code"`
	Header     map[string][]string `json:"header,omitempty"`
	Body       []byte              `json:"body"`
	StoredAt   time.Time           `json:"stored_at"`
}

func (s *HTTPCacheStore) Get(key CacheKey) (*CachedEntry, bool) {
	data, ok := s.backend.Get(string(key))
	if !ok {
		return nil, false
	}
	var stored storedEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, false
	}
	return &CachedEntry{
		Key:        key,
		StatusCode: stored.StatusCode,
		Header:     stored.Header,
		Body:       stored.Body,
		StoredAt:   stored.StoredAt,
	}, true
}

func (s *HTTPCacheStore) Put(key CacheKey, entry *CachedEntry) {
	if entry == nil {
		return
	}
	stored := storedEntry{
		StatusCode: entry.StatusCode,
		Header:     entry.Header,
		Body:       entry.Body,
		StoredAt:   entry.StoredAt,
	}
	if stored.StoredAt.IsZero() {
		stored.StoredAt = time.Now()
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend.Set(string(key), data)
	s.keys[key] = struct{}{}
}

func (s *HTTPCacheStore) Invalidate(key CacheKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend.Delete(string(key))
	delete(s.keys, key)
}

func (s *HTTPCacheStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disk != nil {
		_ = s.disk.EraseAll()
	} else {
		for key := range s.keys {
			s.backend.Delete(string(key))
		}
	}
	s.keys = make(map[CacheKey]struct{})
}

// Len returns the number of stored entries. For a persistent store this
// includes entries written by earlier processes.
func (s *HTTPCacheStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disk == nil {
		return len(s.keys)
	}
	n := 0
	for range s.disk.Keys(nil) {
		n++
	}
	return n
}
