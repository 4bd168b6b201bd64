package restclient

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gregjones/httpcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCacheStoreMemoryBackend(t *testing.T) {
	store := NewHTTPCacheStore(httpcache.NewMemoryCache())

	_, ok := store.Get("missing")
	assert.False(t, ok)

	store.Put("k1", &CachedEntry{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(`{"id":1}`),
	})
	store.Put("k2", &CachedEntry{StatusCode: 201, Body: []byte("two")})

	got, ok := store.Get("k1")
	require.True(t, ok)
	assert.Equal(t, CacheKey("k1"), got.Key)
	assert.Equal(t, 200, got.StatusCode)
	assert.Equal(t, []byte(`{"id":1}`), got.Body)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.False(t, got.StoredAt.IsZero())
	assert.Equal(t, 2, store.Len())

	store.Invalidate("k1")
	_, ok = store.Get("k1")
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())

	store.Clear()
	_, ok = store.Get("k2")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestHTTPCacheStoreNilBackend(t *testing.T) {
	store := NewHTTPCacheStore(nil)
	store.Put("k", &CachedEntry{StatusCode: 200, Body: []byte("x")})

	got, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("x"), got.Body)
}

func TestPersistentCacheSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")

	first := NewPersistentCache(dir)
	first.Put("k", &CachedEntry{StatusCode: 200, Body: []byte("persisted")})
	assert.Equal(t, 1, first.Len())

	second := NewPersistentCache(dir)
	got, ok := second.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("persisted"), got.Body)
	assert.Equal(t, 1, second.Len())

	second.Clear()
	assert.Equal(t, 0, second.Len())
	_, ok = second.Get("k")
	assert.False(t, ok)
}
