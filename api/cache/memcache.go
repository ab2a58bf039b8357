package cache

import (
	"context"
	"sync"
	"time"
)

// MemCache is an in-memory cache with small TTLs to absorb bursts of identical reads.
type MemCache[V any] struct {
	memoryCache   sync.Map
	ttl           time.Duration
	cleanupTicker *time.Ticker
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	now           func() time.Time
}

type memCacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

// NewMemCache creates a memory cache whose entries live for ttl.
// Expired entries are swept every cleanupInterval.
func NewMemCache[V any](ttl, cleanupInterval time.Duration) *MemCache[V] {
	ctx, cancel := context.WithCancel(context.Background())
	mc := &MemCache[V]{
		ttl:           ttl,
		cancel:        cancel,
		cleanupTicker: time.NewTicker(cleanupInterval),
		ctx:           ctx,
		now:           time.Now,
	}
	mc.startCleanupWorker()

	return mc
}

// startCleanupWorker starts the background worker for memory cleaning.
func (mc *MemCache[V]) startCleanupWorker() {
	mc.wg.Add(1)
	go func() {
		defer mc.wg.Done()
		for {
			select {
			case <-mc.cleanupTicker.C:
				mc.cleanup()
			case <-mc.ctx.Done():
				return
			}
		}
	}()
}

// cleanup go through each key and clean any expired key.
func (mc *MemCache[V]) cleanup() {
	now := mc.now()
	mc.memoryCache.Range(func(key, value any) bool {
		if now.After(value.(*memCacheItem[V]).expiresAt) {
			mc.memoryCache.Delete(key)
		}
		return true
	})
}

// Close shutdown the memory cache worker.
func (mc *MemCache[V]) Close() {
	mc.cancel()
	mc.cleanupTicker.Stop()
	mc.wg.Wait()
}

// Get returns the value of a key, if present and not expired.
func (mc *MemCache[V]) Get(key string) (V, bool) {
	var zero V

	value, exists := mc.memoryCache.Load(key)
	if !exists {
		return zero, false
	}

	item := value.(*memCacheItem[V])
	if mc.now().After(item.expiresAt) {
		mc.memoryCache.Delete(key)
		return zero, false
	}

	return item.value, true
}

// Set a given key on the cache.
func (mc *MemCache[V]) Set(key string, value V) {
	mc.memoryCache.Store(key, &memCacheItem[V]{
		value:     value,
		expiresAt: mc.now().Add(mc.ttl),
	})
}

// Len counts the stored entries, expired ones included until swept.
func (mc *MemCache[V]) Len() int {
	n := 0
	mc.memoryCache.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
