package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL applies when Set is called without a TTL
const DefaultTTL = 10 * time.Minute

// MemoryCache is a size-bounded in-process cache with per-entry expiry
type MemoryCache struct {
	mu       sync.Mutex
	items    map[string]*cacheItem
	maxBytes int64
	bytes    int64

	hits, misses, sets, evictions atomic.Int64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

type cacheItem struct {
	value  []byte
	expiry time.Time
	size   int64
}

// NewMemoryCache creates a cache holding at most maxSizeMB megabytes.
// Expired entries are swept every cleanupInterval (one minute when zero).
func NewMemoryCache(maxSizeMB int64, cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	mc := &MemoryCache{
		items:    make(map[string]*cacheItem),
		maxBytes: maxSizeMB * 1024 * 1024,
		stopCh:   make(chan struct{}),
	}

	mc.wg.Add(1)
	go mc.cleanupExpired(cleanupInterval)

	return mc
}

// Get retrieves a value from the cache
func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, exists := mc.items[key]
	if !exists {
		mc.misses.Add(1)
		return nil, false
	}

	if time.Now().After(item.expiry) {
		mc.removeLocked(key, item)
		mc.misses.Add(1)
		return nil, false
	}

	mc.hits.Add(1)
	return item.value, true
}

// Set stores a value in the cache with a TTL
func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	size := int64(len(key) + len(value))

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if old, exists := mc.items[key]; exists {
		mc.removeLocked(key, old)
	}
	mc.makeRoomLocked(size)

	mc.items[key] = &cacheItem{value: value, expiry: time.Now().Add(ttl), size: size}
	mc.bytes += size
	mc.sets.Add(1)
	return nil
}

// Delete removes a value from the cache
func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	if item, exists := mc.items[key]; exists {
		mc.removeLocked(key, item)
	}
	mc.mu.Unlock()
	return nil
}

// Clear removes all values from the cache
func (mc *MemoryCache) Clear(ctx context.Context) error {
	mc.mu.Lock()
	mc.items = make(map[string]*cacheItem)
	mc.bytes = 0
	mc.mu.Unlock()
	return nil
}

// Stats returns cache statistics
func (mc *MemoryCache) Stats() Stats {
	mc.mu.Lock()
	entries, bytes := len(mc.items), mc.bytes
	mc.mu.Unlock()

	return Stats{
		Hits:      mc.hits.Load(),
		Misses:    mc.misses.Load(),
		Sets:      mc.sets.Load(),
		Evictions: mc.evictions.Load(),
		Entries:   entries,
		Bytes:     bytes,
		MaxBytes:  mc.maxBytes,
	}
}

// Stop shuts down the sweeper; safe to call more than once
func (mc *MemoryCache) Stop() {
	mc.stopOnce.Do(func() { close(mc.stopCh) })
	mc.wg.Wait()
}

// cleanupExpired removes expired items periodically
func (mc *MemoryCache) cleanupExpired(interval time.Duration) {
	defer mc.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			mc.removeExpiredLocked(time.Now())
			mc.mu.Unlock()
		case <-mc.stopCh:
			return
		}
	}
}

func (mc *MemoryCache) removeLocked(key string, item *cacheItem) {
	delete(mc.items, key)
	mc.bytes -= item.size
}

func (mc *MemoryCache) removeExpiredLocked(now time.Time) {
	for key, item := range mc.items {
		if now.After(item.expiry) {
			mc.removeLocked(key, item)
			mc.evictions.Add(1)
		}
	}
}

// makeRoomLocked evicts expired entries, then the soonest-expiring ones,
// until sizeNeeded fits under the limit
func (mc *MemoryCache) makeRoomLocked(sizeNeeded int64) {
	if mc.maxBytes <= 0 || mc.bytes+sizeNeeded <= mc.maxBytes {
		return
	}

	mc.removeExpiredLocked(time.Now())

	for mc.bytes+sizeNeeded > mc.maxBytes && len(mc.items) > 0 {
		var victim string
		var soonest time.Time
		for key, item := range mc.items {
			if victim == "" || item.expiry.Before(soonest) {
				victim, soonest = key, item.expiry
			}
		}
		mc.removeLocked(victim, mc.items[victim])
		mc.evictions.Add(1)
	}
}
