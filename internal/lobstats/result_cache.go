package lobstats

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const keySeparator = "\x1f"

// CacheKey normalizes a query: lobs are sorted and deduplicated so requests
// differing only in order map to the same key.
func CacheKey(country string, lobs []string) string {
	normalized := make([]string, 0, len(lobs))
	seen := make(map[string]struct{}, len(lobs))
	for _, lob := range lobs {
		if _, ok := seen[lob]; ok {
			continue
		}
		seen[lob] = struct{}{}
		normalized = append(normalized, lob)
	}
	sort.Strings(normalized)

	return country + keySeparator + strings.Join(normalized, keySeparator)
}

// CacheObserver is notified of cache lookups.
type CacheObserver interface {
	CacheHit(ctx context.Context)
	CacheMiss(ctx context.Context)
}

// CacheOptions configures a ResultCache.
type CacheOptions struct {
	// TTL of an entry; zero keeps entries for the process lifetime.
	TTL time.Duration
	// MaxEntries bounds the cache, evicting the oldest entry; zero is unbounded.
	MaxEntries int
	// CleanupInterval of the expiry sweeper; defaults to TTL.
	CleanupInterval time.Duration
	Observer        CacheObserver
}

type cacheEntry struct {
	averages  Averages
	cachedAt  time.Time
	expiresAt time.Time
	hitCount  int
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hit_count"`
	Misses     int64   `json:"miss_count"`
	HitRatio   float64 `json:"hit_ratio"`
	TTLSeconds float64 `json:"ttl_seconds"`
}

// ResultCache memoizes an AverageProvider per normalized query.
//
// Only complete, successful results are stored. Concurrent requests for the
// same uncached key share one computation.
type ResultCache struct {
	provider  AverageProvider
	validator *QueryValidator
	observer  CacheObserver
	group     singleflight.Group

	entries   map[string]cacheEntry
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewResultCache wraps provider. Call Stop to end the expiry sweeper.
func NewResultCache(provider AverageProvider, opts CacheOptions) *ResultCache {
	c := &ResultCache{
		provider:  provider,
		validator: defaultQueryValidator,
		observer:  opts.Observer,
		entries:   make(map[string]cacheEntry),
		ttl:       opts.TTL,
		maxSize:   opts.MaxEntries,
		stopChan:  make(chan struct{}),
	}

	if c.ttl > 0 {
		interval := opts.CleanupInterval
		if interval <= 0 {
			interval = c.ttl
		}
		go c.cleanup(interval)
	}

	return c
}

// GetAverages returns the cached result for the query or computes and stores it.
// Validation runs first so an invalid query is never answered from the cache.
func (c *ResultCache) GetAverages(ctx context.Context, country string, lobs []string) (Averages, error) {
	if err := c.validator.Validate(country, lobs); err != nil {
		return nil, err
	}

	key := CacheKey(country, lobs)
	if averages, ok := c.get(key); ok {
		if c.observer != nil {
			c.observer.CacheHit(ctx)
		}
		return averages.Clone(), nil
	}
	if c.observer != nil {
		c.observer.CacheMiss(ctx)
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if averages, ok := c.peek(key); ok {
			return averages, nil
		}

		averages, err := c.provider.GetAverages(ctx, country, lobs)
		if err != nil {
			return nil, err
		}

		stored := averages.Clone()
		c.set(key, stored)
		return stored, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(Averages).Clone(), nil
}

func (c *ResultCache) get(key string) (Averages, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists || entry.expired(time.Now()) {
		c.missCount++
		return nil, false
	}

	entry.hitCount++
	c.entries[key] = entry
	c.hitCount++

	return entry.averages, true
}

// peek looks up key without touching the counters.
func (c *ResultCache) peek(key string) (Averages, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[key]
	if !exists || entry.expired(time.Now()) {
		return nil, false
	}
	return entry.averages, true
}

func (c *ResultCache) set(key string, averages Averages) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	entry := cacheEntry{
		averages: averages,
		cachedAt: now,
	}
	if c.ttl > 0 {
		entry.expiresAt = now.Add(c.ttl)
	}
	c.entries[key] = entry
}

// Invalidate removes the entry for a query.
func (c *ResultCache) Invalidate(country string, lobs []string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, CacheKey(country, lobs))
}

// Len returns the number of stored entries, expired ones included.
func (c *ResultCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *ResultCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	totalRequests := c.hitCount + c.missCount
	hitRatio := float64(0)
	if totalRequests > 0 {
		hitRatio = float64(c.hitCount) / float64(totalRequests)
	}

	return CacheStats{
		Entries:    len(c.entries),
		MaxEntries: c.maxSize,
		Hits:       c.hitCount,
		Misses:     c.missCount,
		HitRatio:   hitRatio,
		TTLSeconds: c.ttl.Seconds(),
	}
}

func (c *ResultCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.cachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.cachedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Stop ends the expiry sweeper. It is safe to call more than once.
func (c *ResultCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}

func (c *ResultCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired(time.Now())
		case <-c.stopChan:
			return
		}
	}
}

func (c *ResultCache) removeExpired(now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
		}
	}
}
