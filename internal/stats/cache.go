package stats

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/keiba-stats/internal/metrics"
	"github.com/yourusername/keiba-stats/internal/models"
)

// CacheKey identifies a computed table
type CacheKey struct {
	Fingerprint string
	Ticket      models.TicketType
	Family      Family
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Fingerprint, k.Ticket, k.Family)
}

// Fingerprint hashes a race set so identical inputs share cache entries
func Fingerprint(races []*models.Race) string {
	data, err := json.Marshal(races)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// TableCache provides in-memory caching for computed statistics tables
type TableCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewTableCache creates a new table cache
func NewTableCache(ttl, cleanupInterval time.Duration) *TableCache {
	return &TableCache{
		cache: cache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// Get retrieves a cached table
func (tc *TableCache) Get(key CacheKey) (*Table, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if key.Fingerprint != "" {
		if result, found := tc.cache.Get(key.String()); found {
			if table, ok := result.(*Table); ok {
				tc.hitCount++
				tc.updateMetrics()
				return table, true
			}
		}
	}

	tc.missCount++
	tc.updateMetrics()
	return nil, false
}

// Set stores a table in cache
func (tc *TableCache) Set(key CacheKey, table *Table) {
	if key.Fingerprint == "" {
		return
	}
	tc.cache.Set(key.String(), table, tc.ttl)
}

// Clear flushes the entire cache
func (tc *TableCache) Clear() {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.cache.Flush()
	tc.hitCount = 0
	tc.missCount = 0
}

// Stats returns cache statistics
func (tc *TableCache) Stats() (hits, misses uint64, ratio float64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.hitCount, tc.missCount, tc.ratio()
}

// ItemCount returns the number of items in cache
func (tc *TableCache) ItemCount() int {
	return tc.cache.ItemCount()
}

func (tc *TableCache) ratio() float64 {
	total := tc.hitCount + tc.missCount
	if total == 0 {
		return 0
	}
	return float64(tc.hitCount) / float64(total)
}

// updateMetrics must be called with mu held
func (tc *TableCache) updateMetrics() {
	metrics.UpdateCacheHitRatio(tc.ratio())
}
