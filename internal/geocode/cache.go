// Package geocode turns coordinates into display names.
package geocode

import (
	"fmt"
	"github.com/bbernstein/tidemap/internal/clock"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/rs/zerolog/log"
	"math"
	"sync"
	"time"
)

const (
	DefaultCacheSize = 100
	DefaultCacheTTL  = 30 * time.Minute

	// keyPrecision of 4 decimal places is roughly 11m
	keyPrecision = 4
)

// Entry is a cached display name and when it was stored, in epoch ms
type Entry struct {
	LocationName string
	Timestamp    int64
}

// Cache memoizes reverse geocoding results. Eviction is by insertion order:
// reads never refresh an entry, so the earliest-stored entry is the first to
// go when the cache is full.
type Cache struct {
	mu      sync.Mutex
	entries *simplelru.LRU[string, *Entry]
	maxSize int
	ttl     time.Duration
	clock   clock.Clock
}

func NewCache(maxSize int, ttl time.Duration, clk clock.Clock) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clk == nil {
		clk = clock.New()
	}

	entries, err := simplelru.NewLRU[string, *Entry](maxSize, nil)
	if err != nil {
		// only fails for a non-positive size, which is excluded above
		panic(fmt.Sprintf("creating geocode cache: %v", err))
	}

	return &Cache{
		entries: entries,
		maxSize: maxSize,
		ttl:     ttl,
		clock:   clk,
	}
}

// Key rounds both coordinates to the cache precision
func Key(lat, lon float64) string {
	return fmt.Sprintf("%.*f,%.*f", keyPrecision, round(lat), keyPrecision, round(lon))
}

func round(v float64) float64 {
	scale := math.Pow(10, keyPrecision)
	// adding zero turns -0 into 0 so both print the same
	return math.Round(v*scale)/scale + 0
}

func (c *Cache) Get(lat, lon float64) (string, bool) {
	key := Key(lat, lon)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Peek(key)
	if !ok {
		return "", false
	}

	age := c.clock.Now().UnixMilli() - entry.Timestamp
	if age > c.ttl.Milliseconds() {
		c.entries.Remove(key)
		log.Debug().Str("key", key).Int64("ageMs", age).Msg("Geocode cache entry expired")
		return "", false
	}

	return entry.LocationName, true
}

// Set stores name for the rounded coordinates. Overwriting an existing key
// refreshes its name and timestamp but keeps its place in the eviction order.
func (c *Cache) Set(lat, lon float64, name string) {
	key := Key(lat, lon)
	now := c.clock.Now().UnixMilli()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Add would move the key to the newest slot, so update in place
	if entry, ok := c.entries.Peek(key); ok {
		entry.LocationName = name
		entry.Timestamp = now
		return
	}

	if c.entries.Len() >= c.maxSize {
		if oldest, _, ok := c.entries.RemoveOldest(); ok {
			log.Debug().Str("key", oldest).Msg("Evicted oldest geocode cache entry")
		}
	}

	c.entries.Add(key, &Entry{
		LocationName: name,
		Timestamp:    now,
	})
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
