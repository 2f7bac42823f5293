package config

import (
	"github.com/rs/zerolog/log"
	"os"
	"strconv"
	"time"
)

// CacheConfig holds the cache, timing and session knobs
type CacheConfig struct {
	// Geocoding cache, one per session
	GeocodeCacheSize       int
	GeocodeCacheTTLMinutes int

	LastPositionTTLDays int
	DebounceMillis      int

	// Sessions held in memory before the oldest is closed
	SessionCapacity int
}

const (
	defaultGeocodeCacheSize       = 100
	defaultGeocodeCacheTTLMinutes = 30
	defaultLastPositionTTLDays    = 30
	defaultDebounceMillis         = 500
	defaultSessionCapacity        = 1000
)

// GetCacheConfig returns the cache configuration from environment variables or defaults
func GetCacheConfig() *CacheConfig {
	config := &CacheConfig{
		GeocodeCacheSize:       getEnvInt("CACHE_GEOCODE_SIZE", defaultGeocodeCacheSize),
		GeocodeCacheTTLMinutes: getEnvInt("CACHE_GEOCODE_TTL_MINUTES", defaultGeocodeCacheTTLMinutes),
		LastPositionTTLDays:    getEnvInt("CACHE_LAST_POSITION_TTL_DAYS", defaultLastPositionTTLDays),
		DebounceMillis:         getEnvInt("DEBOUNCE_MILLIS", defaultDebounceMillis),
		SessionCapacity:        getEnvInt("SESSION_CAPACITY", defaultSessionCapacity),
	}

	log.Debug().
		Int("GeocodeCacheSize", config.GeocodeCacheSize).
		Int("GeocodeCacheTTLMinutes", config.GeocodeCacheTTLMinutes).
		Int("LastPositionTTLDays", config.LastPositionTTLDays).
		Int("DebounceMillis", config.DebounceMillis).
		Int("SessionCapacity", config.SessionCapacity).
		Msg("Cache configuration loaded")

	return config
}

func (c *CacheConfig) GetGeocodeCacheTTL() time.Duration {
	return time.Duration(c.GeocodeCacheTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetLastPositionTTL() time.Duration {
	return time.Duration(c.LastPositionTTLDays) * 24 * time.Hour
}

func (c *CacheConfig) GetDebounceDelay() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}
