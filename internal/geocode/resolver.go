package geocode

import (
	"context"
	"github.com/bbernstein/tidemap/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Resolver answers from the cache when it can and asks the provider otherwise
type Resolver struct {
	cache    *Cache
	provider Provider
}

func NewResolver(cache *Cache, provider Provider) *Resolver {
	return &Resolver{
		cache:    cache,
		provider: provider,
	}
}

// Cached returns a fresh cached name without touching the network
func (r *Resolver) Cached(lat, lon float64) (string, bool) {
	name, ok := r.cache.Get(lat, lon)
	if ok {
		metrics.CountGeocode(metrics.GeocodeCacheHit)
	}
	return name, ok
}

// Lookup asks the provider and caches a composed name. Failures of any kind
// resolve to UnknownLocation and are not cached.
func (r *Resolver) Lookup(ctx context.Context, lat, lon float64) string {
	status, results, err := r.provider.Reverse(ctx, lat, lon)
	if err != nil {
		log.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("Reverse geocoding failed")
		metrics.CountGeocode(metrics.GeocodeFailure)
		return UnknownLocation
	}
	if status != StatusOK || len(results) == 0 {
		log.Warn().
			Str("status", string(status)).
			Int("results", len(results)).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("Reverse geocoding returned no usable result")
		metrics.CountGeocode(metrics.GeocodeFailure)
		return UnknownLocation
	}

	name := ComposeName(results)
	r.cache.Set(lat, lon, name)
	metrics.CountGeocode(metrics.GeocodeProvider)

	log.Debug().Float64("lat", lat).Float64("lon", lon).Str("name", name).Msg("Resolved location name")
	return name
}

// Resolve is Cached followed by Lookup on a miss
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) string {
	if name, ok := r.Cached(lat, lon); ok {
		return name
	}
	return r.Lookup(ctx, lat, lon)
}

func (r *Resolver) Cache() *Cache {
	return r.cache
}
