// Package lastpos remembers the most recent resolved position and its label
// across sessions.
package lastpos

import (
	"context"
	"encoding/json"
	"github.com/bbernstein/tidemap/internal/clock"
	"github.com/bbernstein/tidemap/internal/models"
	"github.com/bbernstein/tidemap/internal/storage"
	"github.com/rs/zerolog/log"
	"time"
)

const (
	DefaultKey = "tidemap.lastPosition"
	DefaultTTL = 30 * 24 * time.Hour
)

// Store never returns errors: every storage failure is logged and treated as
// an absent record.
type Store struct {
	storage storage.Storage
	key     string
	ttl     time.Duration
	clock   clock.Clock
}

type Option func(*Store)

// WithKey overrides the storage key, e.g. to keep one record per client
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

func New(backend storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage: backend,
		key:     DefaultKey,
		ttl:     DefaultTTL,
		clock:   clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save records position and name with the current time
func (s *Store) Save(ctx context.Context, position models.MapPosition, locationName string) {
	record := models.LastPositionRecord{
		Position:     position,
		LocationName: locationName,
		Timestamp:    s.clock.Now().UnixMilli(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode last position")
		return
	}
	if err := s.storage.SetItem(ctx, s.key, string(data)); err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("Failed to save last position")
		return
	}

	log.Debug().
		Str("key", s.key).
		Str("position", position.String()).
		Str("location", locationName).
		Msg("Saved last position")
}

// Load returns the stored record unless it is missing, malformed or older than
// the TTL. Expired records are deleted.
func (s *Store) Load(ctx context.Context) (models.LastPositionRecord, bool) {
	value, ok, err := s.storage.GetItem(ctx, s.key)
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("Failed to read last position")
		return models.LastPositionRecord{}, false
	}
	if !ok {
		return models.LastPositionRecord{}, false
	}

	record, err := models.ParseLastPositionRecord([]byte(value))
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("Ignoring malformed last position")
		return models.LastPositionRecord{}, false
	}

	age := s.clock.Now().Sub(time.UnixMilli(record.Timestamp))
	if age > s.ttl {
		log.Debug().Dur("age", age).Str("key", s.key).Msg("Last position expired")
		s.Clear(ctx)
		return models.LastPositionRecord{}, false
	}

	return record, true
}

func (s *Store) Clear(ctx context.Context) {
	if err := s.storage.RemoveItem(ctx, s.key); err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("Failed to clear last position")
	}
}
