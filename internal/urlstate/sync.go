// Package urlstate keeps an in-memory value bound to the query string of the
// current page address, including back/forward navigation.
package urlstate

import (
	"github.com/rs/zerolog/log"
	"net/url"
	"sync"
)

// Codec maps a value to query parameters and back. Encode returns one entry
// per managed key; an empty value removes the key from the query.
type Codec[T any] struct {
	Decode func(url.Values) (T, error)
	Encode func(T) map[string]string
}

type Synchronizer[T any] struct {
	history  History
	codec    Codec[T]
	fallback T

	mu         sync.Mutex
	value      T
	onNavigate func(T)
	remove     func()
}

// New primes the value from the current query. Nothing is written to history
// while priming.
func New[T any](history History, codec Codec[T], fallback T) *Synchronizer[T] {
	s := &Synchronizer[T]{
		history:  history,
		codec:    codec,
		fallback: fallback,
	}
	s.value = s.decode(history.Query())
	s.remove = history.Listen(s.handleNavigation)
	return s
}

func (s *Synchronizer[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// OnNavigate registers the callback run after back/forward navigation changed
// the value.
func (s *Synchronizer[T]) OnNavigate(fn func(T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNavigate = fn
}

// Set stores value and pushes a history entry for it. It reports whether an
// entry was pushed; an unchanged query is not pushed again.
func (s *Synchronizer[T]) Set(value T) bool {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()

	current := s.history.Query()
	next := cloneValues(current)
	for key, encoded := range s.codec.Encode(value) {
		if encoded == "" {
			next.Del(key)
			continue
		}
		next.Set(key, encoded)
	}

	if next.Encode() == current.Encode() {
		return false
	}
	s.history.Push(next)
	return true
}

// Close stops listening for navigation.
func (s *Synchronizer[T]) Close() {
	s.mu.Lock()
	remove := s.remove
	s.remove = nil
	s.mu.Unlock()

	if remove != nil {
		remove()
	}
}

func (s *Synchronizer[T]) handleNavigation() {
	value := s.decode(s.history.Query())

	s.mu.Lock()
	s.value = value
	callback := s.onNavigate
	s.mu.Unlock()

	if callback != nil {
		callback(value)
	}
}

func (s *Synchronizer[T]) decode(query url.Values) T {
	value, err := s.codec.Decode(query)
	if err != nil {
		log.Debug().Err(err).Str("query", query.Encode()).Msg("URL state not decodable, using fallback")
		return s.fallback
	}
	return value
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}
