package geocode

import (
	"context"
	"fmt"
	"github.com/muesli/gominatim"
	"github.com/rs/zerolog/log"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultNominatimServer = "https://nominatim.openstreetmap.org"

	// Nominatim's usage policy allows one request per second
	nominatimMinInterval = time.Second
	searchRetries        = 1
)

// Place is a forward search hit the user can commit to
type Place struct {
	Name  string  `json:"name"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Class string  `json:"class,omitempty"`
	Type  string  `json:"type,omitempty"`
}

type searchFunc func(q string, limit int) ([]gominatim.SearchResult, error)

// Searcher does forward place search against a Nominatim server
type Searcher struct {
	mu          sync.Mutex
	last        time.Time
	minInterval time.Duration
	search      searchFunc
}

var serverOnce sync.Once

func NewSearcher(server string) *Searcher {
	if strings.TrimSpace(server) == "" {
		server = DefaultNominatimServer
	}
	// the gominatim server is process-wide, the first configured one wins
	serverOnce.Do(func() {
		gominatim.SetServer(server)
	})

	return &Searcher{
		minInterval: nominatimMinInterval,
		search: func(q string, limit int) ([]gominatim.SearchResult, error) {
			query := gominatim.SearchQuery{
				Q:     q,
				Limit: limit,
			}
			return query.Get()
		},
	}
}

// Search returns up to limit places matching q
func (s *Searcher) Search(ctx context.Context, q string, limit int) ([]Place, error) {
	q = strings.TrimSpace(q)
	if q == "" || limit <= 0 {
		return nil, nil
	}
	if err := s.throttle(ctx); err != nil {
		return nil, err
	}

	var results []gominatim.SearchResult
	var err error
	for attempt := 0; attempt <= searchRetries; attempt++ {
		results, err = s.search(q, limit)
		if err == nil || !isTransient(err) {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Str("query", q).Msg("Transient place search error")
	}
	if err != nil {
		return nil, fmt.Errorf("searching places for %q: %w", q, err)
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		places = append(places, Place{
			Name:  r.DisplayName,
			Lat:   lat,
			Lon:   lon,
			Class: r.Class,
			Type:  r.Type,
		})
		if len(places) >= limit {
			break
		}
	}

	log.Debug().Str("query", q).Int("places", len(places)).Msg("Place search complete")
	return places, nil
}

func (s *Searcher) throttle(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wait := s.minInterval - time.Since(s.last); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	s.last = time.Now()
	return nil
}

// isTransient matches truncated responses
func isTransient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON") || strings.Contains(msg, "EOF")
}
