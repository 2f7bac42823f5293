// Package handler exposes one coordinator per browser session over HTTP.
package handler

import (
	"context"
	"errors"
	"github.com/bbernstein/tidemap/internal/clock"
	"github.com/bbernstein/tidemap/internal/config"
	"github.com/bbernstein/tidemap/internal/coordinator"
	"github.com/bbernstein/tidemap/internal/geocode"
	"github.com/bbernstein/tidemap/internal/lastpos"
	"github.com/bbernstein/tidemap/internal/metrics"
	"github.com/bbernstein/tidemap/internal/models"
	"github.com/bbernstein/tidemap/internal/storage"
	"github.com/bbernstein/tidemap/internal/tide"
	"github.com/bbernstein/tidemap/internal/urlstate"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	cookieName  = "tidemap"
	clientIDKey = "client"
	// See https://developer.chrome.com/blog/cookie-max-age-expires.
	cookieMaxAge = 60 * 60 * 24 * 400
)

// TideAPI is the part of the prediction API the server uses
type TideAPI interface {
	tide.Fetcher
	FetchConstituents(ctx context.Context) ([]models.Constituent, error)
	HealthCheck(ctx context.Context) bool
}

type PlaceSearcher interface {
	Search(ctx context.Context, q string, limit int) ([]geocode.Place, error)
}

type Deps struct {
	Config   *config.Config
	Cache    *config.CacheConfig
	Storage  storage.Storage
	Tide     TideAPI
	Provider geocode.Provider
	Searcher PlaceSearcher

	// Clock and Spawn are handed to every coordinator; nil uses the defaults
	Clock clock.Clock
	Spawn func(func())
}

type session struct {
	id          string
	history     *urlstate.MemoryHistory
	coordinator *coordinator.Coordinator
}

type Server struct {
	deps     Deps
	router   *mux.Router
	cookies  sessions.Store
	missing  []string
	mu       sync.Mutex
	sessions *lru.Cache[string, *session]
}

func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		deps.Config = config.New()
	}
	if deps.Cache == nil {
		deps.Cache = config.GetCacheConfig()
	}
	if deps.Storage == nil {
		deps.Storage = storage.NewMemoryStorage()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}

	s := &Server{deps: deps}

	if err := deps.Config.Validate(); err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			s.missing = missing.Keys
		}
		log.Warn().Err(err).Msg("Serving configuration notice only")
	}

	capacity := deps.Cache.SessionCapacity
	if capacity <= 0 {
		capacity = 1
	}
	cache, err := lru.NewWithEvict[string, *session](capacity, func(id string, sess *session) {
		log.Debug().Str("client", id).Msg("Closing evicted session")
		sess.coordinator.Close()
	})
	if err != nil {
		return nil, err
	}
	s.sessions = cache

	key := []byte(deps.Config.SessionKey)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}
	cookies := sessions.NewCookieStore(key)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   deps.Config.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	}
	s.cookies = cookies

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := mux.NewRouter().StrictSlash(true)
	r.Use(metrics.LatencyHandler(routeTemplate))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.requireConfiguration)
	v1.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	v1.HandleFunc("/position", s.handlePosition).Methods(http.MethodPost)
	v1.HandleFunc("/date", s.handleDate).Methods(http.MethodPost)
	v1.HandleFunc("/history/{direction:back|forward}", s.handleHistory).Methods(http.MethodPost)
	v1.HandleFunc("/chart", s.handleChart).Methods(http.MethodGet)
	v1.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	v1.HandleFunc("/constituents", s.handleConstituents).Methods(http.MethodGet)

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close shuts down every live session
func (s *Server) Close() {
	s.sessions.Purge()
	metrics.SetActiveSessions(0)
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// session returns the caller's session, creating it and its coordinator on
// first contact. The request query seeds the new session's address.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, error) {
	cookie, _ := s.cookies.Get(r, cookieName)
	id, ok := cookie.Values[clientIDKey].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		cookie.Values[clientIDKey] = id
		if err := cookie.Save(r, w); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions.Get(id); ok {
		return sess, nil
	}

	sess, err := s.newSession(id, seedQuery(r.URL.Query()))
	if err != nil {
		return nil, err
	}
	s.sessions.Add(id, sess)
	metrics.SetActiveSessions(s.sessions.Len())
	return sess, nil
}

func (s *Server) newSession(id string, query url.Values) (*session, error) {
	history := urlstate.NewMemoryHistory(query)
	store := lastpos.New(s.deps.Storage,
		lastpos.WithKey(lastpos.DefaultKey+"."+id),
		lastpos.WithTTL(s.deps.Cache.GetLastPositionTTL()),
		lastpos.WithClock(s.deps.Clock),
	)

	c, err := coordinator.New(coordinator.Options{
		History:       history,
		Fetcher:       s.deps.Tide,
		Provider:      s.deps.Provider,
		LastPosition:  store,
		Clock:         s.deps.Clock,
		DebounceDelay: s.deps.Cache.GetDebounceDelay(),
		CacheSize:     s.deps.Cache.GeocodeCacheSize,
		CacheTTL:      s.deps.Cache.GetGeocodeCacheTTL(),
		Spawn:         s.deps.Spawn,
	})
	if err != nil {
		return nil, err
	}
	c.Start()

	log.Info().Str("client", id).Str("position", c.State().MapPosition.String()).Msg("Started session")
	return &session{id: id, history: history, coordinator: c}, nil
}

// seedQuery keeps only the position parameters
func seedQuery(q url.Values) url.Values {
	seed := url.Values{}
	for _, key := range []string{"lat", "lon", "zoom"} {
		if v := q.Get(key); v != "" {
			seed.Set(key, v)
		}
	}
	return seed
}

func (s *Server) now() time.Time {
	return s.deps.Clock.Now()
}
