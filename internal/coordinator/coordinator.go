// Package coordinator owns the map position state and decides when a position
// change loads predictions and resolves a location name.
package coordinator

import (
	"context"
	"errors"
	"github.com/bbernstein/tidemap/internal/chart"
	"github.com/bbernstein/tidemap/internal/clock"
	"github.com/bbernstein/tidemap/internal/debounce"
	"github.com/bbernstein/tidemap/internal/geocode"
	"github.com/bbernstein/tidemap/internal/lastpos"
	"github.com/bbernstein/tidemap/internal/metrics"
	"github.com/bbernstein/tidemap/internal/models"
	"github.com/bbernstein/tidemap/internal/tide"
	"github.com/bbernstein/tidemap/internal/urlstate"
	"github.com/rs/zerolog/log"
	"sync"
	"time"
)

const DefaultDebounceDelay = 500 * time.Millisecond

type Options struct {
	// History is the page address the position is bound to. Required.
	History urlstate.History
	// Fetcher loads predictions. Required.
	Fetcher tide.Fetcher
	// Provider resolves location names; nil names every place
	// geocode.UnknownLocation.
	Provider geocode.Provider
	// LastPosition remembers where the user was; nil disables it.
	LastPosition *lastpos.Store

	Clock         clock.Clock
	DebounceDelay time.Duration
	CacheSize     int
	CacheTTL      time.Duration
	// Location decides where a chart day starts; UTC when nil.
	Location *time.Location
	// Spawn runs background work. Defaults to a goroutine per task.
	Spawn func(func())
}

type Coordinator struct {
	history   *urlstate.Synchronizer[models.MapPosition]
	debouncer *debounce.Debouncer[models.MapPosition]
	resolver  *geocode.Resolver
	fetcher   tide.Fetcher
	lastPos   *lastpos.Store
	spawn     func(func())
	loc       *time.Location

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	machine     *machine
	queue       []Event
	draining    bool
	started     bool
	closed      bool
	subscribers map[int]func(State)
	nextSubID   int
}

func New(opts Options) (*Coordinator, error) {
	if opts.History == nil {
		return nil, errors.New("coordinator needs a history")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("coordinator needs a prediction fetcher")
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.DebounceDelay == 0 {
		opts.DebounceDelay = DefaultDebounceDelay
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Spawn == nil {
		opts.Spawn = func(f func()) { go f() }
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		fetcher:     opts.Fetcher,
		lastPos:     opts.LastPosition,
		spawn:       opts.Spawn,
		loc:         opts.Location,
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[int]func(State)),
	}
	if opts.Provider != nil {
		c.resolver = geocode.NewResolver(geocode.NewCache(opts.CacheSize, opts.CacheTTL, opts.Clock), opts.Provider)
	}

	initial := c.initialPosition(opts.History)
	c.machine = newMachine(initial, opts.Clock.Now(), opts.Location)
	c.history = urlstate.New(opts.History, urlstate.PositionCodec, initial)
	c.history.OnNavigate(func(pos models.MapPosition) {
		c.Dispatch(Navigated{Position: pos})
	})
	c.debouncer = debounce.New(opts.Clock, opts.DebounceDelay, func(pos models.MapPosition) {
		c.Dispatch(Settled{Position: pos})
	})

	log.Debug().Str("position", initial.String()).Msg("Coordinator created")
	return c, nil
}

// initialPosition prefers the URL, then the remembered position, then the
// default
func (c *Coordinator) initialPosition(history urlstate.History) models.MapPosition {
	if pos, err := urlstate.DecodePosition(history.Query()); err == nil {
		return pos
	}
	if c.lastPos != nil {
		if record, ok := c.lastPos.Load(c.ctx); ok {
			return record.Position
		}
	}
	return models.DefaultPosition()
}

// Start resolves the name and loads predictions for the initial position.
// Later calls do nothing.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	effects := c.machine.start()
	c.mu.Unlock()

	c.run(effects)
	c.drain()
}

// Dispatch applies ev. Events dispatched while another event is being handled
// are queued and applied in order by the caller already draining.
func (c *Coordinator) Dispatch(ev Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, ev)
	c.mu.Unlock()

	c.drain()
}

func (c *Coordinator) drain() {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true

	for len(c.queue) > 0 && !c.closed {
		ev := c.queue[0]
		c.queue = c.queue[1:]
		effects := c.machine.update(ev)
		c.mu.Unlock()

		c.run(effects)

		c.mu.Lock()
	}

	c.draining = false
	state := c.machine.state
	subscribers := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
}

func (c *Coordinator) run(effects []effect) {
	for _, e := range effects {
		switch e := e.(type) {
		case scheduleDebounce:
			c.debouncer.Push(e.position)

		case syncURL:
			c.history.Set(e.position)

		case resolveLocation:
			c.resolveLocation(e)

		case fetchPredictions:
			c.fetchPredictions(e)

		case persistPosition:
			if c.lastPos == nil {
				continue
			}
			c.spawn(func() {
				c.lastPos.Save(c.ctx, e.position, e.name)
			})
		}
	}
}

func (c *Coordinator) resolveLocation(e resolveLocation) {
	if c.resolver == nil {
		c.enqueue(GeocodeResolved{Gen: e.gen, Name: geocode.UnknownLocation})
		return
	}

	// a cache hit is applied in the same step, with no network call
	if name, ok := c.resolver.Cached(e.position.Lat, e.position.Lon); ok {
		c.enqueue(GeocodeResolved{Gen: e.gen, Name: name})
		return
	}

	c.spawn(func() {
		name := c.resolver.Lookup(c.ctx, e.position.Lat, e.position.Lon)
		c.Dispatch(GeocodeResolved{Gen: e.gen, Name: name})
	})
}

func (c *Coordinator) fetchPredictions(e fetchPredictions) {
	c.spawn(func() {
		start := time.Now()
		resp, err := c.fetcher.FetchPredictions(c.ctx, e.query)
		metrics.ObserveFetch(fetchOutcome(err), time.Since(start))
		if err != nil {
			log.Error().Err(err).
				Float64("lat", e.query.Lat).
				Float64("lon", e.query.Lon).
				Uint64("gen", e.gen).
				Msg("Failed to fetch tide predictions")
		}
		c.Dispatch(FetchResolved{Gen: e.gen, Response: resp, Err: err})
	})
}

// enqueue queues ev without draining; the running drain picks it up
func (c *Coordinator) enqueue(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.queue = append(c.queue, ev)
	}
}

func fetchOutcome(err error) string {
	var reqErr *tide.RequestFailedError
	var netErr *tide.NetworkFailureError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &reqErr):
		return "request_failed"
	case errors.As(err, &netErr):
		return "network_failure"
	default:
		return "error"
	}
}

// State returns the current snapshot
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.state
}

// Chart derives the plotted dataset for the selected day
func (c *Coordinator) Chart() chart.Dataset {
	s := c.State()
	return chart.Derive(chart.Input{
		Predictions: s.Predictions,
		Highs:       s.Highs,
		Lows:        s.Lows,
		Date:        s.SelectedDate,
		Lat:         s.LoadPosition.Lat,
		Lon:         s.LoadPosition.Lon,
		Location:    c.loc,
	})
}

// Subscribe registers fn to receive the state after every batch of events
func (c *Coordinator) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Close stops the debounce timer, detaches from the history and drops every
// response still in flight
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.queue = nil
	c.machine.invalidate()
	c.mu.Unlock()

	c.debouncer.Close()
	c.history.Close()
	c.cancel()
}
