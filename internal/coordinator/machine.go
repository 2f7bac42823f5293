package coordinator

import (
	"github.com/bbernstein/tidemap/internal/models"
	"github.com/bbernstein/tidemap/internal/tide"
	"time"
)

// effects are produced by update and carried out by the Coordinator once the
// transition is complete

type scheduleDebounce struct {
	position models.MapPosition
}

type syncURL struct {
	position models.MapPosition
}

type resolveLocation struct {
	gen      uint64
	position models.MapPosition
}

type fetchPredictions struct {
	gen   uint64
	query tide.Query
}

type persistPosition struct {
	position models.MapPosition
	name     string
}

type effect interface{}

// machine owns the state and the request generations. It performs no I/O.
type machine struct {
	state      State
	geocodeGen uint64
	fetchGen   uint64
	loc        *time.Location

	// geocoding is the position of the newest lookup, namedAt the position
	// the current LocationName belongs to
	geocoding models.MapPosition
	namedAt   *models.MapPosition
}

func newMachine(initial models.MapPosition, date time.Time, loc *time.Location) *machine {
	return &machine{
		state: State{
			MapPosition:       initial,
			DebouncedPosition: initial,
			LoadPosition:      initial,
			LocationName:      LoadingName,
			Title:             title(LoadingName),
			SelectedDate:      date,
		},
		loc: loc,
	}
}

// start issues the lookups for the initial position
func (m *machine) start() []effect {
	return []effect{
		m.geocode(m.state.DebouncedPosition),
		m.fetch(),
	}
}

func (m *machine) update(ev Event) []effect {
	switch ev := ev.(type) {
	case PositionChanged:
		if ev.Immediate {
			return m.commit(ev.Position)
		}
		m.state.MapPosition = ev.Position
		return []effect{
			scheduleDebounce{position: ev.Position},
			syncURL{position: ev.Position},
		}

	case Navigated:
		// the URL already holds this position
		m.state.MapPosition = ev.Position
		return []effect{scheduleDebounce{position: ev.Position}}

	case Settled:
		return m.settle(ev.Position)

	case DateChanged:
		if sameDay(m.state.SelectedDate, ev.Date, m.loc) {
			m.state.SelectedDate = ev.Date
			return nil
		}
		m.state.SelectedDate = ev.Date
		return []effect{m.fetch()}

	case GeocodeResolved:
		if ev.Gen != m.geocodeGen {
			return nil
		}
		named := m.geocoding
		m.namedAt = &named
		m.state.LocationName = ev.Name
		m.state.Title = title(ev.Name)
		return m.persist()

	case FetchResolved:
		if ev.Gen != m.fetchGen {
			return nil
		}
		m.state.Loading = false
		if ev.Err != nil {
			m.state.Predictions = nil
			m.state.Highs = nil
			m.state.Lows = nil
			m.state.Source = ""
			m.state.Error = ev.Err.Error()
			return nil
		}
		m.state.Predictions = ev.Response.Predictions
		m.state.Highs = ev.Response.Highs()
		m.state.Lows = ev.Response.Lows()
		m.state.Source = ev.Response.Source
		m.state.Error = ""
		return nil
	}
	return nil
}

// commit is the immediate path: no debounce lag before loading
func (m *machine) commit(pos models.MapPosition) []effect {
	m.state.MapPosition = pos
	m.state.LocationName = LoadingName
	m.state.Title = title(LoadingName)
	m.namedAt = nil

	effects := []effect{
		scheduleDebounce{position: pos},
		syncURL{position: pos},
	}
	if m.setLoadPosition(pos) {
		effects = append(effects, m.fetch())
	}
	return effects
}

func (m *machine) settle(pos models.MapPosition) []effect {
	prev := m.state.DebouncedPosition
	m.state.DebouncedPosition = pos

	var effects []effect
	if m.setLoadPosition(pos) {
		effects = append(effects, m.fetch())
	}

	// a commit to the current coordinates resets the name without moving the
	// debounced position, so the sentinel also asks for a lookup
	if !prev.SameCoordinates(pos) || m.state.LocationName == LoadingName {
		return append(effects, m.geocode(pos))
	}
	return append(effects, m.persist()...)
}

// setLoadPosition reports whether the coordinates changed; zoom alone does
// not warrant a new fetch
func (m *machine) setLoadPosition(pos models.MapPosition) bool {
	changed := !m.state.LoadPosition.SameCoordinates(pos)
	m.state.LoadPosition = pos
	return changed
}

func (m *machine) geocode(pos models.MapPosition) effect {
	m.geocodeGen++
	m.geocoding = pos
	return resolveLocation{gen: m.geocodeGen, position: pos}
}

func (m *machine) fetch() effect {
	m.fetchGen++
	m.state.Loading = true
	pos := m.state.LoadPosition
	return fetchPredictions{
		gen:   m.fetchGen,
		query: tide.DayQuery(pos.Lat, pos.Lon, m.state.SelectedDate, m.loc),
	}
}

// persist saves the settled position once its name is known
func (m *machine) persist() []effect {
	if m.state.LocationName == LoadingName || m.namedAt == nil {
		return nil
	}
	if !m.namedAt.SameCoordinates(m.state.DebouncedPosition) {
		return nil
	}
	return []effect{persistPosition{
		position: m.state.DebouncedPosition,
		name:     m.state.LocationName,
	}}
}

// invalidate drops whatever is still in flight
func (m *machine) invalidate() {
	m.geocodeGen++
	m.fetchGen++
	m.state.Loading = false
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	return tide.StartOfDay(a, loc).Equal(tide.StartOfDay(b, loc))
}
