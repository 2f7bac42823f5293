package coordinator

import (
	"github.com/bbernstein/tidemap/internal/models"
	"time"
)

// Event is an input to the coordinator. Every state change goes through one.
type Event interface {
	event()
}

// PositionChanged comes from the map. Immediate is set for committed actions
// (click, marker drag end, geolocation, confirming a search result) and unset
// for passive panning and zooming.
type PositionChanged struct {
	Position  models.MapPosition
	Immediate bool
}

// DateChanged selects another chart day
type DateChanged struct {
	Date time.Time
}

// Settled is the debounced echo of the map position
type Settled struct {
	Position models.MapPosition
}

// Navigated is a history back/forward move to a decoded position
type Navigated struct {
	Position models.MapPosition
}

// GeocodeResolved carries a location name for request generation Gen
type GeocodeResolved struct {
	Gen  uint64
	Name string
}

// FetchResolved carries the outcome of prediction request generation Gen
type FetchResolved struct {
	Gen      uint64
	Response *models.TidePredictionsResponse
	Err      error
}

func (PositionChanged) event() {}
func (DateChanged) event()     {}
func (Settled) event()         {}
func (Navigated) event()       {}
func (GeocodeResolved) event() {}
func (FetchResolved) event()   {}
