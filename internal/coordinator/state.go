package coordinator

import (
	"github.com/bbernstein/tidemap/internal/models"
	"time"
)

// LoadingName is shown while the location name is being resolved
const LoadingName = "Loading…"

const titleSuffix = "Tide Map"

// State is a snapshot of everything the display layer renders. Slices are
// replaced wholesale and never modified in place, so snapshots may share them.
type State struct {
	MapPosition       models.MapPosition      `json:"mapPosition"`
	DebouncedPosition models.MapPosition      `json:"debouncedPosition"`
	LoadPosition      models.MapPosition      `json:"loadPosition"`
	LocationName      string                  `json:"locationName"`
	Title             string                  `json:"title"`
	SelectedDate      time.Time               `json:"selectedDate"`
	Loading           bool                    `json:"loading"`
	Error             string                  `json:"error,omitempty"`
	Predictions       []models.TidePrediction `json:"predictions"`
	Highs             []models.TideExtreme    `json:"highs"`
	Lows              []models.TideExtreme    `json:"lows"`
	Source            string                  `json:"source,omitempty"`
}

func title(name string) string {
	if name == "" || name == LoadingName {
		return titleSuffix
	}
	return name + " - " + titleSuffix
}
