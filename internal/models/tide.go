package models

import (
	"fmt"
	"time"
)

type TideType string

const (
	TideTypeHigh TideType = "HIGH"
	TideTypeLow  TideType = "LOW"
)

// TidePrediction is a single sample of the prediction series. DepthM is nil for
// land locations where no tidal depth applies.
type TidePrediction struct {
	Time    string   `json:"time"`
	HeightM float64  `json:"height_m"`
	DepthM  *float64 `json:"depth_m,omitempty"`
}

// TideExtreme is a high or low tide. Which one it is depends on the collection
// it came from.
type TideExtreme struct {
	Time   string  `json:"time"`
	DepthM float64 `json:"depth_m"`
}

type Extrema struct {
	Highs []TideExtreme `json:"highs"`
	Lows  []TideExtreme `json:"lows"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TidePredictionsResponse is the body returned by the prediction API
type TidePredictionsResponse struct {
	Predictions []TidePrediction `json:"predictions"`
	Extrema     *Extrema         `json:"extrema,omitempty"`
	Source      string           `json:"source"`
	Location    Location         `json:"location"`
}

// Constituent is a harmonic constituent as listed by the prediction API
type Constituent struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Speed       float64 `json:"speed"`
}

// ParseTime parses the ISO-8601 timestamps used by the prediction API
func ParseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %s: %w", value, err)
	}
	return t, nil
}

// Timestamp returns the prediction time in epoch milliseconds
func (tp TidePrediction) Timestamp() (int64, error) {
	t, err := ParseTime(tp.Time)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

func (te TideExtreme) Timestamp() (int64, error) {
	t, err := ParseTime(te.Time)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// Highs returns the high tides, or nil when the response carried no extrema
func (r *TidePredictionsResponse) Highs() []TideExtreme {
	if r == nil || r.Extrema == nil {
		return nil
	}
	return r.Extrema.Highs
}

func (r *TidePredictionsResponse) Lows() []TideExtreme {
	if r == nil || r.Extrema == nil {
		return nil
	}
	return r.Extrema.Lows
}
