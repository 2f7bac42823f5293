// Package chart derives the plotted dataset for one day of tide predictions.
package chart

import (
	"github.com/bbernstein/tidemap/internal/astro"
	"github.com/bbernstein/tidemap/internal/models"
	"github.com/rs/zerolog/log"
	"math"
	"sort"
	"time"
)

type PointKind string

const (
	PointSample PointKind = ""
	PointHigh   PointKind = "high"
	PointLow    PointKind = "low"
)

const (
	tickInterval = 3 * time.Hour
	yPadding     = 0.1

	// placeholder bounds when there is nothing to plot
	landYMin = 0.0
	landYMax = 10.0
)

type Input struct {
	Predictions []models.TidePrediction
	Highs       []models.TideExtreme
	Lows        []models.TideExtreme
	Date        time.Time
	Lat         float64
	Lon         float64
	// Location decides where the day starts; UTC when nil
	Location *time.Location
}

// Point is one plotted sample on the epoch-ms axis
type Point struct {
	T     int64     `json:"t"`
	Depth float64   `json:"depth"`
	Kind  PointKind `json:"kind,omitempty"`
}

// Band is a day or night background span
type Band struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
	Night bool  `json:"night"`
}

type Dataset struct {
	DayStart int64            `json:"dayStart"`
	DayEnd   int64            `json:"dayEnd"`
	Points   []Point          `json:"points"`
	Sun      []astro.SunEvent `json:"sun"`
	Bands    []Band           `json:"bands"`
	Ticks    []int64          `json:"ticks"`
	YMin     float64          `json:"yMin"`
	YMax     float64          `json:"yMax"`
	OnLand   bool             `json:"onLand"`
	Moon     astro.MoonPhase  `json:"moon"`
}

// Derive filters everything to the calendar day of in.Date in in.Location. The Y bounds
// come from every depth sample, not just the selected day, so the scale stays
// put while paging between days.
func Derive(in Input) Dataset {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	d := in.Date.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	ds := Dataset{
		DayStart: start.UnixMilli(),
		DayEnd:   end.UnixMilli(),
		Moon:     astro.Moon(start.Add(12 * time.Hour)),
	}

	yMin, yMax, ok := depthRange(in)
	if !ok {
		ds.OnLand = true
		ds.YMin, ds.YMax = landYMin, landYMax
	} else {
		ds.YMin, ds.YMax = pad(yMin, yMax)
		ds.Points = points(in, ds.DayStart, ds.DayEnd)
	}

	ds.Sun = astro.SunEventsBetween(start, end, in.Lat, in.Lon)
	ds.Bands = bands(start, end, in.Lat, ds.Sun)
	ds.Ticks = ticks(start, end, ds.Sun)
	return ds
}

func depthRange(in Input) (float64, float64, bool) {
	yMin, yMax := math.Inf(1), math.Inf(-1)
	add := func(v float64) {
		yMin = math.Min(yMin, v)
		yMax = math.Max(yMax, v)
	}

	for _, p := range in.Predictions {
		if p.DepthM != nil {
			add(*p.DepthM)
		}
	}
	if math.IsInf(yMin, 1) {
		// extrema alone do not make a water location
		return 0, 0, false
	}
	for _, e := range in.Highs {
		add(e.DepthM)
	}
	for _, e := range in.Lows {
		add(e.DepthM)
	}
	return yMin, yMax, true
}

func pad(lo, hi float64) (float64, float64) {
	margin := (hi - lo) * yPadding
	if margin == 0 {
		margin = 1
	}
	return lo - margin, hi + margin
}

func points(in Input, start, end int64) []Point {
	var out []Point
	inDay := func(t int64) bool { return t >= start && t < end }

	for _, p := range in.Predictions {
		if p.DepthM == nil {
			continue
		}
		t, err := p.Timestamp()
		if err != nil {
			log.Warn().Err(err).Msg("Skipping prediction with bad time")
			continue
		}
		if inDay(t) {
			out = append(out, Point{T: t, Depth: *p.DepthM})
		}
	}

	addExtrema := func(extrema []models.TideExtreme, kind PointKind) {
		for _, e := range extrema {
			t, err := e.Timestamp()
			if err != nil {
				log.Warn().Err(err).Str("kind", string(kind)).Msg("Skipping extreme with bad time")
				continue
			}
			if inDay(t) {
				out = append(out, Point{T: t, Depth: e.DepthM, Kind: kind})
			}
		}
	}
	addExtrema(in.Highs, PointHigh)
	addExtrema(in.Lows, PointLow)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].T < out[j].T
	})
	return out
}

// bands covers [start, end) with alternating day and night spans split at
// each sun event
func bands(start, end time.Time, lat float64, events []astro.SunEvent) []Band {
	var night bool
	if len(events) == 0 {
		_, sunUp := astro.PolarDay(start, lat)
		night = !sunUp
	} else {
		night = events[0].Kind == astro.Sunrise
	}

	var out []Band
	from := start.UnixMilli()
	for _, e := range events {
		at := e.Time.UnixMilli()
		if at > from {
			out = append(out, Band{Start: from, End: at, Night: night})
		}
		from = at
		night = e.Kind == astro.Sunset
	}
	out = append(out, Band{Start: from, End: end.UnixMilli(), Night: night})
	return out
}

func ticks(start, end time.Time, events []astro.SunEvent) []int64 {
	var out []int64
	for t := start; !t.After(end); t = t.Add(tickInterval) {
		out = append(out, t.UnixMilli())
	}
	for _, e := range events {
		out = append(out, e.Time.UnixMilli())
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	unique := out[:0]
	for _, t := range out {
		if n := len(unique); n == 0 || unique[n-1] != t {
			unique = append(unique, t)
		}
	}
	return unique
}
