// Package astro computes the sun and moon overlays for the tide chart.
package astro

import (
	"github.com/keep94/sunrise"
	"math"
	"sort"
	"time"
)

type SunEventKind string

const (
	Sunrise SunEventKind = "sunrise"
	Sunset  SunEventKind = "sunset"
)

type SunEvent struct {
	Time time.Time    `json:"time"`
	Kind SunEventKind `json:"kind"`
}

// sunAltitude is the apparent altitude of the sun's centre at rise and set,
// accounting for refraction and the solar disc
const sunAltitude = -0.833

// SunEvents returns the sunrises and sunsets inside the UTC day containing day,
// in time order. Polar days and nights have none.
func SunEvents(day time.Time, lat, lon float64) []SunEvent {
	start := startOfUTCDay(day)
	return SunEventsBetween(start, start.AddDate(0, 0, 1), lat, lon)
}

// SunEventsBetween is SunEvents for an arbitrary window of at most a day, such
// as a calendar day outside UTC.
func SunEventsBetween(start, end time.Time, lat, lon float64) []SunEvent {
	if polar, _ := PolarDay(start, lat); polar {
		return nil
	}

	// Around only promises an event within a day of the given time, so walk
	// the neighbouring days and keep what lands inside this one.
	var events []SunEvent
	var s sunrise.Sunrise
	s.Around(lat, lon, start.AddDate(0, 0, -1))
	for i := 0; i < 4; i++ {
		for _, e := range []SunEvent{{s.Sunrise(), Sunrise}, {s.Sunset(), Sunset}} {
			if e.Time.IsZero() || e.Time.Before(start) || !e.Time.Before(end) {
				continue
			}
			events = append(events, SunEvent{Time: e.Time.UTC(), Kind: e.Kind})
		}
		s.AddDays(1)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
	return dedupe(events)
}

// PolarDay reports whether the sun stays on one side of the horizon for the
// whole of day at lat, and if so whether it stays up.
func PolarDay(day time.Time, lat float64) (polar bool, sunUp bool) {
	decl := declination(day)
	phi := lat * math.Pi / 180
	h0 := sunAltitude * math.Pi / 180

	cosH := (math.Sin(h0) - math.Sin(phi)*math.Sin(decl)) / (math.Cos(phi) * math.Cos(decl))
	switch {
	case cosH < -1:
		return true, true
	case cosH > 1:
		return true, false
	default:
		return false, false
	}
}

// declination approximates the solar declination in radians at noon UTC
func declination(day time.Time) float64 {
	n := float64(startOfUTCDay(day).YearDay())
	return -23.44 * math.Pi / 180 * math.Cos(2*math.Pi/365*(n+10))
}

func startOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// dedupe drops events of the same kind within a minute of each other, which
// happens when neighbouring days resolve to the same instant
func dedupe(events []SunEvent) []SunEvent {
	out := events[:0]
	for _, e := range events {
		if n := len(out); n > 0 && out[n-1].Kind == e.Kind && e.Time.Sub(out[n-1].Time) < time.Minute {
			continue
		}
		out = append(out, e)
	}
	return out
}
