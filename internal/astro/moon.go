package astro

import (
	"math"
	"time"
)

const synodicMonth = 29.530588853

// referenceNewMoon is the new moon of 6 January 2000
var referenceNewMoon = time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC)

type MoonPhase struct {
	// Age in days since the last new moon
	Age float64 `json:"age"`
	// Fraction of the cycle, 0 at new moon and 0.5 at full
	Fraction float64 `json:"fraction"`
	// Illumination of the visible disc, 0 to 1
	Illumination float64 `json:"illumination"`
	Name         string  `json:"name"`
}

var phaseNames = [8]string{
	"New Moon",
	"Waxing Crescent",
	"First Quarter",
	"Waxing Gibbous",
	"Full Moon",
	"Waning Gibbous",
	"Last Quarter",
	"Waning Crescent",
}

// Moon returns the mean lunar phase at t
func Moon(t time.Time) MoonPhase {
	days := t.Sub(referenceNewMoon).Hours() / 24
	age := math.Mod(days, synodicMonth)
	if age < 0 {
		age += synodicMonth
	}
	fraction := age / synodicMonth

	return MoonPhase{
		Age:          age,
		Fraction:     fraction,
		Illumination: (1 - math.Cos(2*math.Pi*fraction)) / 2,
		Name:         phaseNames[int(math.Floor(fraction*8+0.5))%8],
	}
}
