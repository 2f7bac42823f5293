package models

import (
	"fmt"
	"math"
)

const (
	DefaultLat  = 35.6
	DefaultLon  = 139.8
	DefaultZoom = 10
)

// MapPosition is where the user currently is on the map. It is a value type and
// is always replaced, never mutated in place.
type MapPosition struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Zoom int     `json:"zoom"`
}

// DefaultPosition is used when neither the URL nor the last-position record
// provide a starting point.
func DefaultPosition() MapPosition {
	return MapPosition{Lat: DefaultLat, Lon: DefaultLon, Zoom: DefaultZoom}
}

// Validate checks that the coordinates are on the globe
func (p MapPosition) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("invalid latitude: %f", p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("invalid longitude: %f", p.Lon)
	}
	return nil
}

// SameCoordinates reports whether both positions point at the same lat/lon,
// ignoring zoom.
func (p MapPosition) SameCoordinates(other MapPosition) bool {
	return p.Lat == other.Lat && p.Lon == other.Lon
}

func (p MapPosition) String() string {
	return fmt.Sprintf("%.6f,%.6f@%d", p.Lat, p.Lon, p.Zoom)
}
