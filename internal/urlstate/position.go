package urlstate

import (
	"errors"
	"fmt"
	"github.com/bbernstein/tidemap/internal/models"
	"net/url"
	"strconv"
)

var ErrNoPosition = errors.New("query has no lat/lon")

// PositionCodec binds a MapPosition to the lat, lon and zoom query parameters
var PositionCodec = Codec[models.MapPosition]{
	Decode: DecodePosition,
	Encode: EncodePosition,
}

// DecodePosition requires both lat and lon. A missing or malformed zoom falls
// back to the default zoom.
func DecodePosition(query url.Values) (models.MapPosition, error) {
	latStr, lonStr := query.Get("lat"), query.Get("lon")
	if latStr == "" || lonStr == "" {
		return models.MapPosition{}, ErrNoPosition
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return models.MapPosition{}, fmt.Errorf("parsing lat %q: %w", latStr, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return models.MapPosition{}, fmt.Errorf("parsing lon %q: %w", lonStr, err)
	}

	zoom := models.DefaultZoom
	if zoomStr := query.Get("zoom"); zoomStr != "" {
		if z, err := strconv.Atoi(zoomStr); err == nil {
			zoom = z
		}
	}

	pos := models.MapPosition{Lat: lat, Lon: lon, Zoom: zoom}
	if err := pos.Validate(); err != nil {
		return models.MapPosition{}, err
	}
	return pos, nil
}

func EncodePosition(pos models.MapPosition) map[string]string {
	return map[string]string{
		"lat":  strconv.FormatFloat(pos.Lat, 'f', 6, 64),
		"lon":  strconv.FormatFloat(pos.Lon, 'f', 6, 64),
		"zoom": strconv.Itoa(pos.Zoom),
	}
}
