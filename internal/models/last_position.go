package models

import (
	"encoding/json"
	"fmt"
)

// LastPositionRecord is the persisted most recent position and its label.
// Timestamp is in epoch milliseconds.
type LastPositionRecord struct {
	Position     MapPosition `json:"position"`
	LocationName string      `json:"locationName"`
	Timestamp    int64       `json:"timestamp"`
}

// rawLastPosition mirrors LastPositionRecord with pointers so that missing
// fields can be told apart from zero values.
type rawLastPosition struct {
	Position *struct {
		Lat  *float64 `json:"lat"`
		Lon  *float64 `json:"lon"`
		Zoom *int     `json:"zoom"`
	} `json:"position"`
	LocationName *string `json:"locationName"`
	Timestamp    *int64  `json:"timestamp"`
}

// ParseLastPositionRecord decodes a stored record, rejecting anything malformed
// or partial.
func ParseLastPositionRecord(data []byte) (LastPositionRecord, error) {
	var raw rawLastPosition
	if err := json.Unmarshal(data, &raw); err != nil {
		return LastPositionRecord{}, fmt.Errorf("decoding last position: %w", err)
	}

	if raw.Position == nil || raw.Position.Lat == nil || raw.Position.Lon == nil || raw.Position.Zoom == nil {
		return LastPositionRecord{}, fmt.Errorf("last position is missing coordinates")
	}
	if raw.LocationName == nil {
		return LastPositionRecord{}, fmt.Errorf("last position is missing location name")
	}
	if raw.Timestamp == nil {
		return LastPositionRecord{}, fmt.Errorf("last position is missing timestamp")
	}

	record := LastPositionRecord{
		Position: MapPosition{
			Lat:  *raw.Position.Lat,
			Lon:  *raw.Position.Lon,
			Zoom: *raw.Position.Zoom,
		},
		LocationName: *raw.LocationName,
		Timestamp:    *raw.Timestamp,
	}
	if err := record.Position.Validate(); err != nil {
		return LastPositionRecord{}, fmt.Errorf("invalid last position: %w", err)
	}
	return record, nil
}
