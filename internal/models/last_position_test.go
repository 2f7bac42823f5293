package models

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseLastPositionRecord(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    LastPositionRecord
		wantErr bool
	}{
		{
			name: "complete record",
			data: `{"position":{"lat":40.7128,"lon":-74.006,"zoom":12},"locationName":"New York","timestamp":1700000000000}`,
			want: LastPositionRecord{
				Position:     MapPosition{Lat: 40.7128, Lon: -74.006, Zoom: 12},
				LocationName: "New York",
				Timestamp:    1700000000000,
			},
		},
		{name: "not json", data: `{{`, wantErr: true},
		{name: "missing position", data: `{"locationName":"x","timestamp":1}`, wantErr: true},
		{name: "missing zoom", data: `{"position":{"lat":1,"lon":2},"locationName":"x","timestamp":1}`, wantErr: true},
		{name: "fractional zoom", data: `{"position":{"lat":1,"lon":2,"zoom":1.5},"locationName":"x","timestamp":1}`, wantErr: true},
		{name: "string latitude", data: `{"position":{"lat":"1","lon":2,"zoom":3},"locationName":"x","timestamp":1}`, wantErr: true},
		{name: "missing name", data: `{"position":{"lat":1,"lon":2,"zoom":3},"timestamp":1}`, wantErr: true},
		{name: "missing timestamp", data: `{"position":{"lat":1,"lon":2,"zoom":3},"locationName":"x"}`, wantErr: true},
		{name: "off the globe", data: `{"position":{"lat":100,"lon":2,"zoom":3},"locationName":"x","timestamp":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLastPositionRecord([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
