package geocode

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func component(name string, types ...string) AddressComponent {
	return AddressComponent{LongName: name, ShortName: name, Types: types}
}

func TestComposeName(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    string
	}{
		{
			name: "second level sub-locality with locality",
			results: []Result{{AddressComponents: []AddressComponent{
				component("1-2", "sublocality_level_3", "sublocality", "political"),
				component("Shibuya", "sublocality_level_2", "sublocality", "political"),
				component("Tokyo", "locality", "political"),
				component("Tokyo", "administrative_area_level_1", "political"),
				component("Japan", "country", "political"),
			}}},
			want: "Shibuya, Tokyo",
		},
		{
			name: "locality only",
			results: []Result{{AddressComponents: []AddressComponent{
				component("Paris", "locality", "political"),
			}}},
			want: "Paris",
		},
		{
			name: "third level sub-locality is ignored",
			results: []Result{{AddressComponents: []AddressComponent{
				component("Jingumae", "sublocality_level_3", "sublocality", "political"),
				component("Tokyo", "locality", "political"),
			}}},
			want: "Tokyo",
		},
		{
			name: "prefers a result with a locality over the first result",
			results: []Result{
				{AddressComponents: []AddressComponent{
					component("Route 1", "route"),
					component("Massachusetts", "administrative_area_level_1", "political"),
				}},
				{AddressComponents: []AddressComponent{
					component("Boston", "locality", "political"),
				}},
			},
			want: "Boston",
		},
		{
			name: "administrative area fallback",
			results: []Result{{AddressComponents: []AddressComponent{
				component("Hokkaido", "administrative_area_level_1", "political"),
				component("Japan", "country", "political"),
			}}},
			want: "Hokkaido",
		},
		{
			name: "country fallback",
			results: []Result{{AddressComponents: []AddressComponent{
				component("Iceland", "country", "political"),
			}}},
			want: "Iceland",
		},
		{
			name:    "nothing usable",
			results: []Result{{AddressComponents: []AddressComponent{component("Pacific Ocean", "natural_feature")}}},
			want:    UnknownLocation,
		},
		{
			name: "no results",
			want: UnknownLocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposeName(tt.results))
		})
	}
}
