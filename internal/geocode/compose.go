package geocode

import "strings"

const UnknownLocation = "Unknown Location"

const (
	typeLocality     = "locality"
	typeSublocality2 = "sublocality_level_2"
	typeAdminArea1   = "administrative_area_level_1"
	typeCountry      = "country"
)

// ComposeName builds a display name from reverse geocoding results.
//
// The most specific result is the first one carrying a locality or any
// sub-locality component, falling back to the first result. Only the
// second-level sub-locality is used; level 3 is too granular for a label.
func ComposeName(results []Result) string {
	if len(results) == 0 {
		return UnknownLocation
	}

	chosen := results[0]
	for _, r := range results {
		if isSpecific(r) {
			chosen = r
			break
		}
	}

	var locality, sublocality, admin, country string
	for _, c := range chosen.AddressComponents {
		switch {
		case c.HasType(typeLocality):
			locality = c.LongName
		case c.HasType(typeSublocality2):
			sublocality = c.LongName
		case c.HasType(typeAdminArea1):
			admin = c.LongName
		case c.HasType(typeCountry):
			country = c.LongName
		}
	}

	if sublocality != "" && locality != "" {
		return sublocality + ", " + locality
	}
	for _, name := range []string{locality, admin, country} {
		if name != "" {
			return name
		}
	}
	return UnknownLocation
}

func isSpecific(r Result) bool {
	for _, c := range r.AddressComponents {
		for _, t := range c.Types {
			if t == typeLocality || strings.HasPrefix(t, "sublocality") {
				return true
			}
		}
	}
	return false
}
