package geocode

import "context"

// Status is the provider's overall answer to a lookup
type Status string

const (
	StatusOK             Status = "OK"
	StatusZeroResults    Status = "ZERO_RESULTS"
	StatusOverQueryLimit Status = "OVER_QUERY_LIMIT"
	StatusRequestDenied  Status = "REQUEST_DENIED"
	StatusInvalidRequest Status = "INVALID_REQUEST"
	StatusUnknownError   Status = "UNKNOWN_ERROR"
)

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// HasType reports whether the component is tagged with t
func (c AddressComponent) HasType(t string) bool {
	for _, ct := range c.Types {
		if ct == t {
			return true
		}
	}
	return false
}

type Result struct {
	AddressComponents []AddressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
	Types             []string           `json:"types"`
}

// Provider resolves a coordinate to an ordered list of address results. A
// non-nil error means the provider could not be reached.
type Provider interface {
	Reverse(ctx context.Context, lat, lon float64) (Status, []Result, error)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(ctx context.Context, lat, lon float64) (Status, []Result, error)

func (f ProviderFunc) Reverse(ctx context.Context, lat, lon float64) (Status, []Result, error) {
	return f(ctx, lat, lon)
}
