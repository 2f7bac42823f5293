package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/bbernstein/tidemap/pkg/http/client"
	"github.com/rs/zerolog/log"
	"net/url"
	"strconv"
)

const (
	DefaultGoogleBaseURL = "https://maps.googleapis.com"
	googleReversePath    = "/maps/api/geocode/json"
)

type googleResponse struct {
	Status       Status   `json:"status"`
	Results      []Result `json:"results"`
	ErrorMessage string   `json:"error_message"`
}

// GoogleProvider reverse geocodes with the Google Geocoding API
type GoogleProvider struct {
	HttpClient client.Interface
	apiKey     string
}

func NewGoogleProvider(httpClient client.Interface, apiKey string) *GoogleProvider {
	return &GoogleProvider{
		HttpClient: httpClient,
		apiKey:     apiKey,
	}
}

func (p *GoogleProvider) Reverse(ctx context.Context, lat, lon float64) (Status, []Result, error) {
	query := url.Values{}
	query.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("key", p.apiKey)

	resp, err := p.HttpClient.Get(ctx, googleReversePath, query)
	if err != nil {
		return "", nil, fmt.Errorf("calling geocoding API: %w", err)
	}
	if !resp.OK() {
		return "", nil, fmt.Errorf("geocoding API returned status %d", resp.StatusCode)
	}

	var body googleResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", nil, fmt.Errorf("decoding geocoding response: %w", err)
	}

	if body.Status != StatusOK && body.ErrorMessage != "" {
		log.Warn().
			Str("status", string(body.Status)).
			Str("message", body.ErrorMessage).
			Msg("Geocoding API rejected request")
	}

	return body.Status, body.Results, nil
}
