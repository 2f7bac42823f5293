// Package tide talks to the external tide prediction API.
package tide

import (
	"context"
	"encoding/json"
	"github.com/bbernstein/tidemap/internal/models"
	"github.com/bbernstein/tidemap/pkg/http/client"
	"github.com/rs/zerolog/log"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultInterval = "30m"
	DefaultSource   = "fes"

	predictionsPath  = "/v1/tides/predictions"
	constituentsPath = "/v1/constituents"
	healthPath       = "/healthz"

	// isoMillis is ISO-8601 with millisecond precision and a UTC designator
	isoMillis = "2006-01-02T15:04:05.000Z"
)

// Query selects the prediction window. Start is inclusive, End exclusive.
type Query struct {
	Lat      float64
	Lon      float64
	Start    time.Time
	End      time.Time
	Interval string
	Source   string
}

// DayQuery builds the query for the day containing date, midnight to midnight
// in loc.
func DayQuery(lat, lon float64, date time.Time, loc *time.Location) Query {
	start := StartOfDay(date, loc)
	return Query{
		Lat:      lat,
		Lon:      lon,
		Start:    start,
		End:      start.AddDate(0, 0, 1),
		Interval: DefaultInterval,
		Source:   DefaultSource,
	}
}

func StartOfDay(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// FormatTime renders t the way the prediction API expects
func FormatTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

func (q Query) values() url.Values {
	interval := q.Interval
	if interval == "" {
		interval = DefaultInterval
	}
	source := q.Source
	if source == "" {
		source = DefaultSource
	}

	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
	v.Set("lon", strconv.FormatFloat(q.Lon, 'f', -1, 64))
	v.Set("start", FormatTime(q.Start))
	v.Set("end", FormatTime(q.End))
	v.Set("interval", interval)
	v.Set("source", source)
	return v
}

// Fetcher is what the coordinator needs from the prediction API
type Fetcher interface {
	FetchPredictions(ctx context.Context, q Query) (*models.TidePredictionsResponse, error)
}

type Client struct {
	HttpClient client.Interface
}

func NewClient(httpClient client.Interface) *Client {
	return &Client{HttpClient: httpClient}
}

// FetchPredictions returns the decoded response, a *RequestFailedError for a
// non-2xx status or a *NetworkFailureError when nothing came back.
func (c *Client) FetchPredictions(ctx context.Context, q Query) (*models.TidePredictionsResponse, error) {
	log.Debug().
		Float64("lat", q.Lat).
		Float64("lon", q.Lon).
		Time("start", q.Start).
		Time("end", q.End).
		Msg("Fetching tide predictions")

	var response models.TidePredictionsResponse
	if err := c.getJSON(ctx, predictionsPath, q.values(), &response); err != nil {
		return nil, err
	}

	log.Debug().
		Int("predictions", len(response.Predictions)).
		Int("highs", len(response.Highs())).
		Int("lows", len(response.Lows())).
		Str("source", response.Source).
		Msg("Fetched tide predictions")

	return &response, nil
}

func (c *Client) FetchConstituents(ctx context.Context) ([]models.Constituent, error) {
	var constituents []models.Constituent
	if err := c.getJSON(ctx, constituentsPath, nil, &constituents); err != nil {
		return nil, err
	}
	return constituents, nil
}

// HealthCheck reports whether the API answered its liveness probe with a 2xx
func (c *Client) HealthCheck(ctx context.Context) bool {
	resp, err := c.HttpClient.Get(ctx, healthPath, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Health check failed")
		return false
	}
	return resp.OK()
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	resp, err := c.HttpClient.Get(ctx, path, query)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Prediction API unreachable")
		return NewNetworkFailureError(err)
	}

	if !resp.OK() {
		log.Error().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("body", string(resp.Body)).
			Msg("Prediction API returned error status")
		return NewRequestFailedError(resp.StatusCode, string(resp.Body))
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}
