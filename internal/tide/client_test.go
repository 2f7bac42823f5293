package tide

import (
	"context"
	"errors"
	"github.com/bbernstein/tidemap/pkg/http/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

const samplePredictions = `{
	"predictions": [{"time": "2025-01-01T00:00:00Z", "height_m": 1.5, "depth_m": 10.5}],
	"extrema": {
		"highs": [{"time": "2025-01-01T06:00:00Z", "depth_m": 12.0}],
		"lows": [{"time": "2025-01-01T12:00:00Z", "depth_m": 8.0}]
	},
	"source": "fes",
	"location": {"lat": 35.6, "lon": 139.8}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(client.New(client.Options{BaseURL: server.URL, Timeout: 5 * time.Second}))
}

func TestFetchPredictions(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, predictionsPath, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "35.6", q.Get("lat"))
		assert.Equal(t, "139.8", q.Get("lon"))
		assert.Equal(t, "2025-01-01T00:00:00.000Z", q.Get("start"))
		assert.Equal(t, "2025-01-02T00:00:00.000Z", q.Get("end"))
		assert.Equal(t, "30m", q.Get("interval"))
		assert.Equal(t, "fes", q.Get("source"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePredictions))
	})

	resp, err := c.FetchPredictions(context.Background(), DayQuery(35.6, 139.8, start.Add(13*time.Hour), time.UTC))
	require.NoError(t, err)
	require.Len(t, resp.Predictions, 1)
	assert.Equal(t, 1.5, resp.Predictions[0].HeightM)
	require.NotNil(t, resp.Predictions[0].DepthM)
	assert.Equal(t, 10.5, *resp.Predictions[0].DepthM)
	assert.Len(t, resp.Highs(), 1)
	assert.Len(t, resp.Lows(), 1)
	assert.Equal(t, "fes", resp.Source)
}

func TestFetchPredictionsAbsentFieldsPropagate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[{"time":"2025-01-01T00:00:00Z","height_m":0.2}]}`))
	})

	resp, err := c.FetchPredictions(context.Background(), Query{Lat: 1, Lon: 2})
	require.NoError(t, err)
	assert.Nil(t, resp.Extrema)
	assert.Nil(t, resp.Predictions[0].DepthM)
	assert.Empty(t, resp.Highs())
}

func TestFetchPredictionsRequestFailed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Not found"))
	})

	resp, err := c.FetchPredictions(context.Background(), Query{Lat: 35.6, Lon: 139.8})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "Failed to fetch tide predictions")

	var reqErr *RequestFailedError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNotFound, reqErr.Status)
	assert.Equal(t, "Not found", reqErr.Body)
}

func TestFetchPredictionsNetworkFailure(t *testing.T) {
	cause := errors.New("connection refused")
	httpClient := client.New(client.Options{})
	httpClient.GetFunc = func(ctx context.Context, path string, query url.Values) (*client.Response, error) {
		return nil, cause
	}

	_, err := NewClient(httpClient).FetchPredictions(context.Background(), Query{})
	require.Error(t, err)

	var netErr *NetworkFailureError
	require.True(t, errors.As(err, &netErr))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Network error: connection refused", err.Error())
}

func TestFetchPredictionsDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})

	_, err := c.FetchPredictions(context.Background(), Query{})
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, predictionsPath, decodeErr.Path)
}

func TestFetchConstituents(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, constituentsPath, r.URL.Path)
		_, _ = w.Write([]byte(`[{"name":"M2","description":"Principal lunar semidiurnal","speed":28.984104}]`))
	})

	constituents, err := c.FetchConstituents(context.Background())
	require.NoError(t, err)
	require.Len(t, constituents, 1)
	assert.Equal(t, "M2", constituents[0].Name)
	assert.InDelta(t, 28.984104, constituents[0].Speed, 1e-9)
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		want   bool
	}{
		{name: "ok", status: http.StatusOK, want: true},
		{name: "no content", status: http.StatusNoContent, want: true},
		{name: "server error", status: http.StatusServiceUnavailable, want: false},
		{name: "transport failure", err: errors.New("dial tcp: timeout"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpClient := client.New(client.Options{})
			httpClient.GetFunc = func(ctx context.Context, path string, query url.Values) (*client.Response, error) {
				assert.Equal(t, healthPath, path)
				if tt.err != nil {
					return nil, tt.err
				}
				return &client.Response{StatusCode: tt.status}, nil
			}

			assert.Equal(t, tt.want, NewClient(httpClient).HealthCheck(context.Background()))
		})
	}
}

func TestDayQuery(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	date := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		loc       *time.Location
		wantStart string
		wantEnd   string
	}{
		{name: "utc", loc: time.UTC, wantStart: "2025-03-10T00:00:00.000Z", wantEnd: "2025-03-11T00:00:00.000Z"},
		{name: "nil location is utc", loc: nil, wantStart: "2025-03-10T00:00:00.000Z", wantEnd: "2025-03-11T00:00:00.000Z"},
		{name: "local midnight", loc: tokyo, wantStart: "2025-03-10T15:00:00.000Z", wantEnd: "2025-03-11T15:00:00.000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := DayQuery(1, 2, date, tt.loc)
			assert.Equal(t, tt.wantStart, FormatTime(q.Start))
			assert.Equal(t, tt.wantEnd, FormatTime(q.End))
			assert.Equal(t, DefaultInterval, q.Interval)
			assert.Equal(t, DefaultSource, q.Source)
		})
	}
}
