package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/bbernstein/tidemap/internal/clock"
	"github.com/bbernstein/tidemap/internal/config"
	"github.com/bbernstein/tidemap/internal/coordinator"
	"github.com/bbernstein/tidemap/internal/geocode"
	"github.com/bbernstein/tidemap/internal/models"
	"github.com/bbernstein/tidemap/internal/tide"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

var now = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeTideAPI struct {
	mu           sync.Mutex
	queries      []tide.Query
	healthy      bool
	constituents []models.Constituent
	err          error
}

func (f *fakeTideAPI) FetchPredictions(_ context.Context, q tide.Query) (*models.TidePredictionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	depth := 10.0
	return &models.TidePredictionsResponse{
		Predictions: []models.TidePrediction{{Time: "2025-01-01T00:00:00Z", HeightM: 1.2, DepthM: &depth}},
		Source:      "fes",
		Location:    models.Location{Lat: q.Lat, Lon: q.Lon},
	}, nil
}

func (f *fakeTideAPI) FetchConstituents(context.Context) ([]models.Constituent, error) {
	return f.constituents, f.err
}

func (f *fakeTideAPI) HealthCheck(context.Context) bool {
	return f.healthy
}

func (f *fakeTideAPI) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func reverse(_ context.Context, lat, lon float64) (geocode.Status, []geocode.Result, error) {
	return geocode.StatusOK, []geocode.Result{{
		AddressComponents: []geocode.AddressComponent{
			{LongName: fmt.Sprintf("Place %.2f,%.2f", lat, lon), Types: []string{"locality"}},
		},
	}}, nil
}

type fakeSearcher struct {
	limit int
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, q string, limit int) ([]geocode.Place, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []geocode.Place{{Name: q, Lat: 1, Lon: 2}}, nil
}

type stateBody struct {
	ResponseType string             `json:"responseType"`
	MapPosition  models.MapPosition `json:"mapPosition"`
	LoadPosition models.MapPosition `json:"loadPosition"`
	LocationName string             `json:"locationName"`
	Title        string             `json:"title"`
	SelectedDate time.Time          `json:"selectedDate"`
	Query        string             `json:"query"`
}

type testServer struct {
	url      string
	client   *http.Client
	tide     *fakeTideAPI
	searcher *fakeSearcher
	clk      *clock.Fake
	server   *Server
}

func configured() *config.Config {
	return config.New(
		config.WithEnvironment("test"),
		config.WithAPIBaseURL("http://tides.test"),
		config.WithMapsAPIKey("key"),
		config.WithSessionKey("0123456789abcdef0123456789abcdef"),
	)
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	ts := &testServer{
		tide:     &fakeTideAPI{healthy: true},
		searcher: &fakeSearcher{},
		clk:      clock.NewFake(now),
	}
	srv, err := New(Deps{
		Config:   cfg,
		Tide:     ts.tide,
		Provider: geocode.ProviderFunc(reverse),
		Searcher: ts.searcher,
		Clock:    ts.clk,
		Spawn:    func(f func()) { f() },
	})
	require.NoError(t, err)
	ts.server = srv

	httpServer := httptest.NewServer(srv)
	t.Cleanup(func() {
		httpServer.Close()
		srv.Close()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	ts.url = httpServer.URL
	ts.client = &http.Client{Jar: jar, Timeout: 5 * time.Second}
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.url+path, reader)
	require.NoError(t, err)
	resp, err := ts.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestStateSeededFromQuery(t *testing.T) {
	ts := newTestServer(t, configured())

	var state stateBody
	status := ts.do(t, http.MethodGet, "/api/v1/state?lat=40.7128&lon=-74.006&zoom=12", nil, &state)
	require.Equal(t, http.StatusOK, status)

	want := models.MapPosition{Lat: 40.7128, Lon: -74.006, Zoom: 12}
	assert.Equal(t, "state", state.ResponseType)
	assert.Equal(t, want, state.MapPosition)
	assert.Equal(t, want, state.LoadPosition)
	assert.Equal(t, "Place 40.71,-74.01", state.LocationName)
	assert.Equal(t, "Place 40.71,-74.01 - Tide Map", state.Title)
	assert.Equal(t, 1, ts.tide.fetches())

	// the cookie keeps the same session; a different query is ignored
	status = ts.do(t, http.MethodGet, "/api/v1/state?lat=1&lon=2", nil, &state)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, want, state.MapPosition)
	assert.Equal(t, 1, ts.tide.fetches())
}

func TestPositionAndHistory(t *testing.T) {
	ts := newTestServer(t, configured())

	var state stateBody
	ts.do(t, http.MethodGet, "/api/v1/state?lat=40.7128&lon=-74.006&zoom=12", nil, &state)
	first := state.MapPosition

	status := ts.do(t, http.MethodPost, "/api/v1/position",
		map[string]interface{}{"lat": 35.6, "lon": 139.8, "immediate": true}, &state)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.MapPosition{Lat: 35.6, Lon: 139.8, Zoom: 12}, state.LoadPosition)
	assert.Equal(t, coordinator.LoadingName, state.LocationName)
	assert.Contains(t, state.Query, "lat=35.600000")
	assert.Equal(t, 2, ts.tide.fetches())

	// the name is looked up once the position settles
	ts.clk.Advance(500 * time.Millisecond)
	ts.do(t, http.MethodGet, "/api/v1/state", nil, &state)
	assert.Equal(t, "Place 35.60,139.80", state.LocationName)
	assert.Equal(t, "Place 35.60,139.80 - Tide Map", state.Title)
	assert.Equal(t, 2, ts.tide.fetches())

	status = ts.do(t, http.MethodPost, "/api/v1/history/back", nil, &state)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, first, state.MapPosition)

	status = ts.do(t, http.MethodPost, "/api/v1/history/forward", nil, &state)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 35.6, state.MapPosition.Lat)

	var errBody map[string]interface{}
	status = ts.do(t, http.MethodPost, "/api/v1/history/forward", nil, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "error", errBody["responseType"])
}

func TestPositionValidation(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{name: "missing lon", body: map[string]interface{}{"lat": 10}},
		{name: "latitude out of range", body: map[string]interface{}{"lat": 91, "lon": 0}},
		{name: "not json", body: "lat=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, configured())
			status := ts.do(t, http.MethodPost, "/api/v1/position", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestDateChange(t *testing.T) {
	ts := newTestServer(t, configured())

	var state stateBody
	ts.do(t, http.MethodGet, "/api/v1/state", nil, &state)
	before := ts.tide.fetches()

	status := ts.do(t, http.MethodPost, "/api/v1/date", map[string]string{"date": "2025-01-03"}, &state)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2025-01-03", state.SelectedDate.UTC().Format("2006-01-02"))
	assert.Equal(t, before+1, ts.tide.fetches())

	status = ts.do(t, http.MethodPost, "/api/v1/date", map[string]string{"date": "tomorrow"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestChart(t *testing.T) {
	ts := newTestServer(t, configured())

	var body struct {
		ResponseType string `json:"responseType"`
		LocationName string `json:"locationName"`
		Date         string `json:"date"`
		Source       string `json:"source"`
	}
	status := ts.do(t, http.MethodGet, "/api/v1/chart?lat=21.3&lon=-157.8", nil, &body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "chart", body.ResponseType)
	assert.Equal(t, "Place 21.30,-157.80", body.LocationName)
	assert.Equal(t, "2025-01-01", body.Date)
	assert.Equal(t, "fes", body.Source)
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t, configured())

	var body struct {
		ResponseType string          `json:"responseType"`
		Places       []geocode.Place `json:"places"`
	}
	status := ts.do(t, http.MethodGet, "/api/v1/search?q=Boston&limit=50", nil, &body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "places", body.ResponseType)
	require.Len(t, body.Places, 1)
	assert.Equal(t, "Boston", body.Places[0].Name)
	assert.Equal(t, maxSearchLimit, ts.searcher.limit)

	ts.do(t, http.MethodGet, "/api/v1/search?q=Boston", nil, nil)
	assert.Equal(t, defaultSearchLimit, ts.searcher.limit)

	ts.searcher.err = errors.New("nominatim down")
	status = ts.do(t, http.MethodGet, "/api/v1/search?q=Boston", nil, nil)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestConstituents(t *testing.T) {
	ts := newTestServer(t, configured())
	ts.tide.constituents = []models.Constituent{{Name: "M2", Speed: 28.984}}

	var body struct {
		Constituents []models.Constituent `json:"constituents"`
	}
	status := ts.do(t, http.MethodGet, "/api/v1/constituents", nil, &body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ts.tide.constituents, body.Constituents)

	ts.tide.err = tide.NewRequestFailedError(500, "boom")
	status = ts.do(t, http.MethodGet, "/api/v1/constituents", nil, nil)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, configured())

	var body healthResponse
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/healthz", nil, &body))
	assert.True(t, body.OK)

	ts.tide.healthy = false
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodGet, "/healthz", nil, &body))
	assert.False(t, body.OK)
}

func TestMissingConfiguration(t *testing.T) {
	ts := newTestServer(t, config.New())

	var body struct {
		ResponseType string   `json:"responseType"`
		Missing      []string `json:"missing"`
	}
	status := ts.do(t, http.MethodGet, "/api/v1/state", nil, &body)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "configuration", body.ResponseType)
	assert.Equal(t, []string{"TIDEMAP_API_BASE_URL", "TIDEMAP_MAPS_API_KEY"}, body.Missing)
	assert.Zero(t, ts.tide.fetches())
	assert.Zero(t, ts.server.sessions.Len())
}

func TestSessionEviction(t *testing.T) {
	cache := config.GetCacheConfig()
	cache.SessionCapacity = 1

	srv, err := New(Deps{
		Config:   configured(),
		Cache:    cache,
		Tide:     &fakeTideAPI{},
		Provider: geocode.ProviderFunc(reverse),
		Clock:    clock.NewFake(now),
		Spawn:    func(f func()) { f() },
	})
	require.NoError(t, err)
	defer srv.Close()

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Result().Cookies())
	}
	assert.Equal(t, 1, srv.sessions.Len())
}
