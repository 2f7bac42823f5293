package geocode

import (
	"context"
	"github.com/bbernstein/tidemap/pkg/http/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGoogleProviderReverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, googleReversePath, r.URL.Path)
		assert.Equal(t, "35.658,139.7016", r.URL.Query().Get("latlng"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "Shibuya, Tokyo, Japan",
				"address_components": [
					{"long_name": "Shibuya", "short_name": "Shibuya", "types": ["sublocality_level_2", "sublocality", "political"]},
					{"long_name": "Tokyo", "short_name": "Tokyo", "types": ["locality", "political"]}
				]
			}]
		}`))
	}))
	defer server.Close()

	provider := NewGoogleProvider(client.New(client.Options{BaseURL: server.URL, Timeout: 5 * time.Second}), "secret")
	status, results, err := provider.Reverse(context.Background(), 35.658, 139.7016)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	require.Len(t, results, 1)
	assert.Equal(t, "Shibuya, Tokyo", ComposeName(results))
}

func TestGoogleProviderFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    bool
		wantStatus Status
	}{
		{name: "zero results", status: http.StatusOK, body: `{"status":"ZERO_RESULTS","results":[]}`, wantStatus: StatusZeroResults},
		{name: "denied", status: http.StatusOK, body: `{"status":"REQUEST_DENIED","error_message":"bad key","results":[]}`, wantStatus: StatusRequestDenied},
		{name: "http error", status: http.StatusInternalServerError, body: `oops`, wantErr: true},
		{name: "garbage", status: http.StatusOK, body: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := NewGoogleProvider(client.New(client.Options{BaseURL: server.URL}), "k")
			status, results, err := provider.Reverse(context.Background(), 1, 2)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Empty(t, results)
		})
	}
}
