package api

import (
	"encoding/json"
	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/tidemap/internal/chart"
	"github.com/bbernstein/tidemap/internal/geocode"
	"github.com/bbernstein/tidemap/internal/models"
	"github.com/rs/zerolog/log"
	"net/http"
	"strconv"
	"time"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

type ChartResponse struct {
	APIResponse
	Position     models.MapPosition `json:"position"`
	LocationName string             `json:"locationName"`
	Date         string             `json:"date"`
	Source       string             `json:"source,omitempty"`
	Chart        chart.Dataset      `json:"chart"`
}

type PlacesResponse struct {
	APIResponse
	Places []geocode.Place `json:"places"`
}

type ConstituentsResponse struct {
	APIResponse
	Constituents []models.Constituent `json:"constituents"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

// ConfigurationResponse replaces every answer while required configuration
// is missing
type ConfigurationResponse struct {
	APIResponse
	Error   string   `json:"error"`
	Missing []string `json:"missing"`
}

func NewChartResponse(position models.MapPosition, name string, date time.Time, source string, ds chart.Dataset) *ChartResponse {
	return &ChartResponse{
		APIResponse:  APIResponse{ResponseType: "chart"},
		Position:     position,
		LocationName: name,
		Date:         date.UTC().Format(DateLayout),
		Source:       source,
		Chart:        ds,
	}
}

func NewPlacesResponse(places []geocode.Place) *PlacesResponse {
	if places == nil {
		places = []geocode.Place{}
	}
	return &PlacesResponse{
		APIResponse: APIResponse{ResponseType: "places"},
		Places:      places,
	}
}

func NewConstituentsResponse(constituents []models.Constituent) *ConstituentsResponse {
	return &ConstituentsResponse{
		APIResponse:  APIResponse{ResponseType: "constituents"},
		Constituents: constituents,
	}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

func NewConfigurationResponse(missing []string) *ConfigurationResponse {
	return &ConfigurationResponse{
		APIResponse: APIResponse{ResponseType: "configuration"},
		Error:       "Required configuration is missing",
		Missing:     missing,
	}
}

var defaultHeaders = map[string]string{
	"Content-Type":                "application/json",
	"Access-Control-Allow-Origin": "*",
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    defaultHeaders,
		Body:       string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    defaultHeaders,
		Body:       string(body),
	}, nil
}

// WriteJSON is Success for net/http
func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		WriteError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	for k, v := range defaultHeaders {
		w.Header().Set(k, v)
	}
	w.WriteHeader(statusCode)
	if _, err := w.Write(jsonBody); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func WriteError(w http.ResponseWriter, message string, statusCode int) {
	body, _ := json.Marshal(NewErrorResponse(message))

	for k, v := range defaultHeaders {
		w.Header().Set(k, v)
	}
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

// DateLayout is the calendar date format accepted and returned by the API
const DateLayout = "2006-01-02"

// Parameter parsing helpers

// ParsePosition reads lat, lon and an optional zoom. Both coordinates are
// required.
func ParsePosition(params map[string]string) (models.MapPosition, error) {
	latStr, hasLat := params["lat"]
	lonStr, hasLon := params["lon"]

	if !hasLat || !hasLon {
		return models.MapPosition{}, InvalidCoordinatesError{Reason: "lat and lon are required"}
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return models.MapPosition{}, InvalidCoordinatesError{Reason: "lat is not a number"}
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return models.MapPosition{}, InvalidCoordinatesError{Reason: "lon is not a number"}
	}

	zoom := models.DefaultZoom
	if zoomStr, ok := params["zoom"]; ok && zoomStr != "" {
		if z, err := strconv.Atoi(zoomStr); err == nil {
			zoom = z
		}
	}

	pos := models.MapPosition{Lat: lat, Lon: lon, Zoom: zoom}
	if err := pos.Validate(); err != nil {
		return models.MapPosition{}, InvalidCoordinatesError{Reason: err.Error()}
	}
	return pos, nil
}

// ParseDate accepts a calendar date or a full RFC 3339 timestamp. An empty
// value means now.
func ParseDate(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, InvalidDateError{Value: value}
}

type InvalidCoordinatesError struct {
	Reason string
}

func (e InvalidCoordinatesError) Error() string {
	if e.Reason == "" {
		return "Invalid coordinates"
	}
	return "Invalid coordinates: " + e.Reason
}

type InvalidDateError struct {
	Value string
}

func (e InvalidDateError) Error() string {
	return "Invalid date: " + e.Value
}
