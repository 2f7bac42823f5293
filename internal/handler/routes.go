package handler

import (
	"encoding/json"
	"github.com/bbernstein/tidemap/internal/api"
	"github.com/bbernstein/tidemap/internal/coordinator"
	"github.com/bbernstein/tidemap/internal/models"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"net/http"
	"strconv"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
)

type stateResponse struct {
	api.APIResponse
	coordinator.State
	Query string `json:"query"`
}

type healthResponse struct {
	OK bool `json:"ok"`
}

type positionRequest struct {
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Zoom      *int     `json:"zoom"`
	Immediate bool     `json:"immediate"`
}

type dateRequest struct {
	Date string `json:"date"`
}

func (s *Server) requireConfiguration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.missing) > 0 {
			api.WriteJSON(w, http.StatusServiceUnavailable, api.NewConfigurationResponse(s.missing))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeState(w http.ResponseWriter, sess *session) {
	api.WriteJSON(w, http.StatusOK, stateResponse{
		APIResponse: api.APIResponse{ResponseType: "state"},
		State:       sess.coordinator.State(),
		Query:       sess.history.Query().Encode(),
	})
}

func (s *Server) sessionOrError(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := s.session(w, r)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open session")
		api.WriteError(w, "Failed to open session", http.StatusInternalServerError)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}
	s.writeState(w, sess)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Lat == nil || req.Lon == nil {
		api.WriteError(w, api.InvalidCoordinatesError{Reason: "lat and lon are required"}.Error(), http.StatusBadRequest)
		return
	}

	pos := models.MapPosition{Lat: *req.Lat, Lon: *req.Lon, Zoom: sess.coordinator.State().MapPosition.Zoom}
	if req.Zoom != nil {
		pos.Zoom = *req.Zoom
	}
	if err := pos.Validate(); err != nil {
		api.WriteError(w, api.InvalidCoordinatesError{Reason: err.Error()}.Error(), http.StatusBadRequest)
		return
	}

	sess.coordinator.Dispatch(coordinator.PositionChanged{Position: pos, Immediate: req.Immediate})
	s.writeState(w, sess)
}

func (s *Server) handleDate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}

	var req dateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	date, err := api.ParseDate(req.Date, s.now())
	if err != nil {
		api.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess.coordinator.Dispatch(coordinator.DateChanged{Date: date})
	s.writeState(w, sess)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}

	var moved bool
	switch mux.Vars(r)["direction"] {
	case "back":
		moved = sess.history.Back()
	case "forward":
		moved = sess.history.Forward()
	}
	if !moved {
		api.WriteError(w, "No history entry in that direction", http.StatusConflict)
		return
	}
	s.writeState(w, sess)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrError(w, r)
	if !ok {
		return
	}

	state := sess.coordinator.State()
	api.WriteJSON(w, http.StatusOK, api.NewChartResponse(
		state.LoadPosition,
		state.LocationName,
		state.SelectedDate,
		state.Source,
		sess.coordinator.Chart(),
	))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Searcher == nil {
		api.WriteError(w, "Place search is not available", http.StatusNotImplemented)
		return
	}

	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	places, err := s.deps.Searcher.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		log.Error().Err(err).Msg("Place search failed")
		api.WriteError(w, "Place search failed", http.StatusBadGateway)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.NewPlacesResponse(places))
}

func (s *Server) handleConstituents(w http.ResponseWriter, r *http.Request) {
	if s.deps.Tide == nil {
		api.WriteError(w, "Prediction API is not configured", http.StatusServiceUnavailable)
		return
	}
	constituents, err := s.deps.Tide.FetchConstituents(r.Context())
	if err != nil {
		api.WriteError(w, err.Error(), http.StatusBadGateway)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.NewConstituentsResponse(constituents))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Tide == nil {
		api.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{OK: false})
		return
	}
	if !s.deps.Tide.HealthCheck(r.Context()) {
		api.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{OK: false})
		return
	}
	api.WriteJSON(w, http.StatusOK, healthResponse{OK: true})
}
