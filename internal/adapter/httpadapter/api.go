package httpadapter

import (
	"errors"
	"net/http"
	"time"

	"github.com/couchcryptid/aoaws-etl/internal/adapter/aoaws"
	"github.com/couchcryptid/aoaws-etl/internal/domain"
)

type stationStatus struct {
	Station        string `json:"station"`
	Resolved       bool   `json:"resolved"`
	HasObservation bool   `json:"has_observation"`
}

type stationsResponse struct {
	Attribution string          `json:"attribution"`
	Language    string          `json:"language,omitempty"`
	FetchedAt   *time.Time      `json:"fetched_at"`
	Stations    []stationStatus `json:"stations"`
}

type observationResponse struct {
	domain.Observation
	VisibilityBand *string   `json:"visibility_band"`
	FetchedAt      time.Time `json:"fetched_at"`
	Attribution    string    `json:"attribution"`
}

type refreshResponse struct {
	FetchedAt    time.Time         `json:"fetched_at"`
	Rows         int               `json:"rows"`
	Observations int               `json:"observations"`
	Unresolved   []string          `json:"unresolved"`
	Failures     map[string]string `json:"failures,omitempty"`
}

func (s *Server) status(station string) stationStatus {
	_, has := s.service.CurrentObservation(station)
	return stationStatus{
		Station:        station,
		Resolved:       s.service.ResolveStation(station),
		HasObservation: has,
	}
}

func (s *Server) handleStations(w http.ResponseWriter, _ *http.Request) {
	resp := stationsResponse{Attribution: domain.Attribution, Stations: []stationStatus{}}
	if snap := s.service.Snapshot(); snap != nil {
		resp.Language = snap.Language
		resp.FetchedAt = &snap.FetchedAt
	}
	for _, station := range s.service.Stations() {
		resp.Stations = append(resp.Stations, s.status(station))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStation(w http.ResponseWriter, r *http.Request) {
	station := r.PathValue("station")
	if !s.service.Tracks(station) {
		writeError(w, http.StatusNotFound, "unknown station "+station)
		return
	}
	writeJSON(w, http.StatusOK, s.status(station))
}

func (s *Server) handleObservation(w http.ResponseWriter, r *http.Request) {
	station := r.PathValue("station")
	if !s.service.Tracks(station) {
		writeError(w, http.StatusNotFound, "unknown station "+station)
		return
	}
	obs, ok := s.service.CurrentObservation(station)
	if !ok {
		writeError(w, http.StatusNotFound, "no observation for "+station)
		return
	}

	resp := observationResponse{Observation: obs, Attribution: domain.Attribution}
	if band, ok := obs.VisibilityBand(); ok {
		resp.VisibilityBand = &band
	}
	if snap := s.service.Snapshot(); snap != nil {
		resp.FetchedAt = snap.FetchedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Refresh(r.Context())
	if err != nil {
		var terr *aoaws.TransportError
		if errors.As(err, &terr) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.logger.Error("refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := refreshResponse{
		FetchedAt:    snap.FetchedAt,
		Rows:         len(snap.Rows),
		Observations: len(snap.Observations),
		Unresolved:   []string{},
		Failures:     snap.Failures,
	}
	for _, station := range s.service.Stations() {
		if !snap.IsResolved(station) {
			resp.Unresolved = append(resp.Unresolved, station)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
