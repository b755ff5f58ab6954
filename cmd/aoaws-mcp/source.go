package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/aoaws-etl/internal/domain"
	"github.com/miyamo2/qilin"
)

type tableFetcher interface {
	FetchTable(ctx context.Context, lang string) ([]domain.RawRow, error)
}

type observationStore interface {
	CurrentObservation(ctx context.Context, station string) (domain.Observation, bool, error)
}

// source answers observation lookups, preferring the shared store when one
// is configured.
type source struct {
	fetcher tableFetcher
	store   observationStore // nil without REDIS_ADDR
	lang    string
	logger  *slog.Logger
}

type currentObservationRequest struct {
	Station string `json:"station" jsonschema:"title=Station,description=AOAWS station name such as Taoyuan or Kinmen"`
}

type observationView struct {
	domain.Observation
	VisibilityBand string `json:"visibility_band,omitempty"`
	Source         string `json:"source"`
	Attribution    string `json:"attribution"`
}

func (s *source) current(ctx context.Context, station string) (observationView, error) {
	if !domain.IsKnownStation(station) {
		return observationView{}, fmt.Errorf("unknown station %q", station)
	}

	if s.store != nil {
		obs, ok, err := s.store.CurrentObservation(ctx, station)
		switch {
		case err != nil:
			s.logger.Warn("store lookup failed, fetching directly", "station", station, "error", err)
		case ok:
			return newView(obs, "store"), nil
		}
	}

	rows, err := s.fetcher.FetchTable(ctx, s.lang)
	if err != nil {
		return observationView{}, fmt.Errorf("fetch station table: %w", err)
	}
	row, ok := domain.LocateStation(rows, station)
	if !ok {
		return observationView{}, fmt.Errorf("%s: %w", station, domain.ErrStationNotFound)
	}
	obs, err := domain.Normalize(row, station)
	if err != nil {
		return observationView{}, err
	}
	return newView(obs, "fetch"), nil
}

func newView(obs domain.Observation, from string) observationView {
	band, _ := obs.VisibilityBand()
	return observationView{
		Observation:    obs,
		VisibilityBand: band,
		Source:         from,
		Attribution:    domain.Attribution,
	}
}

func (s *source) handleTool(c qilin.ToolContext) error {
	var req currentObservationRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	view, err := s.current(c.Context(), req.Station)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (s *source) handleResource(c qilin.ResourceContext) error {
	view, err := s.current(c.Context(), c.Param("station"))
	if err != nil {
		return err
	}
	return c.JSON(view)
}
