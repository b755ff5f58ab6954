package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/aoaws-etl/internal/domain"
	"github.com/couchcryptid/aoaws-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// TableFetcher returns the AOAWS station table for a language.
type TableFetcher interface {
	FetchTable(ctx context.Context, lang string) ([]domain.RawRow, error)
}

// BatchLoader writes the observations of one refresh to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, observations []domain.Observation) error
}

// Settings selects what the pipeline tracks and how often.
type Settings struct {
	Stations     []string
	Language     string
	PollInterval time.Duration
}

// Pipeline polls the AOAWS table and keeps the latest observation of each
// configured station.
type Pipeline struct {
	fetcher  TableFetcher
	loader   BatchLoader
	settings Settings
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock

	snapshot atomic.Pointer[Snapshot]
	group    singleflight.Group
}

// New creates a Pipeline. A nil loader disables delivery.
func New(f TableFetcher, l BatchLoader, s Settings, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if s.Language == "" {
		s.Language = domain.DefaultLanguage
	}
	return &Pipeline{
		fetcher:  f,
		loader:   l,
		settings: s,
		logger:   logger,
		metrics:  metrics,
		clock:    clockwork.NewRealClock(),
	}
}

// SetClock replaces the clock used for fetch stamps and the poll ticker.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	p.clock = c
}

// Stations returns the configured station names.
func (p *Pipeline) Stations() []string {
	return slices.Clone(p.settings.Stations)
}

// Tracks reports whether station is one of the configured stations.
func (p *Pipeline) Tracks(station string) bool {
	return slices.Contains(p.settings.Stations, station)
}

// Snapshot returns the latest successful fetch, or nil before the first one.
func (p *Pipeline) Snapshot() *Snapshot {
	return p.snapshot.Load()
}

// CurrentObservation returns the station's observation from the latest fetch.
func (p *Pipeline) CurrentObservation(station string) (domain.Observation, bool) {
	return p.snapshot.Load().Observation(station)
}

// ResolveStation reports whether the station was present in the latest
// fetched table.
func (p *Pipeline) ResolveStation(station string) bool {
	return p.snapshot.Load().IsResolved(station)
}

// CheckReadiness returns nil once a fetch has produced at least one
// observation.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	snap := p.snapshot.Load()
	if snap == nil {
		return errors.New("no successful fetch yet")
	}
	if len(snap.Observations) == 0 {
		return errors.New("latest fetch produced no observations")
	}
	return nil
}

// Refresh runs one fetch-locate-normalize pass and publishes the resulting
// snapshot. Concurrent calls share a single pass. The shared pass ignores the
// cancellation of any one caller and is bounded by the fetch timeout; a
// cancelled caller stops waiting and gets ctx.Err(). On a fetch error the
// previous snapshot stays in place.
func (p *Pipeline) Refresh(ctx context.Context) (*Snapshot, error) {
	passCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan(p.settings.Language, func() (any, error) {
		return p.refresh(passCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			p.logger.Debug("refresh coalesced", "lang", p.settings.Language)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (p *Pipeline) refresh(ctx context.Context) (*Snapshot, error) {
	lang := p.settings.Language
	start := p.clock.Now()

	rows, err := p.fetcher.FetchTable(ctx, lang)
	p.metrics.FetchDuration.Observe(p.clock.Since(start).Seconds())
	if err != nil {
		p.metrics.Fetches.WithLabelValues("error").Inc()
		p.logger.Error("fetch failed, keeping previous snapshot", "error", err, "lang", lang)
		return nil, fmt.Errorf("fetch station table: %w", err)
	}
	p.metrics.Fetches.WithLabelValues("success").Inc()
	p.metrics.RowsExtracted.Set(float64(len(rows)))

	snap := newSnapshot(lang, p.clock.Now(), rows)
	fresh := make([]domain.Observation, 0, len(p.settings.Stations))
	for _, station := range p.settings.Stations {
		if obs, ok := p.resolve(snap, station); ok {
			fresh = append(fresh, obs)
		}
	}
	p.snapshot.Store(snap)

	p.logger.Info("refresh complete",
		"lang", lang,
		"rows", len(rows),
		"observations", len(fresh),
		"duration", p.clock.Since(start),
	)

	if p.loader != nil && len(fresh) > 0 {
		if err := p.loader.LoadBatch(ctx, fresh); err != nil {
			p.logger.Error("load observations failed", "error", err, "count", len(fresh))
		}
	}
	return snap, nil
}

// resolve locates and normalizes one station into snap.
func (p *Pipeline) resolve(snap *Snapshot, station string) (domain.Observation, bool) {
	row, found := domain.LocateStation(snap.Rows, station)
	snap.Resolved[station] = found
	if !found {
		p.metrics.StationResolved.WithLabelValues(station).Set(0)
		p.metrics.Observations.WithLabelValues(station, "not_found").Inc()
		p.logger.Warn("station not in table", "station", station, "rows", len(snap.Rows))
		return domain.Observation{}, false
	}
	p.metrics.StationResolved.WithLabelValues(station).Set(1)

	obs, err := domain.Normalize(row, station)
	if err != nil {
		p.metrics.Observations.WithLabelValues(station, "normalize_error").Inc()
		p.logger.Warn("normalize failed, no observation this cycle", "station", station, "error", err)
		snap.Failures[station] = err.Error()
		return domain.Observation{}, false
	}
	p.metrics.Observations.WithLabelValues(station, "ok").Inc()
	snap.Observations[station] = obs
	return obs, true
}

// Run refreshes immediately and then on every poll interval until the
// context is cancelled. Failed refreshes are logged and retried on the next
// tick.
func (p *Pipeline) Run(ctx context.Context) error {
	interval := p.settings.PollInterval
	if interval <= 0 {
		return fmt.Errorf("invalid poll interval %s", interval)
	}

	p.logger.Info("pipeline started",
		"stations", p.settings.Stations,
		"lang", p.settings.Language,
		"interval", interval,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.Refresh(ctx); err != nil && ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}
