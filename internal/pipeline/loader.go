package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/aoaws-etl/internal/domain"
	"github.com/couchcryptid/aoaws-etl/internal/observability"
)

// Sink is a named BatchLoader.
type Sink struct {
	Name   string
	Loader BatchLoader
}

// MultiLoader delivers each batch to every sink. A failing sink does not
// stop the others.
type MultiLoader struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewMultiLoader creates a MultiLoader over sinks.
func NewMultiLoader(logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *MultiLoader {
	return &MultiLoader{sinks: sinks, logger: logger, metrics: metrics}
}

// Add appends a sink.
func (m *MultiLoader) Add(name string, l BatchLoader) {
	m.sinks = append(m.sinks, Sink{Name: name, Loader: l})
}

// Names lists the sinks in delivery order.
func (m *MultiLoader) Names() []string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name
	}
	return names
}

// LoadBatch delivers observations to every sink and returns the joined errors.
func (m *MultiLoader) LoadBatch(ctx context.Context, observations []domain.Observation) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Loader.LoadBatch(ctx, observations); err != nil {
			m.metrics.LoadErrors.WithLabelValues(s.Name).Inc()
			m.logger.Error("sink load failed", "sink", s.Name, "error", err, "count", len(observations))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
