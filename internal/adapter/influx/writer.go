package influx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/aoaws-etl/internal/config"
	"github.com/couchcryptid/aoaws-etl/internal/domain"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the InfluxDB measurement name for station observations.
const Measurement = "aoaws_observation"

// Writer stores observations as InfluxDB points, one per station and
// observation time. It implements pipeline.BatchLoader.
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	logger   *slog.Logger
}

// NewWriter creates a writer for the configured bucket.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	return &Writer{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		logger:   logger,
	}
}

// Ping checks that the server is reachable.
func (w *Writer) Ping(ctx context.Context) error {
	ok, err := w.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influx ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("influx ping: server not ready")
	}
	return nil
}

// LoadBatch writes one point per observation. Observations without any
// numeric or text field are skipped.
func (w *Writer) LoadBatch(ctx context.Context, observations []domain.Observation) error {
	points := make([]*write.Point, 0, len(observations))
	for _, obs := range observations {
		p, ok := toPoint(obs)
		if !ok {
			w.logger.Debug("observation has no fields, skipping", "station", obs.StationName)
			continue
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil
	}
	if err := w.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write points: %w", err)
	}
	return nil
}

// Close releases the client's resources.
func (w *Writer) Close() error {
	w.client.Close()
	return nil
}

// toPoint maps numeric slots (and text slots that read as numbers, such as
// pressure "1013") to float fields named by measurement code. Weather text
// is kept as a string field; station and condition are tags.
func toPoint(obs domain.Observation) (*write.Point, bool) {
	fields := make(map[string]any)
	for _, m := range obs.Measurements() {
		if v, ok := m.Float(); ok {
			fields[string(m.Code)] = v
			continue
		}
		if m.Kind == domain.KindText {
			fields[string(m.Code)] = m.Text
		}
	}
	if len(fields) == 0 {
		return nil, false
	}

	tags := map[string]string{"station": obs.StationName}
	if obs.Condition != domain.ConditionUnknown {
		tags["condition"] = string(obs.Condition)
	}
	return influxdb2.NewPoint(Measurement, tags, fields, obs.ObservedAt), true
}
