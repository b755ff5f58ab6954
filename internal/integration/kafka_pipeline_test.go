//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/aoaws-etl/internal/adapter/aoaws"
	"github.com/couchcryptid/aoaws-etl/internal/adapter/kafka"
	"github.com/couchcryptid/aoaws-etl/internal/config"
	"github.com/couchcryptid/aoaws-etl/internal/domain"
	"github.com/couchcryptid/aoaws-etl/internal/observability"
	"github.com/couchcryptid/aoaws-etl/internal/pipeline"
	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "aoaws-observations-test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixtureFetcher serves the saved AOAWS page through the real extractor.
type fixtureFetcher struct {
	t *testing.T
}

func (f fixtureFetcher) FetchTable(_ context.Context, _ string) ([]domain.RawRow, error) {
	page, err := os.ReadFile("../adapter/aoaws/testdata/mainRight.html")
	require.NoError(f.t, err)
	return aoaws.ExtractTable(string(page)), nil
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type observationMessage struct {
	Observation domain.Observation
	Key         string
	Headers     map[string]string
}

func readObservation(ctx context.Context, t *testing.T, consumer *kafkago.Reader) observationMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read observation topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var obs domain.Observation
	require.NoError(t, json.Unmarshal(msg.Value, &obs), "unmarshal observation")

	return observationMessage{Observation: obs, Key: string(msg.Key), Headers: headers}
}

// TestRefreshPublishesToKafka runs one refresh over the saved page with the
// Kafka writer as the only sink and reads every observation back.
func TestRefreshPublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaTopic:         testTopic,
		BatchSize:          10,
		BatchFlushInterval: 100 * time.Millisecond,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	loader := pipeline.NewMultiLoader(discardLogger(), metrics, pipeline.Sink{Name: "kafka", Loader: writer})
	stations := []string{"Taoyuan", "Taipei", "Kaohsiung"}
	p := pipeline.New(fixtureFetcher{t: t}, loader, pipeline.Settings{
		Stations:     stations,
		Language:     "en",
		PollInterval: time.Minute,
	}, discardLogger(), metrics)

	snap, err := p.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Observations, len(stations))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]observationMessage, len(stations))
	for len(received) < len(stations) {
		m := readObservation(ctx, t, consumer)
		received[m.Observation.StationName] = m
	}

	for _, station := range stations {
		m, ok := received[station]
		require.True(t, ok, "no message for %s", station)

		want, _ := snap.Observation(station)
		assert.Equal(t, want.ID(), m.Key)
		assert.Equal(t, station, m.Headers["station"])
		_, err := time.Parse(time.RFC3339, m.Headers["observed_at"])
		assert.NoError(t, err, "observed_at should be RFC3339")
		assert.Equal(t, want.Timestamp, m.Observation.Timestamp)
	}

	taipei := received["Taipei"].Observation
	require.NotNil(t, taipei.Visibility)
	assert.Equal(t, 0.5, taipei.Visibility.Number)
	assert.Equal(t, domain.ConditionLightningRainy, taipei.Condition)
	assert.Equal(t, "2024-01-01 08:00:00", taipei.Timestamp)
}
