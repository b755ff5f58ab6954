package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/aoaws-etl/internal/config"
	"github.com/couchcryptid/aoaws-etl/internal/domain"
	paho "github.com/eclipse/paho.mqtt.golang"
	json "github.com/goccy/go-json"
)

const (
	qosAtLeastOnce = 1
	publishTimeout = 5 * time.Second
	disconnectWait = 250 // milliseconds
)

// client is the subset of paho.Client the publisher uses.
type client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
}

// Publisher publishes each observation as a retained message on
// <prefix>/<station>/observation, so subscribers get the latest reading on
// connect. It implements pipeline.BatchLoader.
type Publisher struct {
	client client
	prefix string
	logger *slog.Logger
}

// NewPublisher creates a publisher for the configured broker. Call Connect
// before publishing.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	opts := paho.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		})
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}
	return &Publisher{
		client: paho.NewClient(opts),
		prefix: cfg.MQTTTopicPrefix,
		logger: logger,
	}
}

// Connect opens the broker connection.
func (p *Publisher) Connect(ctx context.Context) error {
	if err := waitToken(ctx, p.client.Connect()); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Topic returns the observation topic for a station.
func (p *Publisher) Topic(station string) string {
	return p.prefix + "/" + strings.ToLower(station) + "/observation"
}

// LoadBatch publishes every observation and returns the joined errors.
func (p *Publisher) LoadBatch(ctx context.Context, observations []domain.Observation) error {
	var errs []error
	for _, obs := range observations {
		payload, err := json.Marshal(obs)
		if err != nil {
			errs = append(errs, fmt.Errorf("serialize observation %s: %w", obs.StationName, err))
			continue
		}
		topic := p.Topic(obs.StationName)
		if err := waitToken(ctx, p.client.Publish(topic, qosAtLeastOnce, true, payload)); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", topic, err))
			continue
		}
		p.logger.Debug("observation published", "topic", topic, "id", obs.ID())
	}
	return errors.Join(errs...)
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(disconnectWait)
	return nil
}

func waitToken(ctx context.Context, token paho.Token) error {
	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("timed out waiting for broker")
	}
}
