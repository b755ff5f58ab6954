package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/aoaws-etl/internal/adapter/aoaws"
	"github.com/couchcryptid/aoaws-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/aoaws-etl/internal/adapter/influx"
	kafkaadapter "github.com/couchcryptid/aoaws-etl/internal/adapter/kafka"
	"github.com/couchcryptid/aoaws-etl/internal/adapter/mqtt"
	redisadapter "github.com/couchcryptid/aoaws-etl/internal/adapter/redis"
	"github.com/couchcryptid/aoaws-etl/internal/config"
	"github.com/couchcryptid/aoaws-etl/internal/observability"
	"github.com/couchcryptid/aoaws-etl/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader, closers, err := buildSinks(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to start sinks", "error", err)
		closeAll(logger, closers)
		os.Exit(1)
	}
	logger.Info("sinks configured", "sinks", loader.Names())

	client := aoaws.NewClient(cfg.BaseURL, cfg.FetchTimeout, logger)
	p := pipeline.New(client, loader, pipeline.Settings{
		Stations:     cfg.Stations,
		Language:     cfg.Language,
		PollInterval: cfg.PollInterval,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start poll loop.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closeAll(logger, closers)

	logger.Info("shutdown complete")
}

const sinkStartupTimeout = 10 * time.Second

type namedCloser struct {
	name string
	io.Closer
}

// buildSinks creates every sink the configuration enables. A failed MQTT
// connect is fatal since the client cannot publish without a session. A
// failed InfluxDB or Redis ping is only logged; the sink is still added and
// its writes are retried on each poll.
func buildSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.MultiLoader, []namedCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, sinkStartupTimeout)
	defer cancel()

	loader := pipeline.NewMultiLoader(logger, metrics)
	var closers []namedCloser

	if cfg.KafkaEnabled {
		w := kafkaadapter.NewWriter(cfg, logger)
		loader.Add("kafka", w)
		closers = append(closers, namedCloser{"kafka", w})
	}

	if cfg.MQTTBroker != "" {
		pub := mqtt.NewPublisher(cfg, logger)
		if err := pub.Connect(ctx); err != nil {
			return nil, closers, err
		}
		loader.Add("mqtt", pub)
		closers = append(closers, namedCloser{"mqtt", pub})
	}

	if cfg.InfluxURL != "" {
		w := influx.NewWriter(cfg, logger)
		if err := w.Ping(ctx); err != nil {
			logger.Warn("influxdb not reachable, writes will be retried each poll", "url", cfg.InfluxURL, "error", err)
		}
		loader.Add("influxdb", w)
		closers = append(closers, namedCloser{"influxdb", w})
	}

	if cfg.RedisAddr != "" {
		store := redisadapter.NewStore(cfg, logger)
		if err := store.Ping(ctx); err != nil {
			logger.Warn("redis not reachable, writes will be retried each poll", "addr", cfg.RedisAddr, "error", err)
		}
		loader.Add("redis", store)
		closers = append(closers, namedCloser{"redis", store})
	}

	return loader, closers, nil
}

func closeAll(logger *slog.Logger, closers []namedCloser) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("sink close error", "sink", c.name, "error", err)
		}
	}
}
