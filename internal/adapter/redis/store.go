package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/aoaws-etl/internal/config"
	"github.com/couchcryptid/aoaws-etl/internal/domain"
	"github.com/go-redis/redis/v8"
	json "github.com/goccy/go-json"
)

const keyPrefix = "aoaws:observation:"

// Store keeps the latest observation of each station in Redis so processes
// without their own poll loop can read it. It implements
// pipeline.BatchLoader.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore creates a store for the configured Redis server.
func NewStore(cfg *config.Config, logger *slog.Logger) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &Store{client: client, ttl: cfg.RedisTTL, logger: logger}
}

// Key returns the Redis key holding a station's observation.
func Key(station string) string {
	return keyPrefix + strings.ToLower(station)
}

// Ping checks that the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// LoadBatch stores every observation under its station key with the
// configured TTL, in one round trip.
func (s *Store) LoadBatch(ctx context.Context, observations []domain.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, obs := range observations {
			data, err := json.Marshal(obs)
			if err != nil {
				return fmt.Errorf("serialize observation %s: %w", obs.StationName, err)
			}
			pipe.Set(ctx, Key(obs.StationName), data, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis store observations: %w", err)
	}
	return nil
}

// CurrentObservation returns the stored observation. A missing or expired
// key reports false without error.
func (s *Store) CurrentObservation(ctx context.Context, station string) (domain.Observation, bool, error) {
	data, err := s.client.Get(ctx, Key(station)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Observation{}, false, nil
	}
	if err != nil {
		return domain.Observation{}, false, fmt.Errorf("redis get %s: %w", station, err)
	}

	var obs domain.Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return domain.Observation{}, false, fmt.Errorf("decode stored observation %s: %w", station, err)
	}
	return obs, true, nil
}

// Close closes the client connection.
func (s *Store) Close() error {
	return s.client.Close()
}
