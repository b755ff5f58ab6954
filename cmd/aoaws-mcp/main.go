// Command aoaws-mcp serves current AOAWS observations to MCP clients over
// stdio. It reads the Redis store kept by the aoaws service when REDIS_ADDR
// is set and fetches the page itself otherwise.
package main

import (
	"log/slog"
	"os"

	"github.com/couchcryptid/aoaws-etl/internal/adapter/aoaws"
	redisadapter "github.com/couchcryptid/aoaws-etl/internal/adapter/redis"
	"github.com/couchcryptid/aoaws-etl/internal/config"
	"github.com/couchcryptid/aoaws-etl/internal/observability"
	"github.com/joho/godotenv"
	"github.com/miyamo2/qilin"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Stdout carries the protocol.
	logger := observability.NewLoggerTo(os.Stderr, cfg)

	src := &source{
		fetcher: aoaws.NewClient(cfg.BaseURL, cfg.FetchTimeout, logger),
		lang:    cfg.Language,
		logger:  logger,
	}
	if cfg.RedisAddr != "" {
		store := redisadapter.NewStore(cfg, logger)
		defer store.Close()
		src.store = store
	}

	q := qilin.New("aoaws")

	q.Tool("current_observation",
		(*currentObservationRequest)(nil),
		src.handleTool,
		qilin.ToolWithDescription("Latest normalized AOAWS observation for a Taiwan airport weather station"))

	q.Resource(
		"Station Observation",
		"aoaws://stations/{station}/observation",
		src.handleResource,
		qilin.ResourceWithDescription("Latest normalized AOAWS observation for a station"),
		qilin.ResourceWithMimeType("application/json"))

	if err := q.Start(); err != nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
