// Package backend selects a checkpoint store implementation by name.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/levitang/llm-practice/config"
	"github.com/levitang/llm-practice/store"
	"github.com/levitang/llm-practice/store/file"
	"github.com/levitang/llm-practice/store/memory"
	"github.com/levitang/llm-practice/store/postgres"
	"github.com/levitang/llm-practice/store/redis"
	"github.com/levitang/llm-practice/store/sqlite"
)

// Kinds lists the accepted store names.
var Kinds = []string{"memory", "file", "sqlite", "postgres", "redis"}

// Open returns the store named by cfg.Kind and a function releasing it.
func Open(ctx context.Context, cfg config.Checkpoint) (store.CheckpointStore, func(), error) {
	noop := func() {}

	switch strings.ToLower(cfg.Kind) {
	case "", "memory":
		return memory.NewMemoryCheckpointStore(), noop, nil
	case "file":
		s, err := file.NewFileCheckpointStore(orDefault(cfg.DSN, ".checkpoints"))
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "sqlite":
		s, err := sqlite.NewSqliteCheckpointStore(ctx, sqlite.SqliteOptions{Path: orDefault(cfg.DSN, "checkpoints.db")})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, nil, fmt.Errorf("postgres checkpoint store requires CHECKPOINT_DSN")
		}
		s, err := postgres.NewPostgresCheckpointStore(ctx, postgres.PostgresOptions{ConnString: cfg.DSN})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "redis":
		s := redis.NewRedisCheckpointStore(redis.RedisOptions{Addr: orDefault(cfg.DSN, "localhost:6379")})
		return s, func() { _ = s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown checkpoint store %q (want one of %s)", cfg.Kind, strings.Join(Kinds, ", "))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
