package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levitang/llm-practice/config"
	"github.com/levitang/llm-practice/store"
)

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	cases := []config.Checkpoint{
		{Kind: "memory"},
		{Kind: "file", DSN: filepath.Join(dir, "cp")},
		{Kind: "sqlite", DSN: ":memory:"},
		{Kind: "redis", DSN: mr.Addr()},
	}
	for _, cfg := range cases {
		t.Run(cfg.Kind, func(t *testing.T) {
			ctx := context.Background()
			s, closeFn, err := Open(ctx, cfg)
			require.NoError(t, err)
			defer closeFn()

			require.NoError(t, s.Save(ctx, &store.Checkpoint{ID: "c", ThreadID: "t", NodeName: "model", State: "x", Version: 1}))
			latest, err := store.Latest(ctx, s, "t")
			require.NoError(t, err)
			assert.Equal(t, "c", latest.ID)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	_, _, err := Open(context.Background(), config.Checkpoint{Kind: "etcd"})
	assert.ErrorContains(t, err, "unknown checkpoint store")

	_, _, err = Open(context.Background(), config.Checkpoint{Kind: "postgres"})
	assert.ErrorContains(t, err, "CHECKPOINT_DSN")
}
