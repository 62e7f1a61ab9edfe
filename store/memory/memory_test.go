package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/levitang/llm-practice/store"
)

func TestMemoryCheckpointStore_SaveAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryCheckpointStore()
	now := time.Now()

	for i, id := range []string{"c2", "c1", "c3"} {
		version := []int{2, 1, 3}[i]
		if err := s.Save(ctx, &store.Checkpoint{ID: id, ThreadID: "abc123", Version: version, Timestamp: now}); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	_ = s.Save(ctx, &store.Checkpoint{ID: "other", ThreadID: "abc234", Version: 1})

	cps, err := s.List(ctx, "abc123")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cps) != 3 {
		t.Fatalf("expected 3 checkpoints, got %d", len(cps))
	}
	for i, want := range []string{"c1", "c2", "c3"} {
		if cps[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, cps[i].ID)
		}
	}

	latest, err := store.Latest(ctx, s, "abc123")
	if err != nil || latest.ID != "c3" {
		t.Fatalf("expected latest c3, got %v (%v)", latest, err)
	}

	none, err := store.Latest(ctx, s, "missing")
	if err != nil || none != nil {
		t.Fatalf("expected nil latest for unknown thread, got %v (%v)", none, err)
	}
}

func TestMemoryCheckpointStore_ResaveKeepsSingleEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryCheckpointStore()

	_ = s.Save(ctx, &store.Checkpoint{ID: "c1", ThreadID: "t", NodeName: "a"})
	_ = s.Save(ctx, &store.Checkpoint{ID: "c1", ThreadID: "t", NodeName: "b"})

	cps, _ := s.List(ctx, "t")
	if len(cps) != 1 || cps[0].NodeName != "b" {
		t.Fatalf("expected one updated checkpoint, got %+v", cps)
	}
}

func TestMemoryCheckpointStore_DeleteAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryCheckpointStore()
	_ = s.Save(ctx, &store.Checkpoint{ID: "c1", ThreadID: "t", Version: 1})
	_ = s.Save(ctx, &store.Checkpoint{ID: "c2", ThreadID: "t", Version: 2})

	if err := s.Delete(ctx, "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(ctx, "c1"); !errors.Is(err, store.ErrCheckpointNotFound) {
		t.Fatalf("expected ErrCheckpointNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "c1"); !errors.Is(err, store.ErrCheckpointNotFound) {
		t.Fatalf("expected ErrCheckpointNotFound on second delete, got %v", err)
	}

	if err := s.Clear(ctx, "t"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cps, _ := s.List(ctx, "t")
	if len(cps) != 0 {
		t.Fatalf("expected empty thread after clear, got %d", len(cps))
	}
}

func TestMemoryCheckpointStore_LoadReturnsCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryCheckpointStore()
	_ = s.Save(ctx, &store.Checkpoint{ID: "c1", ThreadID: "t", NodeName: "model"})

	cp, _ := s.Load(ctx, "c1")
	cp.NodeName = "mutated"

	again, _ := s.Load(ctx, "c1")
	if again.NodeName != "model" {
		t.Fatalf("stored checkpoint was mutated through Load result")
	}
}
