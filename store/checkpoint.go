// Package store defines checkpoint persistence for thread scoped graph state.
// Backends live in the sub-packages memory, file, sqlite, postgres and redis.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrCheckpointNotFound is returned by Load and Delete for unknown IDs.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Checkpoint represents the state of a thread after one graph step.
type Checkpoint struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	NodeName string `json:"node_name"`
	// State is the graph state. Backends that serialize return it as the
	// generic JSON decoding (maps, slices, float64).
	State     any            `json:"state"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Version   int            `json:"version"`
}

// CheckpointStore defines the interface for checkpoint persistence
type CheckpointStore interface {
	// Save stores a checkpoint, replacing one with the same ID.
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// List returns the checkpoints of a thread ordered by version.
	List(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// Delete removes a checkpoint
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes all checkpoints of a thread.
	Clear(ctx context.Context, threadID string) error
}

// Latest returns the highest version checkpoint of a thread, or nil when the
// thread has none.
func Latest(ctx context.Context, s CheckpointStore, threadID string) (*Checkpoint, error) {
	cps, err := s.List(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints for thread %s: %w", threadID, err)
	}
	if len(cps) == 0 {
		return nil, nil
	}
	return cps[len(cps)-1], nil
}

// SortByVersion orders checkpoints by version, then timestamp.
func SortByVersion(cps []*Checkpoint) {
	sort.SliceStable(cps, func(i, j int) bool {
		if cps[i].Version != cps[j].Version {
			return cps[i].Version < cps[j].Version
		}
		return cps[i].Timestamp.Before(cps[j].Timestamp)
	})
}

// NotFound wraps ErrCheckpointNotFound with the offending ID.
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrCheckpointNotFound, id)
}
