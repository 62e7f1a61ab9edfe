// Package file persists checkpoints as JSON files, one directory per thread.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/levitang/llm-practice/store"
)

// FileCheckpointStore lays checkpoints out as <root>/<thread>/<id>.json.
type FileCheckpointStore struct {
	root string
	mu   sync.RWMutex
}

var _ store.CheckpointStore = (*FileCheckpointStore)(nil)

// NewFileCheckpointStore creates the root directory if needed.
func NewFileCheckpointStore(root string) (*FileCheckpointStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileCheckpointStore{root: root}, nil
}

func (f *FileCheckpointStore) threadDir(threadID string) string {
	if threadID == "" {
		threadID = "_"
	}
	return filepath.Join(f.root, url.PathEscape(threadID))
}

func (f *FileCheckpointStore) Save(_ context.Context, cp *store.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := f.threadDir(cp.ThreadID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create thread directory: %w", err)
	}
	tmp := filepath.Join(dir, url.PathEscape(cp.ID)+".json.tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return os.Rename(tmp, strings.TrimSuffix(tmp, ".tmp"))
}

func (f *FileCheckpointStore) find(id string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(f.root, "*", url.PathEscape(id)+".json"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", store.NotFound(id)
	}
	return matches[0], nil
}

func readCheckpoint(path string) (*store.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint %s: %w", filepath.Base(path), err)
	}
	return &cp, nil
}

func (f *FileCheckpointStore) Load(_ context.Context, id string) (*store.Checkpoint, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	path, err := f.find(id)
	if err != nil {
		return nil, err
	}
	return readCheckpoint(path)
}

func (f *FileCheckpointStore) List(_ context.Context, threadID string) ([]*store.Checkpoint, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	paths, err := filepath.Glob(filepath.Join(f.threadDir(threadID), "*.json"))
	if err != nil {
		return nil, err
	}
	out := make([]*store.Checkpoint, 0, len(paths))
	for _, p := range paths {
		cp, err := readCheckpoint(p)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	store.SortByVersion(out)
	return out, nil
}

func (f *FileCheckpointStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path, err := f.find(id)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func (f *FileCheckpointStore) Clear(_ context.Context, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.RemoveAll(f.threadDir(threadID))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
