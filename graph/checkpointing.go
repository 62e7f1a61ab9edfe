package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/levitang/llm-practice/store"
)

// CheckpointableRunnable persists the state of every step per thread.
// Invoking it again with the same thread_id continues from the stored
// state; a new thread_id starts from the schema's initial state.
// Invocations of the same thread run one at a time.
type CheckpointableRunnable[S any] struct {
	runnable *StateRunnable[S]
	store    store.CheckpointStore
	threads  sync.Map // thread id -> *sync.Mutex
}

// CompileWithCheckpointer compiles the graph with a checkpoint store.
func (g *StateGraph[S]) CompileWithCheckpointer(cs store.CheckpointStore) (*CheckpointableRunnable[S], error) {
	r, err := g.Compile()
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, fmt.Errorf("checkpoint store is nil")
	}
	return &CheckpointableRunnable[S]{runnable: r, store: cs}, nil
}

// Store returns the underlying checkpoint store.
func (cr *CheckpointableRunnable[S]) Store() store.CheckpointStore {
	return cr.store
}

// Invoke runs without a thread; nothing is persisted.
func (cr *CheckpointableRunnable[S]) Invoke(ctx context.Context, input S) (S, error) {
	return cr.InvokeWithConfig(ctx, input, nil)
}

// InvokeWithConfig resumes the thread named by config, runs the graph and
// saves one checkpoint per step.
// A checkpoint that cannot be saved fails the call.
func (cr *CheckpointableRunnable[S]) InvokeWithConfig(ctx context.Context, input S, config *Config) (S, error) {
	return cr.invoke(ctx, input, config, nil)
}

// Stream is InvokeWithConfig with streamed events.
func (cr *CheckpointableRunnable[S]) Stream(ctx context.Context, input S, config *Config, mode StreamMode) <-chan StreamEvent[S] {
	return stream(ctx, mode, func(hook stepHook[S]) (S, error) {
		return cr.invoke(ctx, input, config, hook)
	})
}

func (cr *CheckpointableRunnable[S]) invoke(ctx context.Context, input S, config *Config, hook stepHook[S]) (S, error) {
	threadID := config.ThreadID()
	if threadID == "" {
		return cr.runnable.run(ctx, input, config, hook)
	}

	mu := cr.lock(threadID)
	defer mu.Unlock()

	state, cfg, saver, err := cr.prepare(ctx, input, config)
	if err != nil {
		var zero S
		return zero, err
	}
	out, err := cr.runnable.run(ctx, state, cfg, hook)
	if err != nil {
		return out, err
	}
	if saver.err != nil {
		return out, fmt.Errorf("save checkpoint for thread %s: %w", threadID, saver.err)
	}
	return out, nil
}

func (cr *CheckpointableRunnable[S]) lock(threadID string) *sync.Mutex {
	v, _ := cr.threads.LoadOrStore(threadID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}

func (cr *CheckpointableRunnable[S]) prepare(ctx context.Context, input S, config *Config) (S, *Config, *checkpointListener[S], error) {
	threadID := config.ThreadID()

	state := input
	version := 0
	latest, err := store.Latest(ctx, cr.store, threadID)
	if err != nil {
		return state, nil, nil, err
	}
	if latest != nil {
		prev, err := DecodeState[S](latest.State)
		if err != nil {
			return state, nil, nil, fmt.Errorf("decode checkpoint %s: %w", latest.ID, err)
		}
		if schema := cr.runnable.graph.schema; schema != nil {
			state, err = schema.Update(prev, input)
			if err != nil {
				return state, nil, nil, fmt.Errorf("merge input into thread %s: %w", threadID, err)
			}
		}
		version = latest.Version
	}

	saver := &checkpointListener[S]{
		store:    cr.store,
		threadID: threadID,
		version:  version,
	}
	cfg := config.clone()
	cfg.Callbacks = append(cfg.Callbacks, saver)
	return state, cfg, saver, nil
}

// GetState returns the latest state of a thread. ok is false for a thread
// without checkpoints.
func (cr *CheckpointableRunnable[S]) GetState(ctx context.Context, threadID string) (state S, ok bool, err error) {
	latest, err := store.Latest(ctx, cr.store, threadID)
	if err != nil || latest == nil {
		return state, false, err
	}
	state, err = DecodeState[S](latest.State)
	return state, err == nil, err
}

// History returns the checkpoints of a thread ordered by version.
func (cr *CheckpointableRunnable[S]) History(ctx context.Context, threadID string) ([]*store.Checkpoint, error) {
	return cr.store.List(ctx, threadID)
}

// ClearThread forgets a thread.
func (cr *CheckpointableRunnable[S]) ClearThread(ctx context.Context, threadID string) error {
	return cr.store.Clear(ctx, threadID)
}

// DecodeState converts a stored state into S. Stores that serialize hand
// back generic JSON values, which are re-decoded through encoding/json.
func DecodeState[S any](v any) (S, error) {
	if s, ok := v.(S); ok {
		return s, nil
	}
	var s S
	data, err := json.Marshal(v)
	if err != nil {
		return s, err
	}
	err = json.Unmarshal(data, &s)
	return s, err
}

type checkpointListener[S any] struct {
	store    store.CheckpointStore
	threadID string
	version  int
	err      error // first failed save
}

func (cl *checkpointListener[S]) OnNodeStart(context.Context, string, any) {}

func (cl *checkpointListener[S]) OnNodeEnd(context.Context, string, any, time.Duration, error) {}

func (cl *checkpointListener[S]) OnStep(ctx context.Context, step int, nodes []string, state any) {
	if cl.err != nil {
		return
	}
	cl.version++
	node := fmt.Sprintf("step:%v", nodes)
	if len(nodes) == 1 {
		node = nodes[0]
	}
	cp := &store.Checkpoint{
		ID:        "checkpoint_" + uuid.NewString(),
		ThreadID:  cl.threadID,
		NodeName:  node,
		State:     state,
		Metadata:  map[string]any{"thread_id": cl.threadID, "step": step, "source": "loop"},
		Timestamp: time.Now(),
		Version:   cl.version,
	}
	if err := cl.store.Save(ctx, cp); err != nil {
		cl.err = err
	}
}
