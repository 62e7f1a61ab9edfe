package graph

import (
	"context"
	"strings"
)

// StreamMode selects what Stream emits.
type StreamMode string

const (
	// StreamModeValues emits the full state after every step.
	StreamModeValues StreamMode = "values"
	// StreamModeUpdates emits each node's own output.
	StreamModeUpdates StreamMode = "updates"
)

// StreamEvent is one item of a stream. The final item of a failed run
// carries Err.
type StreamEvent[S any] struct {
	Step  int
	Node  string
	State S
	Err   error
}

// Stream runs the graph in a goroutine and returns its events.
// The channel is closed when the run ends or ctx is cancelled.
func (r *StateRunnable[S]) Stream(ctx context.Context, input S, config *Config, mode StreamMode) <-chan StreamEvent[S] {
	return stream(ctx, mode, func(hook stepHook[S]) (S, error) {
		return r.run(ctx, input, config, hook)
	})
}

func stream[S any](ctx context.Context, mode StreamMode, run func(stepHook[S]) (S, error)) <-chan StreamEvent[S] {
	events := make(chan StreamEvent[S], 16)

	send := func(ev StreamEvent[S]) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(events)

		step := 0
		hook := func(nodes []string, outputs []S, state S) {
			step++
			if mode == StreamModeUpdates {
				for i, n := range nodes {
					if !send(StreamEvent[S]{Step: step, Node: n, State: outputs[i]}) {
						return
					}
				}
				return
			}
			send(StreamEvent[S]{Step: step, Node: strings.Join(nodes, ","), State: state})
		}

		if _, err := run(hook); err != nil {
			send(StreamEvent[S]{Step: step, Err: err})
		}
	}()
	return events
}
