package graph

import (
	"context"
	"time"
)

// Listener observes graph execution. Node callbacks of the same step are
// invoked from concurrent goroutines.
type Listener interface {
	OnNodeStart(ctx context.Context, node string, state any)
	OnNodeEnd(ctx context.Context, node string, output any, elapsed time.Duration, err error)
	// OnStep runs after the outputs of a step are merged.
	OnStep(ctx context.Context, step int, nodes []string, state any)
}

// ListenerFuncs implements Listener with optional function fields.
type ListenerFuncs struct {
	NodeStart func(ctx context.Context, node string, state any)
	NodeEnd   func(ctx context.Context, node string, output any, elapsed time.Duration, err error)
	Step      func(ctx context.Context, step int, nodes []string, state any)
}

func (l ListenerFuncs) OnNodeStart(ctx context.Context, node string, state any) {
	if l.NodeStart != nil {
		l.NodeStart(ctx, node, state)
	}
}

func (l ListenerFuncs) OnNodeEnd(ctx context.Context, node string, output any, elapsed time.Duration, err error) {
	if l.NodeEnd != nil {
		l.NodeEnd(ctx, node, output, elapsed, err)
	}
}

func (l ListenerFuncs) OnStep(ctx context.Context, step int, nodes []string, state any) {
	if l.Step != nil {
		l.Step(ctx, step, nodes, state)
	}
}
