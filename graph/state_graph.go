package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// NodeFunc transforms the state. With a schema the returned value is an
// update merged into the current state; without one it replaces it.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Node represents a node in the graph.
type Node[S any] struct {
	Name        string
	Description string
	Function    NodeFunc[S]
}

type conditionalEdge[S any] struct {
	condition func(ctx context.Context, state S) string
	// targets are only used for drawing.
	targets []string
}

// StateGraph is a graph of typed nodes over the state S.
//
//	g := graph.NewStateGraph[ChatState]()
//	g.AddNode("model", "call the chat model", callModel)
//	g.AddEdge("model", graph.END)
//	g.SetEntryPoint("model")
type StateGraph[S any] struct {
	nodes            map[string]Node[S]
	order            []string
	edges            []Edge
	conditionalEdges map[string]conditionalEdge[S]
	entryPoint       string
	retryPolicy      *RetryPolicy
	schema           Schema[S]
}

// NewStateGraph creates an empty graph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]Node[S]),
		conditionalEdges: make(map[string]conditionalEdge[S]),
	}
}

// AddNode adds a new node to the state graph with the given name, description and function.
func (g *StateGraph[S]) AddNode(name, description string, fn NodeFunc[S]) {
	if _, exists := g.nodes[name]; !exists {
		g.order = append(g.order, name)
	}
	g.nodes[name] = Node[S]{Name: name, Description: description, Function: fn}
}

// AddEdge adds a new edge to the state graph between the "from" and "to" nodes.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// AddConditionalEdge routes from a node to the name returned by condition.
// targets lists the possible destinations for DrawMermaid.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string, targets ...string) {
	g.conditionalEdges[from] = conditionalEdge[S]{condition: condition, targets: targets}
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetRetryPolicy sets the retry policy applied to every node.
func (g *StateGraph[S]) SetRetryPolicy(policy *RetryPolicy) {
	g.retryPolicy = policy
}

// SetSchema sets the state schema for the graph.
func (g *StateGraph[S]) SetSchema(schema Schema[S]) {
	g.schema = schema
}

// Compile validates the graph and returns a runnable.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: entry point %s", ErrNodeNotFound, g.entryPoint)
	}
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge source %s", ErrNodeNotFound, e.From)
		}
		if _, ok := g.nodes[e.To]; !ok && e.To != END {
			return nil, fmt.Errorf("%w: edge target %s", ErrNodeNotFound, e.To)
		}
	}
	return &StateRunnable[S]{graph: g}, nil
}

// StateRunnable is a compiled graph.
type StateRunnable[S any] struct {
	graph *StateGraph[S]
}

// Invoke executes the compiled state graph with the given input state.
func (r *StateRunnable[S]) Invoke(ctx context.Context, input S) (S, error) {
	return r.InvokeWithConfig(ctx, input, nil)
}

// InvokeWithConfig executes the graph and returns the final state.
func (r *StateRunnable[S]) InvokeWithConfig(ctx context.Context, input S, config *Config) (S, error) {
	return r.run(ctx, input, config, nil)
}

// stepHook receives the single node outputs and merged state of every step.
type stepHook[S any] func(nodes []string, outputs []S, state S)

func (r *StateRunnable[S]) run(ctx context.Context, input S, config *Config, hook stepHook[S]) (S, error) {
	var zero S

	state := input
	if r.graph.schema != nil {
		var err error
		state, err = r.graph.schema.Update(r.graph.schema.Init(), input)
		if err != nil {
			return zero, fmt.Errorf("failed to initialize state with schema: %w", err)
		}
	}
	if config != nil {
		ctx = WithConfig(ctx, config)
	}

	limit := config.recursionLimit()
	current := []string{r.graph.entryPoint}

	for step := 1; len(current) > 0; step++ {
		if step > limit {
			return state, fmt.Errorf("%w: %d steps", ErrMaxSteps, limit)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		outputs, err := r.executeNodes(ctx, current, state, config)
		if err != nil {
			return state, err
		}

		state, err = r.merge(state, outputs)
		if err != nil {
			return state, err
		}

		for _, l := range config.listeners() {
			l.OnStep(ctx, step, current, state)
		}
		if hook != nil {
			hook(current, outputs, state)
		}

		current, err = r.nextNodes(ctx, current, state)
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

func (r *StateRunnable[S]) executeNodes(ctx context.Context, names []string, state S, config *Config) ([]S, error) {
	outputs := make([]S, len(names))
	errs := make([]error, len(names))
	listeners := config.listeners()

	for _, name := range names {
		if _, ok := r.graph.nodes[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
		}
	}

	var wg sync.WaitGroup
	for i, name := range names {
		node := r.graph.nodes[name]
		SafeGo(&wg, func() {
			for _, l := range listeners {
				l.OnNodeStart(ctx, name, state)
			}
			start := time.Now()
			out, err := r.executeWithRetry(ctx, node, state)
			for _, l := range listeners {
				l.OnNodeEnd(ctx, name, out, time.Since(start), err)
			}
			if err != nil {
				errs[i] = fmt.Errorf("error in node %s: %w", name, err)
				return
			}
			outputs[i] = out
		}, func(panicVal any) {
			errs[i] = fmt.Errorf("panic in node %s: %v", name, panicVal)
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return outputs, nil
}

func (r *StateRunnable[S]) merge(state S, outputs []S) (S, error) {
	if r.graph.schema == nil {
		if len(outputs) > 0 {
			state = outputs[len(outputs)-1]
		}
		return state, nil
	}
	for _, out := range outputs {
		var err error
		state, err = r.graph.schema.Update(state, out)
		if err != nil {
			return state, fmt.Errorf("schema update failed: %w", err)
		}
	}
	return state, nil
}

func (r *StateRunnable[S]) nextNodes(ctx context.Context, current []string, state S) ([]string, error) {
	seen := make(map[string]bool)
	for _, name := range current {
		if ce, ok := r.graph.conditionalEdges[name]; ok {
			next := ce.condition(ctx, state)
			if next == "" {
				return nil, fmt.Errorf("conditional edge returned empty next node from %s", name)
			}
			if _, ok := r.graph.nodes[next]; !ok && next != END {
				return nil, fmt.Errorf("%w: %s (routed from %s)", ErrNodeNotFound, next, name)
			}
			seen[next] = true
			continue
		}

		found := false
		for _, e := range r.graph.edges {
			if e.From == name {
				seen[e.To] = true
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		}
	}

	next := make([]string, 0, len(seen))
	for n := range seen {
		if n != END {
			next = append(next, n)
		}
	}
	sort.Strings(next)
	return next, nil
}

// SafeGo runs fn in a goroutine tracked by wg and hands a recovered panic to onPanic.
func SafeGo(wg *sync.WaitGroup, fn func(), onPanic func(any)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if p := recover(); p != nil && onPanic != nil {
				onPanic(p)
			}
		}()
		fn()
	}()
}
