package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipelineGraph(t *testing.T, failAt string) *StateRunnable[counterState] {
	t.Helper()
	g := NewStateGraph[counterState]()
	g.SetSchema(counterSchema())
	for _, name := range []string{"retrieve", "generate"} {
		g.AddNode(name, "", func(context.Context, counterState) (counterState, error) {
			if name == failAt {
				return counterState{}, errors.New("model unavailable")
			}
			return counterState{Count: 1, Trail: []string{name}}, nil
		})
	}
	g.AddEdge("retrieve", "generate")
	g.AddEdge("generate", END)
	g.SetEntryPoint("retrieve")
	app, err := g.Compile()
	require.NoError(t, err)
	return app
}

func collect[S any](ch <-chan StreamEvent[S]) []StreamEvent[S] {
	var out []StreamEvent[S]
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestStream_Values(t *testing.T) {
	events := collect(pipelineGraph(t, "").Stream(context.Background(), counterState{}, nil, StreamModeValues))
	require.Len(t, events, 2)
	assert.Equal(t, "retrieve", events[0].Node)
	assert.Equal(t, 1, events[0].State.Count)
	assert.Equal(t, 2, events[1].Step)
	assert.Equal(t, []string{"retrieve", "generate"}, events[1].State.Trail)
}

func TestStream_Updates(t *testing.T) {
	events := collect(pipelineGraph(t, "").Stream(context.Background(), counterState{}, nil, StreamModeUpdates))
	require.Len(t, events, 2)
	assert.Equal(t, []string{"generate"}, events[1].State.Trail)
}

func TestStream_ErrorIsLastEvent(t *testing.T) {
	events := collect(pipelineGraph(t, "generate").Stream(context.Background(), counterState{}, nil, StreamModeValues))
	require.Len(t, events, 2)
	assert.NoError(t, events[0].Err)
	assert.ErrorContains(t, events[1].Err, "model unavailable")
}

func TestStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	events := collect(pipelineGraph(t, "").Stream(ctx, counterState{}, nil, StreamModeValues))
	assert.LessOrEqual(t, len(events), 1)
}
