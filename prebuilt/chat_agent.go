package prebuilt

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/levitang/llm-practice/graph"
	"github.com/levitang/llm-practice/message"
	"github.com/levitang/llm-practice/store"
	"github.com/levitang/llm-practice/store/memory"
)

// runner is implemented by both compiled graph flavours.
type runner interface {
	InvokeWithConfig(ctx context.Context, input AgentState, config *graph.Config) (AgentState, error)
	Stream(ctx context.Context, input AgentState, config *graph.Config, mode graph.StreamMode) <-chan graph.StreamEvent[AgentState]
}

// ChatAgent is the conversational memory graph: a single "model" node that
// answers with the accumulated messages of a thread.
type ChatAgent struct {
	graph    *graph.StateGraph[AgentState]
	runnable *graph.CheckpointableRunnable[AgentState]
	opts     *options
}

// CreateChatAgent compiles the memory graph. A nil store keeps threads in
// process memory.
func CreateChatAgent(model llms.Model, cs store.CheckpointStore, opts ...Option) (*ChatAgent, error) {
	if model == nil {
		return nil, errors.New("chat agent needs a model")
	}
	if cs == nil {
		cs = memory.NewMemoryCheckpointStore()
	}
	o := newOptions(opts)

	g := graph.NewStateGraph[AgentState]()
	g.SetSchema(agentSchema())
	g.AddNode("model", "Call the chat model with the thread history", func(ctx context.Context, state AgentState) (AgentState, error) {
		resp, err := model.GenerateContent(ctx, message.ToLLM(o.prompt(state.Messages)), o.callOptions...)
		if err != nil {
			return AgentState{}, err
		}
		if len(resp.Choices) == 0 {
			return AgentState{}, errors.New("model returned no choices")
		}
		return AgentState{Messages: []message.Message{message.FromChoice(resp.Choices[0])}}, nil
	})
	g.AddEdge("model", graph.END)
	g.SetEntryPoint("model")

	r, err := g.CompileWithCheckpointer(cs)
	if err != nil {
		return nil, err
	}
	return &ChatAgent{graph: g, runnable: r, opts: o}, nil
}

// Chat sends text on threadID and returns the reply. Calls with the same
// thread share history.
func (c *ChatAgent) Chat(ctx context.Context, threadID, text string) (string, error) {
	state, err := c.Invoke(ctx, threadID, message.Human(text))
	if err != nil {
		return "", err
	}
	return state.LastContent(), nil
}

// Invoke appends msgs to the thread and runs the model once.
func (c *ChatAgent) Invoke(ctx context.Context, threadID string, msgs ...message.Message) (AgentState, error) {
	state, err := c.runnable.InvokeWithConfig(ctx, AgentState{Messages: msgs}, c.opts.runConfig(threadID, 0))
	if err != nil {
		return state, fmt.Errorf("chat on thread %q: %w", threadID, err)
	}
	return state, nil
}

// History returns the stored messages of a thread.
func (c *ChatAgent) History(ctx context.Context, threadID string) ([]message.Message, error) {
	state, _, err := c.runnable.GetState(ctx, threadID)
	return state.Messages, err
}

// Graph returns the uncompiled graph, for drawing.
func (c *ChatAgent) Graph() *graph.StateGraph[AgentState] { return c.graph }
