package prebuilt

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/levitang/llm-practice/graph"
	"github.com/levitang/llm-practice/message"
	"github.com/levitang/llm-practice/tool"
)

// ReactAgent is a tool calling loop: the "agent" node asks the model, the
// "tools" node runs the calls it requested, until the model answers in text.
type ReactAgent struct {
	graph  *graph.StateGraph[AgentState]
	runner runner
	tools  *tool.Registry
	limit  int
	opts   *options
}

// CreateReactAgent builds the agent ⇄ tools graph.
func CreateReactAgent(model llms.Model, tools []tool.Tool, opts ...Option) (*ReactAgent, error) {
	if model == nil {
		return nil, errors.New("react agent needs a model")
	}
	o := newOptions(opts)
	registry := tool.NewRegistry(tools...)

	var callOpts []llms.CallOption
	if len(tools) > 0 {
		callOpts = append(callOpts, llms.WithTools(tool.Definitions(tools)))
	}
	callOpts = append(callOpts, o.callOptions...)

	g := graph.NewStateGraph[AgentState]()
	g.SetSchema(agentSchema())

	g.AddNode("agent", "ReAct agent decision maker", func(ctx context.Context, state AgentState) (AgentState, error) {
		if roundsSinceUser(state.Messages) >= o.maxIterations {
			return AgentState{}, fmt.Errorf("%w: %d", ErrMaxIterations, o.maxIterations)
		}
		resp, err := model.GenerateContent(ctx, message.ToLLM(o.prompt(state.Messages)), callOpts...)
		if err != nil {
			return AgentState{}, err
		}
		if len(resp.Choices) == 0 {
			return AgentState{}, errors.New("model returned no choices")
		}
		return AgentState{Messages: []message.Message{message.FromChoice(resp.Choices[0])}}, nil
	})

	g.AddNode("tools", "Tool execution node", func(ctx context.Context, state AgentState) (AgentState, error) {
		last, ok := message.Last(state.Messages)
		if !ok || !last.HasToolCalls() {
			return AgentState{}, errors.New("last message is not an AI message with tool calls")
		}
		out := make([]message.Message, 0, len(last.ToolCalls))
		for _, tc := range last.ToolCalls {
			res, err := registry.Call(ctx, tc.Name, tc.Arguments)
			if err != nil {
				o.logger.Warn("tool %s failed: %v", tc.Name, err)
				res = fmt.Sprintf("Error: %v", err)
			}
			out = append(out, message.Tool(tc.ID, tc.Name, res))
		}
		return AgentState{Messages: out}, nil
	})

	g.SetEntryPoint("agent")
	g.AddConditionalEdge("agent", func(_ context.Context, state AgentState) string {
		if last, ok := message.Last(state.Messages); ok && last.HasToolCalls() {
			return "tools"
		}
		return graph.END
	}, "tools", graph.END)
	g.AddEdge("tools", "agent")

	a := &ReactAgent{graph: g, tools: registry, limit: 2*o.maxIterations + 2, opts: o}
	var err error
	if o.store != nil {
		a.runner, err = g.CompileWithCheckpointer(o.store)
	} else {
		a.runner, err = g.Compile()
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Invoke runs the loop with msgs appended to the thread. threadID is
// ignored without a checkpoint store.
func (a *ReactAgent) Invoke(ctx context.Context, threadID string, msgs ...message.Message) (AgentState, error) {
	return a.runner.InvokeWithConfig(ctx, AgentState{Messages: msgs}, a.opts.runConfig(threadID, a.limit))
}

// Ask sends one question and returns the final answer.
func (a *ReactAgent) Ask(ctx context.Context, threadID, question string) (string, error) {
	state, err := a.Invoke(ctx, threadID, message.Human(question))
	if err != nil {
		return "", err
	}
	return state.LastContent(), nil
}

// Stream runs the loop and emits one event per step.
func (a *ReactAgent) Stream(ctx context.Context, threadID, question string, mode graph.StreamMode) <-chan graph.StreamEvent[AgentState] {
	return a.runner.Stream(ctx, AgentState{Messages: []message.Message{message.Human(question)}}, a.opts.runConfig(threadID, a.limit), mode)
}

// Tools returns the registry the agent calls into.
func (a *ReactAgent) Tools() *tool.Registry { return a.tools }

func (a *ReactAgent) Graph() *graph.StateGraph[AgentState] { return a.graph }
