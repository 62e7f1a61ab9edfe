package prebuilt

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"github.com/levitang/llm-practice/graph"
	"github.com/levitang/llm-practice/llm"
	"github.com/levitang/llm-practice/prompt"
	"github.com/levitang/llm-practice/tool"
)

const (
	finalAnswerPrefix = "Final Answer:"

	missingAction      = "Invalid Format: Missing 'Action:' after 'Thought:'"
	missingActionInput = "Invalid Format: Missing 'Action Input:' after 'Action:'"
	bothAnswerAndTool  = "Invalid Format: Parsing LLM output produced both a final answer and a parse-able action"

	exceptionTool = "_Exception"
)

var (
	actionRe      = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
	actionOnlyRe  = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)`)
	actionInputRe = regexp.MustCompile(`(?s)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
)

// Step is one Thought/Action/Observation round of the text agent.
type Step struct {
	Action      string `json:"action"`
	ActionInput string `json:"action_input"`
	Log         string `json:"log"`
	Observation string `json:"observation"`
}

// TextReactState is the state of the text agent graph.
type TextReactState struct {
	Input  string `json:"input"`
	Steps  []Step `json:"steps"`
	Output string `json:"output"`
	Done   bool   `json:"done"`
}

// Scratchpad renders the finished steps the way the ReAct prompt expects.
func (s TextReactState) Scratchpad() string {
	var sb strings.Builder
	for _, st := range s.Steps {
		sb.WriteString(st.Log)
		sb.WriteString("\nObservation: " + st.Observation + "\nThought: ")
	}
	return sb.String()
}

// TextReactAgent drives tools through the text ReAct format instead of
// function calling, so it works with models that have no tool support.
type TextReactAgent struct {
	graph         *graph.StateGraph[TextReactState]
	runnable      *graph.StateRunnable[TextReactState]
	maxIterations int
	opts          *options
}

// NewTextReactAgent builds the agent → tools loop over prompt.ReAct.
func NewTextReactAgent(model llms.Model, tools []tool.Tool, opts ...Option) (*TextReactAgent, error) {
	if model == nil {
		return nil, errors.New("text react agent needs a model")
	}
	o := newOptions(opts)
	registry := tool.NewRegistry(tools...)
	tmpl := prompt.ReAct()
	tmpl.PartialVariables = map[string]any{
		"tools":      tool.Describe(tools),
		"tool_names": tool.Names(tools),
	}
	callOpts := append([]llms.CallOption{llms.WithStopWords([]string{"\nObservation:"})}, o.callOptions...)

	g := graph.NewStateGraph[TextReactState]()

	g.AddNode("agent", "Ask the model for the next action", func(ctx context.Context, state TextReactState) (TextReactState, error) {
		if len(state.Steps) >= o.maxIterations {
			return state, fmt.Errorf("%w: %d", ErrMaxIterations, o.maxIterations)
		}
		text, err := formatReAct(tmpl, state)
		if err != nil {
			return state, err
		}
		reply, err := llm.Invoke(ctx, model, o.systemPrompt, text, callOpts...)
		if err != nil {
			return state, err
		}
		o.logger.Debug("react output: %s", reply)

		next := state
		next.Steps = append([]Step(nil), state.Steps...)
		step, final, err := ParseReAct(reply)
		switch {
		case err != nil:
			next.Steps = append(next.Steps, Step{Action: exceptionTool, ActionInput: reply, Log: reply, Observation: err.Error()})
		case step == nil:
			next.Output, next.Done = final, true
		default:
			next.Steps = append(next.Steps, *step)
		}
		return next, nil
	})

	g.AddNode("tools", "Run the pending action", func(ctx context.Context, state TextReactState) (TextReactState, error) {
		next := state
		next.Steps = append([]Step(nil), state.Steps...)
		st := &next.Steps[len(next.Steps)-1]

		t, err := registry.Get(st.Action)
		if err != nil {
			st.Observation = fmt.Sprintf("%s is not a valid tool, try one of [%s].", st.Action, tool.Names(registry.Tools()))
			return next, nil
		}
		out, err := t.Call(ctx, st.ActionInput)
		if err != nil {
			o.logger.Warn("tool %s failed: %v", st.Action, err)
			out = "Error: " + err.Error()
		}
		st.Observation = out
		return next, nil
	})

	g.SetEntryPoint("agent")
	g.AddConditionalEdge("agent", func(_ context.Context, s TextReactState) string {
		if s.Done || len(s.Steps) == 0 {
			return graph.END
		}
		if s.Steps[len(s.Steps)-1].Action == exceptionTool {
			return "agent"
		}
		return "tools"
	}, "agent", "tools", graph.END)
	g.AddEdge("tools", "agent")

	r, err := g.Compile()
	if err != nil {
		return nil, err
	}
	return &TextReactAgent{graph: g, runnable: r, maxIterations: o.maxIterations, opts: o}, nil
}

func formatReAct(tmpl prompts.PromptTemplate, s TextReactState) (string, error) {
	return tmpl.Format(map[string]any{
		"input":            s.Input,
		"agent_scratchpad": s.Scratchpad(),
	})
}

// Run answers input and returns the final answer.
func (a *TextReactAgent) Run(ctx context.Context, input string) (string, error) {
	state, err := a.Invoke(ctx, input)
	if err != nil {
		return "", err
	}
	return state.Output, nil
}

// Invoke returns the whole final state, steps included. Each round is two
// graph steps, so the recursion limit follows the iteration budget.
func (a *TextReactAgent) Invoke(ctx context.Context, input string) (TextReactState, error) {
	cfg := a.opts.runConfig("", 2*a.maxIterations+2)
	return a.runnable.InvokeWithConfig(ctx, TextReactState{Input: input}, cfg)
}

func (a *TextReactAgent) Graph() *graph.StateGraph[TextReactState] { return a.graph }

// ParseReAct reads one model turn. It returns either the next action or,
// with a nil step, the final answer.
func ParseReAct(text string) (*Step, string, error) {
	hasFinal := strings.Contains(text, finalAnswerPrefix)
	m := actionRe.FindStringSubmatch(text)
	if m != nil {
		if hasFinal {
			return nil, "", errors.New(bothAnswerAndTool)
		}
		input := strings.TrimSpace(m[2])
		input = strings.Trim(input, `"`)
		return &Step{
			Action:      strings.TrimSpace(m[1]),
			ActionInput: input,
			Log:         text,
		}, "", nil
	}
	if hasFinal {
		i := strings.LastIndex(text, finalAnswerPrefix)
		return nil, strings.TrimSpace(text[i+len(finalAnswerPrefix):]), nil
	}
	if !actionOnlyRe.MatchString(text) {
		return nil, "", errors.New(missingAction)
	}
	if !actionInputRe.MatchString(text) {
		return nil, "", errors.New(missingActionInput)
	}
	return nil, "", errors.New(missingAction)
}
