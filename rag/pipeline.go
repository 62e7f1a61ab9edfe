package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"github.com/levitang/llm-practice/graph"
	"github.com/levitang/llm-practice/llm"
	"github.com/levitang/llm-practice/prompt"
)

// State flows through the retrieve -> generate graph.
type State struct {
	Question string     `json:"question"`
	Context  []Document `json:"context,omitempty"`
	Answer   string     `json:"answer,omitempty"`
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	prompt      prompts.ChatPromptTemplate
	callOptions []llms.CallOption
	listeners   []graph.Listener
}

// WithPrompt replaces the answer prompt. It receives question and context.
func WithPrompt(tmpl prompts.ChatPromptTemplate) PipelineOption {
	return func(c *pipelineConfig) {
		c.prompt = tmpl
	}
}

// WithCallOptions passes options to every model call.
func WithCallOptions(opts ...llms.CallOption) PipelineOption {
	return func(c *pipelineConfig) {
		c.callOptions = append(c.callOptions, opts...)
	}
}

// WithListeners attaches graph listeners, such as a graph.MetricsListener,
// to every run.
func WithListeners(ls ...graph.Listener) PipelineOption {
	return func(c *pipelineConfig) {
		c.listeners = append(c.listeners, ls...)
	}
}

// Pipeline answers a question from retrieved context.
type Pipeline struct {
	graph     *graph.StateGraph[State]
	runnable  *graph.StateRunnable[State]
	listeners []graph.Listener
}

// NewPipeline builds the retrieve -> generate graph.
func NewPipeline(retriever Retriever, model llms.Model, opts ...PipelineOption) (*Pipeline, error) {
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if model == nil {
		return nil, errors.New("model is required")
	}
	cfg := pipelineConfig{prompt: prompt.RAG()}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := graph.NewStateGraph[State]()
	g.AddNode("retrieve", "Retrieve documents for the question", func(ctx context.Context, s State) (State, error) {
		docs, err := retriever.Retrieve(ctx, s.Question)
		if err != nil {
			return s, fmt.Errorf("retrieve: %w", err)
		}
		s.Context = docs
		return s, nil
	})
	g.AddNode("generate", "Answer from the retrieved context", func(ctx context.Context, s State) (State, error) {
		msgs, err := prompt.FormatChat(cfg.prompt, map[string]any{
			"question": s.Question,
			"context":  FormatDocuments(s.Context),
		})
		if err != nil {
			return s, err
		}
		answer, err := llm.Generate(ctx, model, msgs, cfg.callOptions...)
		if err != nil {
			return s, fmt.Errorf("generate: %w", err)
		}
		s.Answer = answer
		return s, nil
	})
	g.SetEntryPoint("retrieve")
	g.AddEdge("retrieve", "generate")
	g.AddEdge("generate", graph.END)

	runnable, err := g.Compile()
	if err != nil {
		return nil, err
	}
	return &Pipeline{graph: g, runnable: runnable, listeners: cfg.listeners}, nil
}

// Query runs the pipeline for one question.
func (p *Pipeline) Query(ctx context.Context, question string) (State, error) {
	return p.runnable.InvokeWithConfig(ctx, State{Question: question}, p.config())
}

// Stream runs the pipeline and emits events in the given mode.
func (p *Pipeline) Stream(ctx context.Context, question string, mode graph.StreamMode) <-chan graph.StreamEvent[State] {
	return p.runnable.Stream(ctx, State{Question: question}, p.config(), mode)
}

func (p *Pipeline) config() *graph.Config {
	return &graph.Config{Callbacks: p.listeners}
}

// Graph exposes the underlying graph, mostly for drawing.
func (p *Pipeline) Graph() *graph.StateGraph[State] {
	return p.graph
}
