package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/levitang/llm-practice/graph"
	"github.com/levitang/llm-practice/llm"
	"github.com/levitang/llm-practice/prompt"
)

// Turn is one question and its answer.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ConversationState flows through condense -> retrieve -> generate.
type ConversationState struct {
	Question    string     `json:"question"`
	ChatHistory []Turn     `json:"chat_history,omitempty"`
	Standalone  string     `json:"standalone,omitempty"`
	Context     []Document `json:"context,omitempty"`
	Answer      string     `json:"answer,omitempty"`
}

// ConversationalPipeline answers follow up questions over a document set.
// With an empty history the question is used as is.
type ConversationalPipeline struct {
	graph     *graph.StateGraph[ConversationState]
	runnable  *graph.StateRunnable[ConversationState]
	listeners []graph.Listener
}

// NewConversationalPipeline builds condense -> retrieve -> generate. Only
// WithListeners and WithCallOptions apply; the prompts are fixed.
func NewConversationalPipeline(retriever Retriever, model llms.Model, opts ...PipelineOption) (*ConversationalPipeline, error) {
	if retriever == nil || model == nil {
		return nil, errors.New("retriever and model are required")
	}
	cfg := &pipelineConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	g := graph.NewStateGraph[ConversationState]()
	g.AddNode("condense", "Rewrite the question as a standalone question", func(ctx context.Context, s ConversationState) (ConversationState, error) {
		if len(s.ChatHistory) == 0 {
			s.Standalone = s.Question
			return s, nil
		}
		text, err := prompt.Condense().Format(map[string]any{
			"chat_history": FormatHistory(s.ChatHistory),
			"question":     s.Question,
		})
		if err != nil {
			return s, err
		}
		standalone, err := llm.Invoke(ctx, model, "", text, cfg.callOptions...)
		if err != nil {
			return s, fmt.Errorf("condense question: %w", err)
		}
		s.Standalone = strings.TrimSpace(standalone)
		return s, nil
	})
	g.AddNode("retrieve", "Retrieve documents for the standalone question", func(ctx context.Context, s ConversationState) (ConversationState, error) {
		docs, err := retriever.Retrieve(ctx, s.Standalone)
		if err != nil {
			return s, fmt.Errorf("retrieve: %w", err)
		}
		s.Context = docs
		return s, nil
	})
	g.AddNode("generate", "Answer from the retrieved context", func(ctx context.Context, s ConversationState) (ConversationState, error) {
		text, err := prompt.QA().Format(map[string]any{
			"context":  FormatDocuments(s.Context),
			"question": s.Standalone,
		})
		if err != nil {
			return s, err
		}
		answer, err := llm.Invoke(ctx, model, "", text, cfg.callOptions...)
		if err != nil {
			return s, fmt.Errorf("generate: %w", err)
		}
		s.Answer = answer
		return s, nil
	})
	g.SetEntryPoint("condense")
	g.AddEdge("condense", "retrieve")
	g.AddEdge("retrieve", "generate")
	g.AddEdge("generate", graph.END)

	runnable, err := g.Compile()
	if err != nil {
		return nil, err
	}
	return &ConversationalPipeline{graph: g, runnable: runnable, listeners: cfg.listeners}, nil
}

// Ask answers question given the previous turns.
func (p *ConversationalPipeline) Ask(ctx context.Context, question string, history []Turn) (ConversationState, error) {
	return p.runnable.InvokeWithConfig(ctx, ConversationState{Question: question, ChatHistory: history}, &graph.Config{Callbacks: p.listeners})
}

func (p *ConversationalPipeline) Graph() *graph.StateGraph[ConversationState] {
	return p.graph
}

// FormatHistory renders turns as Human/Assistant lines.
func FormatHistory(turns []Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&sb, "Human: %s\nAssistant: %s\n", t.Question, t.Answer)
	}
	return strings.TrimRight(sb.String(), "\n")
}
