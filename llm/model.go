// Package llm builds the chat, embedding and image clients used by the
// examples, all configured from config.OpenAI.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/levitang/llm-practice/config"
)

// NewChatModel returns an OpenAI compatible chat model. Extra options are
// applied after the configured ones.
func NewChatModel(cfg config.OpenAI, opts ...openai.Option) (*openai.LLM, error) {
	base := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(cfg.APIBase()),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.APIKey != "" {
		base = append(base, openai.WithToken(cfg.APIKey))
	}
	model, err := openai.New(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create chat model %s: %w", cfg.Model, err)
	}
	return model, nil
}

// NewEmbedder returns an embedder backed by the configured embedding model.
func NewEmbedder(cfg config.OpenAI) (*embeddings.EmbedderImpl, error) {
	model, err := NewChatModel(cfg)
	if err != nil {
		return nil, err
	}
	e, err := embeddings.NewEmbedder(model)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return e, nil
}

// Invoke sends a system prompt and a user message and returns the reply.
// An empty system prompt is omitted.
func Invoke(ctx context.Context, model llms.Model, system, user string, opts ...llms.CallOption) (string, error) {
	var msgs []llms.MessageContent
	if system != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, user))
	return Generate(ctx, model, msgs, opts...)
}

// Generate returns the first choice of a GenerateContent call.
func Generate(ctx context.Context, model llms.Model, msgs []llms.MessageContent, opts ...llms.CallOption) (string, error) {
	resp, err := model.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Content, nil
}

// Stream generates with a streaming callback and returns the full reply.
// onToken receives each chunk as it arrives.
func Stream(ctx context.Context, model llms.Model, msgs []llms.MessageContent, onToken func(string) error, opts ...llms.CallOption) (string, error) {
	var sb strings.Builder
	opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		sb.Write(chunk)
		if onToken == nil {
			return nil
		}
		return onToken(string(chunk))
	}))
	content, err := Generate(ctx, model, msgs, opts...)
	if err != nil {
		return "", err
	}
	if content == "" {
		content = sb.String()
	}
	return content, nil
}
