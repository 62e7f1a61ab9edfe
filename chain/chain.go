// Package chain composes prompts, chat models and output parsers into
// typed pipelines.
package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"github.com/levitang/llm-practice/llm"
	"github.com/levitang/llm-practice/prompt"
)

// Runnable turns an input into an output.
type Runnable[I, O any] interface {
	Invoke(ctx context.Context, input I) (O, error)
}

// Func adapts a function to a Runnable.
type Func[I, O any] func(ctx context.Context, input I) (O, error)

func (f Func[I, O]) Invoke(ctx context.Context, input I) (O, error) {
	return f(ctx, input)
}

// Pipe feeds the output of a into b.
func Pipe[I, M, O any](a Runnable[I, M], b Runnable[M, O]) Runnable[I, O] {
	return Func[I, O](func(ctx context.Context, input I) (O, error) {
		mid, err := a.Invoke(ctx, input)
		if err != nil {
			var zero O
			return zero, err
		}
		return b.Invoke(ctx, mid)
	})
}

// PromptTemplate formats a chat template into messages.
func PromptTemplate(tmpl prompts.ChatPromptTemplate) Runnable[map[string]any, []llms.MessageContent] {
	return Func[map[string]any, []llms.MessageContent](func(_ context.Context, values map[string]any) ([]llms.MessageContent, error) {
		msgs, err := prompt.FormatChat(tmpl, values)
		if err != nil {
			return nil, fmt.Errorf("format prompt: %w", err)
		}
		return msgs, nil
	})
}

// StringPrompt formats a single string template into one human message.
func StringPrompt(tmpl prompts.PromptTemplate) Runnable[map[string]any, []llms.MessageContent] {
	return Func[map[string]any, []llms.MessageContent](func(_ context.Context, values map[string]any) ([]llms.MessageContent, error) {
		text, err := tmpl.Format(values)
		if err != nil {
			return nil, fmt.Errorf("format prompt: %w", err)
		}
		return []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, text)}, nil
	})
}

// ChatModel sends messages to model and returns the first choice.
func ChatModel(model llms.Model, opts ...llms.CallOption) Runnable[[]llms.MessageContent, *llms.ContentChoice] {
	return Func[[]llms.MessageContent, *llms.ContentChoice](func(ctx context.Context, msgs []llms.MessageContent) (*llms.ContentChoice, error) {
		resp, err := model.GenerateContent(ctx, msgs, opts...)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, llm.ErrNoChoices
		}
		return resp.Choices[0], nil
	})
}

// StrOutputParser extracts the text of a choice.
func StrOutputParser() Runnable[*llms.ContentChoice, string] {
	return Func[*llms.ContentChoice, string](func(_ context.Context, c *llms.ContentChoice) (string, error) {
		return c.Content, nil
	})
}

// JSONOutputParser decodes the text of a choice into T. Markdown code
// fences around the JSON are tolerated.
func JSONOutputParser[T any]() Runnable[*llms.ContentChoice, T] {
	return Func[*llms.ContentChoice, T](func(_ context.Context, c *llms.ContentChoice) (T, error) {
		var out T
		if err := json.Unmarshal([]byte(llm.StripCodeFence(c.Content)), &out); err != nil {
			return out, fmt.Errorf("parse json output: %w", err)
		}
		return out, nil
	})
}

// Text is prompt | model | StrOutputParser.
func Text(tmpl prompts.ChatPromptTemplate, model llms.Model, opts ...llms.CallOption) Runnable[map[string]any, string] {
	return Pipe(Pipe(PromptTemplate(tmpl), ChatModel(model, opts...)), StrOutputParser())
}

// Translate translates text into language.
func Translate(model llms.Model) Runnable[map[string]any, string] {
	return Text(prompt.Translate(), model)
}

// Flower asks for the meaning of a flower.
func Flower(model llms.Model) Runnable[map[string]any, string] {
	return Pipe(Pipe(StringPrompt(prompt.Flower()), ChatModel(model)), StrOutputParser())
}

// ImageGenerator renders a prompt into an image URL.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Image translates a Chinese description into an English DALL-E prompt
// and returns the URL of the generated image.
func Image(model llms.Model, images ImageGenerator) Runnable[string, string] {
	describe := Text(prompt.ImagePrompt(), model)
	return Func[string, string](func(ctx context.Context, input string) (string, error) {
		p, err := describe.Invoke(ctx, map[string]any{"input": input})
		if err != nil {
			return "", fmt.Errorf("build image prompt: %w", err)
		}
		return images.Generate(ctx, p)
	})
}
