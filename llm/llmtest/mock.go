// Package llmtest provides a scripted llms.Model for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// ErrExhausted is returned once every scripted response has been used.
var ErrExhausted = errors.New("llmtest: no more scripted responses")

// Call records one GenerateContent invocation.
type Call struct {
	Messages []llms.MessageContent
	Options  llms.CallOptions
}

// MockLLM replays scripted responses in order.
type MockLLM struct {
	mu        sync.Mutex
	responses []*llms.ContentResponse
	errs      []error
	calls     []Call
	// Repeat keeps returning the last response instead of ErrExhausted.
	Repeat bool
}

var _ llms.Model = (*MockLLM)(nil)

// New scripts plain text replies.
func New(replies ...string) *MockLLM {
	m := &MockLLM{}
	for _, r := range replies {
		m.AddText(r)
	}
	return m
}

// AddText appends a text reply.
func (m *MockLLM) AddText(content string) *MockLLM {
	return m.Add(&llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content, StopReason: "stop"}}})
}

// AddToolCall appends a reply asking for one tool call.
func (m *MockLLM) AddToolCall(id, name, arguments string) *MockLLM {
	return m.Add(&llms.ContentResponse{Choices: []*llms.ContentChoice{{
		StopReason: "tool_calls",
		ToolCalls: []llms.ToolCall{{
			ID:           id,
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: name, Arguments: arguments},
		}},
	}}})
}

// AddError appends a failing call.
func (m *MockLLM) AddError(err error) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, nil)
	m.errs = append(m.errs, err)
	return m
}

// Add appends a raw response.
func (m *MockLLM) Add(resp *llms.ContentResponse) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
	m.errs = append(m.errs, nil)
	return m
}

// Calls returns the recorded invocations.
func (m *MockLLM) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// LastCall returns the most recent invocation.
func (m *MockLLM) LastCall() Call {
	calls := m.Calls()
	if len(calls) == 0 {
		return Call{}
	}
	return calls[len(calls)-1]
}

func (m *MockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}

	m.mu.Lock()
	idx := len(m.calls)
	m.calls = append(m.calls, Call{Messages: append([]llms.MessageContent(nil), messages...), Options: opts})
	if idx >= len(m.responses) {
		if !m.Repeat || len(m.responses) == 0 {
			m.mu.Unlock()
			return nil, ErrExhausted
		}
		idx = len(m.responses) - 1
	}
	resp, err := m.responses[idx], m.errs[idx]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if opts.StreamingFunc != nil && len(resp.Choices) > 0 {
		for _, tok := range strings.SplitAfter(resp.Choices[0].Content, " ") {
			if tok == "" {
				continue
			}
			if err := opts.StreamingFunc(ctx, []byte(tok)); err != nil {
				return nil, err
			}
		}
	}
	return resp, nil
}

func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// TextOf concatenates the text parts of a message.
func TextOf(mc llms.MessageContent) string {
	var sb strings.Builder
	for _, p := range mc.Parts {
		if t, ok := p.(llms.TextContent); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}
